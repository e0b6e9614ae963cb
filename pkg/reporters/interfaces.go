package reporters

import "context"

// Reporter sends run events to a downstream sink (HTTP, SQS, SNS, Pub/Sub).
type Reporter interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// closer is implemented by reporters that hold connections.
type closer interface {
	Close() error
}
