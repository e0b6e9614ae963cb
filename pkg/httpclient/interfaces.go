package httpclient

import (
	"context"
	"fmt"
	"time"
)

// Response is the part of an HTTP response a reachability probe looks at.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client issues plain GET requests. The checker uses it to probe a deployment before a run.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// ProbeResult describes a single reachability probe. Any status counts as reachable.
type ProbeResult struct {
	URL     string
	Status  int
	Elapsed time.Duration
}

// Probe sends one GET to url and reports how long the round trip took.
func Probe(ctx context.Context, c Client, url string) (ProbeResult, error) {
	start := time.Now()
	resp, err := c.Get(ctx, url, nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("probe %s: %w", url, err)
	}
	return ProbeResult{URL: url, Status: resp.StatusCode(), Elapsed: time.Since(start)}, nil
}
