package reporters

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubReporterPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	admin, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer admin.Close()
	if _, err := admin.CreateTopic(ctx, "runs"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	rep, err := newPubSubReporter(ctx, ReporterConfig{
		ID:     "gcp",
		Type:   TypePubSub,
		PubSub: &PubSubConfig{ProjectID: "test-project", Topic: "runs"},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubReporter: %v", err)
	}
	defer rep.(closer).Close()

	if err := rep.Publish(ctx, Event{RunID: "run-1", Failed: 1}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["status"] != "failed" {
		t.Fatalf("unexpected attributes %v", msgs[0].Attributes)
	}
	var evt Event
	if err := json.Unmarshal(msgs[0].Data, &evt); err != nil || evt.RunID != "run-1" {
		t.Fatalf("unexpected payload %s (err=%v)", msgs[0].Data, err)
	}
}
