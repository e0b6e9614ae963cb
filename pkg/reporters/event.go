package reporters

import (
	"time"

	"github.com/google/uuid"
)

// ScenarioOutcome is one scenario verdict inside an Event.
type ScenarioOutcome struct {
	ID         string `json:"id"`
	Outcome    string `json:"outcome"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// Event represents the payload published downstream after each check run.
type Event struct {
	EventID       string            `json:"event_id"`
	RunID         string            `json:"run_id"`
	BaseURL       string            `json:"base_url"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
	Passed        int               `json:"passed"`
	Failed        int               `json:"failed"`
	Skipped       int               `json:"skipped"`
	Scenarios     []ScenarioOutcome `json:"scenarios"`
	CleanupErrors []string          `json:"cleanup_errors,omitempty"`
	PublishedAt   time.Time         `json:"published_at"`
}

// NewEvent stamps an Event for runID. Totals are derived from scenarios.
func NewEvent(runID, baseURL string, startedAt, finishedAt time.Time, scenarios []ScenarioOutcome) Event {
	evt := Event{
		EventID:     uuid.NewString(),
		RunID:       runID,
		BaseURL:     baseURL,
		StartedAt:   startedAt.UTC(),
		FinishedAt:  finishedAt.UTC(),
		Scenarios:   scenarios,
		PublishedAt: time.Now().UTC(),
	}
	for _, s := range scenarios {
		switch s.Outcome {
		case "passed":
			evt.Passed++
		case "failed":
			evt.Failed++
		case "skipped":
			evt.Skipped++
		}
	}
	return evt
}

// Status is "failed" when any scenario failed, "passed" otherwise.
func (e Event) Status() string {
	if e.Failed > 0 {
		return "failed"
	}
	return "passed"
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"run_id": e.RunID,
		"status": e.Status(),
	}
}
