package contract

import (
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
)

// Outcome is the verdict for one scenario.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Failure is an assertion failure observed against the service.
type Failure struct {
	Scenario string
	Message  string
	// Status and Body describe the response that broke the expectation, when there was one.
	Status int
	Body   string
}

func (f *Failure) Error() string {
	msg := f.Message
	if f.Scenario != "" {
		msg = f.Scenario + ": " + msg
	}
	if f.Status != 0 {
		msg = fmt.Sprintf("%s (status %d, body %s)", msg, f.Status, f.Body)
	}
	return msg
}

// failf builds a Failure carrying the observed response.
func failf(res petfriends.Result, format string, args ...any) error {
	return &Failure{
		Message: fmt.Sprintf(format, args...),
		Status:  res.Status,
		Body:    res.Body.Summary(),
	}
}

// Skipped marks a scenario that could not run in the current environment.
type Skipped struct {
	Reason string
}

func (s *Skipped) Error() string { return "skipped: " + s.Reason }

// Skip returns an error that makes the runner record the scenario as skipped.
func Skip(format string, args ...any) error {
	return &Skipped{Reason: fmt.Sprintf(format, args...)}
}

// ScenarioResult is the recorded outcome of one scenario.
type ScenarioResult struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Outcome     Outcome       `json:"outcome"`
	Duration    time.Duration `json:"duration_ns"`
	Message     string        `json:"message,omitempty"`
}

// Report summarizes one run over a set of scenarios.
type Report struct {
	RunID      string           `json:"run_id"`
	BaseURL    string           `json:"base_url"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []ScenarioResult `json:"results"`
	// CleanupErrors lists pets that could not be deleted after the run.
	CleanupErrors []string `json:"cleanup_errors,omitempty"`
}

// Totals counts results per outcome.
func (r Report) Totals() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomePassed:
			passed++
		case OutcomeFailed:
			failed++
		case OutcomeSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Failed reports whether any scenario failed.
func (r Report) Failed() bool {
	_, failed, _ := r.Totals()
	return failed > 0
}

// Result returns the recorded result for id.
func (r Report) Result(id string) (ScenarioResult, bool) {
	for _, res := range r.Results {
		if res.ID == id {
			return res, true
		}
	}
	return ScenarioResult{}, false
}

func classify(err error) (Outcome, string) {
	if err == nil {
		return OutcomePassed, ""
	}
	var skip *Skipped
	if errors.As(err, &skip) {
		return OutcomeSkipped, skip.Reason
	}
	return OutcomeFailed, err.Error()
}
