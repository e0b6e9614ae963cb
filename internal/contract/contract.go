// Package contract runs behavioral checks against a PetFriends deployment. Each scenario
// exercises the API through petfriends.Client and reports passed, failed or skipped; pets
// created along the way are tracked in the ledger and deleted when the run ends.
package contract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/petfriends-qa/internal/fixtures"
	"github.com/samvad-hq/petfriends-qa/internal/logger"
	"github.com/samvad-hq/petfriends-qa/internal/storage"
	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
)

// Credentials is an account on the service.
type Credentials struct {
	Email    string
	Password string
}

// Valid reports whether both fields are set.
func (c Credentials) Valid() bool {
	return c.Email != "" && c.Password != ""
}

// Scenario is one named check.
type Scenario struct {
	ID          string
	Description string
	// NeedsAccount marks scenarios that are skipped when no primary account is configured.
	NeedsAccount bool
	Run          func(ctx context.Context, env *Env) error
}

// Env is the state shared by the scenarios of one run.
type Env struct {
	Client   *petfriends.Client
	Account  Credentials
	Foreign  Credentials
	Fixtures *fixtures.Set
	Ledger   storage.Store
	Log      logger.Logger
	RunID    string

	mu      sync.Mutex
	keys    map[string]string
	created []created
}

type created struct {
	owner Credentials
	petID string
}

// Key authenticates account once per run and returns its key.
func (e *Env) Key(ctx context.Context, account Credentials) (string, error) {
	e.mu.Lock()
	if key, ok := e.keys[account.Email]; ok {
		e.mu.Unlock()
		return key, nil
	}
	e.mu.Unlock()

	res, err := e.Client.Authenticate(ctx, account.Email, account.Password)
	if err != nil {
		return "", err
	}
	key, ok := res.Body.Key()
	if res.Status != 200 || !ok {
		return "", failf(res, "authenticate %s: expected 200 with a key", account.Email)
	}

	e.mu.Lock()
	if e.keys == nil {
		e.keys = make(map[string]string)
	}
	e.keys[account.Email] = key
	e.mu.Unlock()
	return key, nil
}

// Track records a pet created by owner so it is deleted when the run ends.
func (e *Env) Track(owner Credentials, petID string) {
	if petID == "" {
		return
	}
	e.mu.Lock()
	e.created = append(e.created, created{owner: owner, petID: petID})
	e.mu.Unlock()

	if err := e.Ledger.Record(storage.Entry{PetID: petID, Owner: owner.Email, RunID: e.RunID}); err != nil {
		e.Log.WarnObj("ledger record failed", "ledger_error", map[string]any{
			"pet_id": petID,
			"error":  err.Error(),
		})
	}
}

// Forget drops a pet that a scenario already deleted.
func (e *Env) Forget(petID string) {
	e.mu.Lock()
	kept := e.created[:0]
	for _, c := range e.created {
		if c.petID != petID {
			kept = append(kept, c)
		}
	}
	e.created = kept
	e.mu.Unlock()

	if err := e.Ledger.Forget(petID); err != nil {
		e.Log.WarnObj("ledger forget failed", "ledger_error", map[string]any{
			"pet_id": petID,
			"error":  err.Error(),
		})
	}
}

// cleanup deletes every pet still tracked by this run.
func (e *Env) cleanup(ctx context.Context) []string {
	e.mu.Lock()
	pending := append([]created(nil), e.created...)
	e.mu.Unlock()

	var problems []string
	for _, c := range pending {
		if err := e.deleteTracked(ctx, c); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", c.petID, err))
			continue
		}
		e.Forget(c.petID)
	}
	return problems
}

func (e *Env) deleteTracked(ctx context.Context, c created) error {
	key, err := e.Key(ctx, c.owner)
	if err != nil {
		return err
	}
	res, err := e.Client.DeletePet(ctx, key, c.petID)
	if err != nil {
		return err
	}
	if !res.OK() {
		return failf(res, "delete pet")
	}
	return nil
}

// Service runs scenarios sequentially against one deployment.
type Service struct {
	client   *petfriends.Client
	account  Credentials
	foreign  Credentials
	fixtures *fixtures.Set
	ledger   storage.Store
	log      logger.Logger
	now      func() time.Time
}

// Config wires a Service.
type Config struct {
	Client   *petfriends.Client
	Account  Credentials
	Foreign  Credentials
	Fixtures *fixtures.Set
	Ledger   storage.Store
	Log      logger.Logger
}

// NewService validates cfg and returns a runner.
func NewService(cfg Config) (*Service, error) {
	if cfg.Client == nil {
		return nil, errors.New("contract service requires a client")
	}
	if cfg.Fixtures == nil {
		return nil, errors.New("contract service requires fixtures")
	}
	if cfg.Ledger == nil {
		cfg.Ledger = storage.Noop()
	}
	if cfg.Log == nil {
		cfg.Log = logger.NopLogger{}
	}
	return &Service{
		client:   cfg.Client,
		account:  cfg.Account,
		foreign:  cfg.Foreign,
		fixtures: cfg.Fixtures,
		ledger:   cfg.Ledger,
		log:      cfg.Log,
		now:      time.Now,
	}, nil
}

// Run executes scenarios in order and deletes the pets they created. The returned error
// joins every scenario failure; skipped scenarios are not errors.
func (s *Service) Run(ctx context.Context, scenarios []Scenario) (Report, error) {
	if s == nil || s.client == nil {
		return Report{}, fmt.Errorf("contract service is not initialized")
	}

	env := &Env{
		Client:   s.client,
		Account:  s.account,
		Foreign:  s.foreign,
		Fixtures: s.fixtures,
		Ledger:   s.ledger,
		Log:      s.log,
		RunID:    uuid.NewString(),
	}
	report := Report{
		RunID:     env.RunID,
		BaseURL:   s.client.BaseURL(),
		StartedAt: s.now().UTC(),
		Results:   make([]ScenarioResult, 0, len(scenarios)),
	}

	var errs []error
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.runScenario(ctx, env, sc)
		report.Results = append(report.Results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}

	cleanupCtx := context.WithoutCancel(ctx)
	report.CleanupErrors = env.cleanup(cleanupCtx)
	if len(report.CleanupErrors) > 0 {
		s.log.WarnObj("created pets left behind", "cleanup_errors", report.CleanupErrors)
	}
	report.FinishedAt = s.now().UTC()

	passed, failed, skipped := report.Totals()
	s.log.InfoObj("contract run completed", "run_summary", map[string]any{
		"run_id":  report.RunID,
		"passed":  passed,
		"failed":  failed,
		"skipped": skipped,
	})

	return report, errors.Join(errs...)
}

func (s *Service) runScenario(ctx context.Context, env *Env, sc Scenario) (ScenarioResult, error) {
	start := s.now()
	var err error
	if sc.NeedsAccount && !env.Account.Valid() {
		err = Skip("no account configured")
	} else if sc.Run == nil {
		err = Skip("scenario has no body")
	} else {
		err = sc.Run(ctx, env)
	}

	var f *Failure
	if errors.As(err, &f) && f.Scenario == "" {
		f.Scenario = sc.ID
	}

	outcome, msg := classify(err)
	res := ScenarioResult{
		ID:          sc.ID,
		Description: sc.Description,
		Outcome:     outcome,
		Duration:    s.now().Sub(start),
		Message:     msg,
	}

	fields := map[string]any{
		"id":          sc.ID,
		"outcome":     string(outcome),
		"duration_ms": res.Duration.Milliseconds(),
	}
	switch outcome {
	case OutcomeFailed:
		fields["error"] = msg
		s.log.ErrorObj("scenario failed", "scenario", fields)
		if f == nil {
			return res, fmt.Errorf("%s: %w", sc.ID, err)
		}
		return res, err
	case OutcomeSkipped:
		fields["reason"] = msg
		s.log.WarnObj("scenario skipped", "scenario", fields)
	default:
		s.log.InfoObj("scenario passed", "scenario", fields)
	}
	return res, nil
}
