package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samvad-hq/petfriends-qa/internal/config"
	"github.com/samvad-hq/petfriends-qa/internal/contract"
	"github.com/samvad-hq/petfriends-qa/internal/fixtures"
	"github.com/samvad-hq/petfriends-qa/internal/logger"
	"github.com/samvad-hq/petfriends-qa/internal/storage"
	"github.com/samvad-hq/petfriends-qa/pkg/httpclient"
	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
	"github.com/samvad-hq/petfriends-qa/pkg/reporters"
)

const tracerName = "github.com/samvad-hq/petfriends-qa/internal/app"

// Checker represents the check runtime. It runs the contract scenarios against the
// configured deployment once or on an interval, publishes each report and keeps the
// created-pet ledger.
type Checker struct {
	cfg       *config.Config
	client    *petfriends.Client
	probe     httpclient.Client
	runner    *contract.Service
	scenarios []contract.Scenario
	fanout    *reporters.Fanout
	interval  time.Duration
	log       logger.Logger
	store     storage.Store
}

// CheckerOption customizes a Checker.
type CheckerOption func(*checkerOptions)

type checkerOptions struct {
	scenarioIDs []string
	clientOpts  []petfriends.Option
}

// WithScenarioIDs restricts the run to the listed scenarios.
func WithScenarioIDs(ids ...string) CheckerOption {
	return func(o *checkerOptions) {
		o.scenarioIDs = append(o.scenarioIDs, ids...)
	}
}

// WithClientOptions passes extra options to the API client.
func WithClientOptions(opts ...petfriends.Option) CheckerOption {
	return func(o *checkerOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// NewChecker builds a checker runtime from config files.
func NewChecker(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...CheckerOption) (*Checker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var o checkerOptions
	for _, opt := range opts {
		opt(&o)
	}

	imagesDir := filepath.Join(filepath.Dir(cfg.FixturesFile), "images")
	fx, err := fixtures.LoadOrDefault(cfg.FixturesFile, imagesDir)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	log.InfoObj("fixtures loaded", "fixtures_meta", map[string]any{
		"file":         cfg.FixturesFile,
		"pets":         len(fx.Pets),
		"invalid_pets": len(fx.InvalidPets),
	})

	fanout, err := buildReporters(ctx, cfg.ReportersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := openLedger(cfg, log)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	client := newClient(cfg, log, o.clientOpts...)
	runner, err := contract.NewService(contract.Config{
		Client:   client,
		Account:  contract.Credentials{Email: cfg.ValidEmail, Password: cfg.ValidPassword},
		Foreign:  contract.Credentials{Email: cfg.ForeignEmail, Password: cfg.ForeignPassword},
		Fixtures: fx,
		Ledger:   store,
		Log:      log,
	})
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("init contract runner: %w", err)
	}

	scenarios := contract.Select(contract.DefaultScenarios(), o.scenarioIDs...)
	if len(scenarios) == 0 {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("no scenarios selected from %v", o.scenarioIDs)
	}

	return &Checker{
		cfg:       cfg,
		client:    client,
		probe:     httpclient.NewRestyClient(cfg.RequestTimeout),
		runner:    runner,
		scenarios: scenarios,
		fanout:    fanout,
		interval:  cfg.CheckInterval,
		log:       log,
		store:     store,
	}, nil
}

// Run performs a check pass, then repeats on the configured interval until the context is
// cancelled. With no interval it returns after the first pass. The returned report is the
// latest one; the error reflects that pass.
func (c *Checker) Run(ctx context.Context) (contract.Report, error) {
	if c == nil || c.runner == nil {
		return contract.Report{}, fmt.Errorf("checker is not initialized")
	}
	defer c.close()

	if err := c.preflight(ctx); err != nil {
		return contract.Report{}, err
	}

	c.log.InfoObj("checker starting", "checker_state", map[string]any{
		"base_url":        c.client.BaseURL(),
		"scenarios_count": len(c.scenarios),
		"reporters_count": c.fanout.Size(),
		"interval":        c.interval.String(),
	})

	report, err := c.runOnce(ctx)
	if c.interval <= 0 {
		return report, err
	}
	if err != nil {
		c.log.ErrorObj("initial check failed", "error", err.Error())
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.InfoObj("checker loop exiting", "reason", ctx.Err().Error())
			return report, nil
		case <-ticker.C:
			report, err = c.runOnce(ctx)
			if err != nil {
				c.log.ErrorObj("scheduled check failed", "error", err.Error())
			}
		}
	}
}

// preflight confirms the base URL answers at all, so a dead deployment is reported once
// instead of as a failure per scenario.
func (c *Checker) preflight(ctx context.Context) error {
	res, err := httpclient.Probe(ctx, c.probe, c.client.BaseURL())
	if err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	c.log.DebugObj("preflight completed", "preflight", map[string]any{
		"url":        res.URL,
		"status":     res.Status,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	})
	return nil
}

// runOnce runs every scenario, publishes the report and returns the scenario failures.
func (c *Checker) runOnce(ctx context.Context) (contract.Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "check.run")
	defer span.End()

	report, runErr := c.runner.Run(ctx, c.scenarios)
	passed, failed, skipped := report.Totals()
	span.SetAttributes(
		attribute.String("check.run_id", report.RunID),
		attribute.Int("check.passed", passed),
		attribute.Int("check.failed", failed),
		attribute.Int("check.skipped", skipped),
	)
	if runErr != nil {
		span.SetStatus(codes.Error, "scenarios failed")
	}

	delivered, pubErr := c.fanout.Publish(ctx, eventFromReport(report))
	if pubErr != nil {
		c.log.WarnObj("report publish incomplete", "publish_error", map[string]any{
			"delivered": delivered,
			"error":     pubErr.Error(),
		})
	}

	return report, runErr
}

func (c *Checker) close() {
	if c == nil {
		return
	}
	if err := c.fanout.Close(); err != nil {
		c.log.ErrorObj("reporters close failed", "error", err.Error())
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}

func eventFromReport(r contract.Report) reporters.Event {
	outcomes := make([]reporters.ScenarioOutcome, 0, len(r.Results))
	for _, res := range r.Results {
		outcomes = append(outcomes, reporters.ScenarioOutcome{
			ID:         res.ID,
			Outcome:    string(res.Outcome),
			DurationMs: res.Duration.Milliseconds(),
			Message:    res.Message,
		})
	}
	evt := reporters.NewEvent(r.RunID, r.BaseURL, r.StartedAt, r.FinishedAt, outcomes)
	evt.CleanupErrors = r.CleanupErrors
	return evt
}

func newClient(cfg *config.Config, log logger.Logger, extra ...petfriends.Option) *petfriends.Client {
	opts := []petfriends.Option{
		petfriends.WithTimeout(cfg.RequestTimeout),
		petfriends.WithLogger(log),
		petfriends.WithUserAgent(cfg.AppName + "/1.0"),
	}
	if logger.S != nil {
		opts = append(opts, petfriends.WithRestyLogger(logger.S))
	}
	return petfriends.New(cfg.BaseURL, append(opts, extra...)...)
}

func buildReporters(ctx context.Context, path string, log logger.Logger) (*reporters.Fanout, error) {
	reg, err := reporters.LoadRegistry(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WarnObj("reporters file not found; reports stay local", "reporters_file", path)
		return reporters.NewFanout(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load reporters registry: %w", err)
	}

	enabled := reg.Enabled()
	reps, err := reporters.BuildAll(ctx, reporters.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build reporters: %w", err)
	}
	summaries := make([]map[string]string, 0, len(enabled))
	for _, r := range enabled {
		summaries = append(summaries, map[string]string{"id": r.ID, "type": r.Type})
	}
	log.InfoObj("reporters registry loaded", "reporters_meta", map[string]any{
		"count":     len(summaries),
		"reporters": summaries,
	})
	return reporters.NewFanout(reps), nil
}

func openLedger(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	store, err := storage.NewStore(cfg.LedgerType, cfg.LedgerPath, storage.Options{EntryTTL: cfg.LedgerTTL})
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	log.InfoObj("ledger initialized", "ledger_config", map[string]any{
		"type":        cfg.LedgerType,
		"path":        cfg.LedgerPath,
		"ttl_seconds": int(cfg.LedgerTTL.Seconds()),
	})
	return store, nil
}
