package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/samvad-hq/petfriends-qa/internal/app"
	"github.com/samvad-hq/petfriends-qa/internal/config"
	"github.com/samvad-hq/petfriends-qa/internal/logger"
	"github.com/samvad-hq/petfriends-qa/internal/observability"
)

var errChecksFailed = errors.New("checks failed")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "petcheck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("petcheck", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	scenarios := fs.StringSlice("scenario", nil, "run only these scenario ids (repeatable)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zl, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.New(zl.Desugar())

	logger.InfoObj("petcheck starting", "config", map[string]any{
		"app_name":       cfg.AppName,
		"env":            cfg.Env,
		"base_url":       cfg.BaseURL,
		"has_account":    cfg.HasCredentials(),
		"has_foreign":    cfg.HasForeignCredentials(),
		"interval":       cfg.CheckInterval.String(),
		"ledger_type":    cfg.LedgerType,
		"tracing":        cfg.Tracing,
		"fixtures_file":  cfg.FixturesFile,
		"reporters_file": cfg.ReportersFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, shutdown, err := observability.Init(ctx, observability.Settings{
		ServiceName: cfg.AppName,
		Environment: cfg.Env,
		Exporter:    cfg.Tracing,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.ErrorObj("tracing shutdown failed", "error", err.Error())
		}
	}()

	checker, err := app.NewChecker(ctx, cfg, log, app.WithScenarioIDs(*scenarios...))
	if err != nil {
		logger.ErrorObj("failed to initialize checker", "error", err.Error())
		return err
	}

	report, err := checker.Run(ctx)
	if err != nil {
		if report.RunID != "" {
			return fmt.Errorf("%w: %v", errChecksFailed, err)
		}
		return fmt.Errorf("checker run: %w", err)
	}
	return nil
}
