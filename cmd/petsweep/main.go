package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/samvad-hq/petfriends-qa/internal/app"
	"github.com/samvad-hq/petfriends-qa/internal/config"
	"github.com/samvad-hq/petfriends-qa/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "petsweep: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("petsweep", pflag.ContinueOnError)
	config.RegisterFlags(fs)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper, err := app.NewSweeper(cfg, logger.New(zl.Desugar()))
	if err != nil {
		logger.ErrorObj("failed to initialize sweeper", "error", err.Error())
		return err
	}

	result, err := sweeper.Run(ctx)
	fmt.Printf("deleted=%d missing=%d skipped=%d failed=%d\n", result.Deleted, result.Missing, result.Skipped, result.Failed)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}
