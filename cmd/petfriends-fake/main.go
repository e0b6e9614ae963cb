package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/samvad-hq/petfriends-qa/internal/config"
	"github.com/samvad-hq/petfriends-qa/internal/fakeservice"
	"github.com/samvad-hq/petfriends-qa/internal/logger"
	"github.com/samvad-hq/petfriends-qa/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "petfriends-fake: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("petfriends-fake", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	addr := fs.String("addr", ":8080", "listen address")
	users := fs.StringToString("user", nil, "extra account as email=password (repeatable)")
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
	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, shutdownTracing, err := observability.Init(ctx, observability.Settings{
		ServiceName: "petfriends-fake",
		Environment: cfg.Env,
		Exporter:    cfg.Tracing,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	opts := []fakeservice.Option{}
	accounts := map[string]string{}
	if cfg.HasCredentials() {
		accounts[cfg.ValidEmail] = cfg.ValidPassword
	}
	if cfg.HasForeignCredentials() {
		accounts[cfg.ForeignEmail] = cfg.ForeignPassword
	}
	for email, password := range *users {
		accounts[email] = password
	}
	emails := make([]string, 0, len(accounts))
	for email, password := range accounts {
		opts = append(opts, fakeservice.WithUser(email, password))
		emails = append(emails, email)
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           fakeservice.New(opts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.InfoObj("fake service listening", "fake_service", map[string]any{
		"addr":     *addr,
		"accounts": emails,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
