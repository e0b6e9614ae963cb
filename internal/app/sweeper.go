package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/petfriends-qa/internal/config"
	"github.com/samvad-hq/petfriends-qa/internal/contract"
	"github.com/samvad-hq/petfriends-qa/internal/logger"
	"github.com/samvad-hq/petfriends-qa/internal/storage"
	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
)

// Sweeper deletes pets left in the ledger by runs that never finished their cleanup.
type Sweeper struct {
	client   *petfriends.Client
	store    storage.Store
	accounts []contract.Credentials
	log      logger.Logger
}

// NewSweeper opens the ledger and builds the client from cfg.
func NewSweeper(cfg *config.Config, log logger.Logger, opts ...petfriends.Option) (*Sweeper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	store, err := openLedger(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		client: newClient(cfg, log, opts...),
		store:  store,
		accounts: []contract.Credentials{
			{Email: cfg.ValidEmail, Password: cfg.ValidPassword},
			{Email: cfg.ForeignEmail, Password: cfg.ForeignPassword},
		},
		log: log,
	}, nil
}

// Run sweeps once and closes the ledger.
func (s *Sweeper) Run(ctx context.Context) (contract.SweepResult, error) {
	if s == nil || s.store == nil {
		return contract.SweepResult{}, fmt.Errorf("sweeper is not initialized")
	}
	defer func() {
		if err := s.store.Close(); err != nil {
			s.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}()
	return contract.Sweep(ctx, s.client, s.store, s.accounts, s.log)
}
