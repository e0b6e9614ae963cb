package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/petfriends-qa/internal/logger"
	"github.com/samvad-hq/petfriends-qa/internal/storage"
	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
)

// SweepResult counts what a sweep did.
type SweepResult struct {
	Deleted int `json:"deleted"`
	// Missing were no longer listed and were dropped from the ledger.
	Missing int `json:"missing"`
	// Skipped belong to owners without configured credentials.
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Sweep deletes every pending ledger entry owned by one of accounts. Entries whose pet is
// already gone are forgotten as well.
func Sweep(ctx context.Context, client *petfriends.Client, ledger storage.Store, accounts []Credentials, log logger.Logger) (SweepResult, error) {
	if client == nil || ledger == nil {
		return SweepResult{}, errors.New("sweep requires a client and a ledger")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	pending, err := ledger.Pending("")
	if err != nil {
		return SweepResult{}, fmt.Errorf("read ledger: %w", err)
	}

	env := &Env{Client: client, Ledger: ledger, Log: log}
	byEmail := make(map[string]Credentials, len(accounts))
	for _, a := range accounts {
		if a.Valid() {
			byEmail[a.Email] = a
		}
	}

	var (
		result SweepResult
		errs   []error
	)
	for _, e := range pending {
		account, ok := byEmail[e.Owner]
		if !ok {
			result.Skipped++
			continue
		}
		gone, err := sweepOne(ctx, env, account, e.PetID)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("pet %s: %w", e.PetID, err))
			continue
		}
		if err := ledger.Forget(e.PetID); err != nil {
			errs = append(errs, fmt.Errorf("forget %s: %w", e.PetID, err))
		}
		if gone {
			result.Missing++
		} else {
			result.Deleted++
		}
	}

	log.InfoObj("ledger sweep completed", "sweep_result", result)
	return result, errors.Join(errs...)
}

// sweepOne deletes petID and confirms it is gone. gone is true when the pet was not listed
// before the delete.
func sweepOne(ctx context.Context, env *Env, account Credentials, petID string) (gone bool, err error) {
	key, err := env.Key(ctx, account)
	if err != nil {
		return false, err
	}
	mine, err := listPets(ctx, env, key, petfriends.FilterMine)
	if err != nil {
		return false, err
	}
	if _, ok := petfriends.FindPet(mine, petID); !ok {
		return true, nil
	}

	res, err := env.Client.DeletePet(ctx, key, petID)
	if err != nil {
		return false, err
	}
	if !res.OK() {
		return false, failf(res, "delete pet")
	}
	return false, nil
}
