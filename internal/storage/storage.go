// Package storage keeps a local ledger of pets created against a PetFriends deployment so
// they can be deleted even when the run that created them never got to clean up.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one created pet awaiting deletion.
type Entry struct {
	PetID     string    `json:"pet_id"`
	Owner     string    `json:"owner"`
	RunID     string    `json:"run_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store tracks created pet IDs.
type Store interface {
	Close() error
	// Record remembers a created pet. Recording an existing id refreshes it.
	Record(e Entry) error
	// Forget drops a pet once it is deleted.
	Forget(petID string) error
	// Pending lists unexpired entries for owner, oldest first. An empty owner lists all.
	Pending(owner string) ([]Entry, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return Noop(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// Noop returns a Store that records nothing.
func Noop() Store { return noopStore{} }

type noopStore struct{}

func (noopStore) Close() error                    { return nil }
func (noopStore) Record(Entry) error              { return nil }
func (noopStore) Forget(string) error             { return nil }
func (noopStore) Pending(string) ([]Entry, error) { return nil, nil }
