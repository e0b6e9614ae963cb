package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestBolt(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "ledger.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRecordsAndForgetsPets(t *testing.T) {
	store := openTestBolt(t, Options{})

	if err := store.Record(Entry{PetID: "p1", Owner: "a@example.com", RunID: "r1"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(Entry{PetID: "p2", Owner: "b@example.com", RunID: "r1"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	all, err := store.Pending("")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 pending entries, got %v err=%v", all, err)
	}

	mine, err := store.Pending("A@example.com")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(mine) != 1 || mine[0].PetID != "p1" || mine[0].RunID != "r1" {
		t.Fatalf("unexpected owner filter result %+v", mine)
	}

	if err := store.Forget("p1"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if err := store.Forget("unknown"); err != nil {
		t.Fatalf("Forget unknown: %v", err)
	}
	mine, _ = store.Pending("a@example.com")
	if len(mine) != 0 {
		t.Fatalf("expected p1 forgotten, got %+v", mine)
	}
}

func TestBoltStoreRejectsEmptyID(t *testing.T) {
	store := openTestBolt(t, Options{})
	if err := store.Record(Entry{PetID: "  "}); err == nil {
		t.Fatalf("expected error for empty pet id")
	}
}

func TestBoltStoreExpiresEntries(t *testing.T) {
	store := openTestBolt(t, Options{EntryTTL: time.Hour, CleanupInterval: time.Minute})

	base := time.Now()
	store.now = func() time.Time { return base }
	if err := store.Record(Entry{PetID: "old", Owner: "a@example.com"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	pending, err := store.Pending("")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected entry to expire, got %+v", pending)
	}

	var remaining int
	_ = store.db.View(func(tx *bolt.Tx) error {
		remaining = tx.Bucket([]byte(petBucket)).Stats().KeyN
		return nil
	})
	if remaining != 0 {
		t.Fatalf("expected cleanup to remove expired entry, %d left", remaining)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Record(Entry{PetID: "x"}); err != nil {
		t.Fatalf("noop store Record: %v", err)
	}
	if pending, _ := store.Pending(""); len(pending) != 0 {
		t.Fatalf("noop store should keep nothing")
	}
}

func TestNoopStoreKeepsNothing(t *testing.T) {
	store := Noop()
	if err := store.Record(Entry{PetID: "x", Owner: "qa@example.com"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Forget("x"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if pending, err := store.Pending("qa@example.com"); err != nil || len(pending) != 0 {
		t.Fatalf("Pending = %v, %v", pending, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
