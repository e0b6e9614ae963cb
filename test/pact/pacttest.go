//go:build pact
// +build pact

// Package pacttest holds names and paths shared by the PetFriends pact tests.
package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "petfriends-api"
	ConsumerName = "petfriends-qa"

	StateAccountExists = "account qa@example.com exists"
	StateOwnPetExists  = "qa@example.com owns pet " + OwnPetID
)

const (
	Email    = "qa@example.com"
	Password = "pact-pass"
	AuthKey  = "ea738148a1f19838e1c5d1413877f3691a3731380e733e877b0ae729"
	OwnPetID = "7d5bd0d5-3a5e-4f2e-8c3b-1a6a2f0c9b11"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	return mkdir(t, filepath.Join(projectRoot(t), "pacts"))
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	return mkdir(t, filepath.Join(projectRoot(t), "bin", "pact-logs"))
}

func mkdir(t testing.TB, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create %s: %v", dir, err)
	}
	return dir
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
