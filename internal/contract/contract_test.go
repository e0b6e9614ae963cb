package contract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/petfriends-qa/internal/fakeservice"
	"github.com/samvad-hq/petfriends-qa/internal/fixtures"
	"github.com/samvad-hq/petfriends-qa/internal/storage"
	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
)

var (
	account = Credentials{Email: "qa@example.com", Password: "secret"}
	foreign = Credentials{Email: "other@example.com", Password: "other"}

	jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01}
)

func photoFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "images/cat.jpg", jpeg, 0o644))
	require.NoError(t, afero.WriteFile(fs, "images/another_cat.jpg", jpeg, 0o644))
	require.NoError(t, afero.WriteFile(fs, "images/text_file.txt", []byte("plain text"), 0o644))
	return fs
}

func newFake(t *testing.T) (*fakeservice.Service, *petfriends.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := fakeservice.New(
		fakeservice.WithUser(account.Email, account.Password),
		fakeservice.WithUser(foreign.Email, foreign.Password),
	)
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)
	return svc, petfriends.New(srv.URL, petfriends.WithFs(photoFs(t)))
}

func newLedger(t *testing.T) storage.Store {
	t.Helper()
	ledger, err := storage.NewStore("bbolt", filepath.Join(t.TempDir(), "ledger.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestDefaultScenariosPassAgainstFakeService(t *testing.T) {
	svc, client := newFake(t)
	ledger := newLedger(t)

	runner, err := NewService(Config{
		Client:   client,
		Account:  account,
		Foreign:  foreign,
		Fixtures: fixtures.Default("images"),
		Ledger:   ledger,
	})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), DefaultScenarios())
	require.NoError(t, err)

	passed, failed, skipped := report.Totals()
	assert.Equal(t, len(DefaultScenarios()), passed, "%+v", report.Results)
	assert.Zero(t, failed)
	assert.Zero(t, skipped)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, client.BaseURL(), report.BaseURL)
	assert.Empty(t, report.CleanupErrors)

	assert.Empty(t, svc.Pets(), "created pets must be deleted after the run")
	pending, err := ledger.Pending("")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestScenariosSkipWithoutAccount(t *testing.T) {
	_, client := newFake(t)

	runner, err := NewService(Config{Client: client, Fixtures: fixtures.Default("images")})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), DefaultScenarios())
	require.NoError(t, err)

	res, ok := report.Result(ScenarioAuthEmpty)
	require.True(t, ok)
	assert.Equal(t, OutcomePassed, res.Outcome)
	res, _ = report.Result(ScenarioForgedKey)
	assert.Equal(t, OutcomePassed, res.Outcome)
	res, _ = report.Result(ScenarioAddWithPhoto)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
}

func TestRunWithoutLedgerStillCleansUp(t *testing.T) {
	svc, client := newFake(t)

	runner, err := NewService(Config{Client: client, Account: account, Fixtures: fixtures.Default("images")})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), Select(DefaultScenarios(), ScenarioRoundTrip, ScenarioUpdateOwn))
	require.NoError(t, err)
	passed, _, _ := report.Totals()
	assert.Equal(t, 2, passed, "%+v", report.Results)
	assert.Empty(t, report.CleanupErrors)
	assert.Empty(t, svc.Pets())
}

func TestForeignUpdateSkippedWithoutForeignPet(t *testing.T) {
	_, client := newFake(t)

	runner, err := NewService(Config{Client: client, Account: account, Fixtures: fixtures.Default("images")})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), Select(DefaultScenarios(), ScenarioForeignUpdate))
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeSkipped, report.Results[0].Outcome)
}

func TestForeignUpdateUsesListedPet(t *testing.T) {
	svc, client := newFake(t)
	id := svc.Seed(foreign.Email, "Шарик", "пёс", "3")

	runner, err := NewService(Config{Client: client, Account: account, Fixtures: fixtures.Default("images")})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), Select(DefaultScenarios(), ScenarioForeignUpdate))
	require.NoError(t, err)
	assert.Equal(t, OutcomePassed, report.Results[0].Outcome)

	pets := svc.Pets()
	require.Len(t, pets, 1)
	assert.Equal(t, id, pets[0].ID)
	assert.Equal(t, "Шарик", pets[0].Name)
}

func TestForeignUpdateFailsWhenRejectionEchoesNewName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := fakeservice.New(
		fakeservice.WithUser(account.Email, account.Password),
		fakeservice.WithUser(foreign.Email, foreign.Password),
	)
	svc.Seed(foreign.Email, "Шарик", "пёс", "3")

	// Refuses the update but echoes the submitted name back.
	inner := svc.Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/pets/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"name": r.PostFormValue("name")})
			return
		}
		inner.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	runner, err := NewService(Config{Client: petfriends.New(srv.URL), Account: account, Fixtures: fixtures.Default("images")})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), Select(DefaultScenarios(), ScenarioForeignUpdate))
	require.Error(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeFailed, report.Results[0].Outcome)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, http.StatusForbidden, f.Status)
	assert.Contains(t, f.Message, "echoed")
}

func TestFailuresCarryScenarioAndResponse(t *testing.T) {
	// A service that hands out keys to anyone.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"key":"anything"}`)
	}))
	t.Cleanup(srv.Close)

	runner, err := NewService(Config{Client: petfriends.New(srv.URL), Fixtures: fixtures.Default("images")})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), Select(DefaultScenarios(), ScenarioAuthEmpty, ScenarioForgedKey))
	require.Error(t, err)
	assert.True(t, report.Failed())

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, ScenarioAuthEmpty, f.Scenario)
	assert.Equal(t, http.StatusOK, f.Status)
	assert.Contains(t, f.Body, "anything")

	res, _ := report.Result(ScenarioForgedKey)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestTransportErrorsFailScenarios(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	runner, err := NewService(Config{Client: petfriends.New(url), Fixtures: fixtures.Default("images")})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), Select(DefaultScenarios(), ScenarioAuthEmpty))
	require.Error(t, err)

	var terr *petfriends.TransportError
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, OutcomeFailed, report.Results[0].Outcome)
}

func TestSelectKeepsSuiteOrder(t *testing.T) {
	got := Select(DefaultScenarios(), ScenarioDeleteOwn, ScenarioAuthValid, "unknown")
	require.Len(t, got, 2)
	assert.Equal(t, ScenarioAuthValid, got[0].ID)
	assert.Equal(t, ScenarioDeleteOwn, got[1].ID)
	assert.Len(t, Select(DefaultScenarios()), len(DefaultScenarios()))
}

func TestSweepDeletesLedgerEntries(t *testing.T) {
	svc, client := newFake(t)
	ledger := newLedger(t)

	live := svc.Seed(account.Email, "Мурзик", "кот", "4")
	stranger := svc.Seed("stranger@example.com", "Барсик", "кот", "5")
	require.NoError(t, ledger.Record(storage.Entry{PetID: live, Owner: account.Email}))
	require.NoError(t, ledger.Record(storage.Entry{PetID: "already-gone", Owner: account.Email}))
	require.NoError(t, ledger.Record(storage.Entry{PetID: stranger, Owner: "stranger@example.com"}))

	result, err := Sweep(context.Background(), client, ledger, []Credentials{account}, nil)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Deleted: 1, Missing: 1, Skipped: 1}, result)

	pets := svc.Pets()
	require.Len(t, pets, 1)
	assert.Equal(t, stranger, pets[0].ID)

	pending, err := ledger.Pending("")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, stranger, pending[0].PetID)
}
