package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/smake/internal/adapters/cas"
	"go.trai.ch/smake/internal/core/domain"
)

func record(target string, status domain.UnitStatus) domain.BuildRecord {
	return domain.BuildRecord{
		RunID:      "run-1",
		Target:     target,
		Root:       "all",
		Status:     status,
		Duration:   1500 * time.Millisecond,
		FinishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SourceHash: "0123456789abcdef",
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "journal.json"))
	require.NoError(t, err)

	require.NoError(t, store.Put(record("lib", domain.UnitStatusCompleted)))

	got, err := store.Get("lib")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record("lib", domain.UnitStatusCompleted), *got)

	missing, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.json")

	store, err := cas.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(
		record("b", domain.UnitStatusCompleted),
		record("a", domain.UnitStatusFailed),
	))

	reopened, err := cas.Opener{}.Open(path)
	require.NoError(t, err)

	records, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Target)
	assert.Equal(t, domain.UnitStatusFailed, records[0].Status)
	assert.Equal(t, "b", records[1].Target)
	assert.True(t, records[1].FinishedAt.Equal(record("b", "").FinishedAt))

	_, err = os.Stat(path + ".tmp")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_PutReplacesPreviousRun(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "journal.json"))
	require.NoError(t, err)

	first := record("app", domain.UnitStatusFailed)
	second := record("app", domain.UnitStatusCompleted)
	second.RunID = "run-2"

	require.NoError(t, store.Put(first))
	require.NoError(t, store.Put(second))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "run-2", records[0].RunID)
}

func TestStore_NormalizesUnknownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": {"target": "x", "status": "RUNNING"}, "y": {"target": "y", "status": "bogus"}}`), 0o600))

	store, err := cas.NewStore(path)
	require.NoError(t, err)

	x, err := store.Get("x")
	require.NoError(t, err)
	assert.Equal(t, domain.UnitStatusRunning, x.Status)

	y, err := store.Get("y")
	require.NoError(t, err)
	assert.Equal(t, domain.UnitStatusQueued, y.Status)
}

func TestStore_CorruptJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := cas.NewStore(path)
	require.ErrorIs(t, err, domain.ErrJournalRead)
}

func TestStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	store, err := cas.NewStore(path)
	require.NoError(t, err)
	records, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}
