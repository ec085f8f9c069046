package reports_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gate/internal/adapters/reports"
	"go.trai.ch/gate/internal/core/domain"
)

func sampleReport(id string) *domain.Report {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Report{
		ID:          id,
		Fingerprint: "00000000deadbeef",
		Requested:   []string{"test"},
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
		Success:     false,
		Targets: []domain.TargetReport{
			{Name: "compile", Status: domain.StatusSucceeded, DurationMS: 1200},
			{Name: "test", Status: domain.StatusFailed, DurationMS: 1800, Error: "exit status 1"},
		},
	}
}

func TestStore_SaveAndLatest(t *testing.T) {
	root := t.TempDir()
	store := reports.NewStore()

	require.NoError(t, store.Save(root, sampleReport("run-1")))
	require.NoError(t, store.Save(root, sampleReport("run-2")))

	got, err := store.Latest(root)
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.ID)
	assert.Equal(t, sampleReport("run-2").Targets, got.Targets)
	assert.True(t, got.StartedAt.Equal(sampleReport("run-2").StartedAt))

	dir := filepath.Join(root, ".gate", "reports")
	assert.FileExists(t, filepath.Join(dir, "run-1.json"))
	assert.FileExists(t, filepath.Join(dir, "run-2.json"))
	assert.FileExists(t, filepath.Join(dir, "latest.json"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temporary files are left behind")
}

func TestStore_LatestNotFound(t *testing.T) {
	_, err := reports.NewStore().Latest(t.TempDir())
	require.ErrorIs(t, err, domain.ErrReportNotFound)
}

func TestStore_LatestCorrupt(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".gate", "reports")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latest.json"), []byte("{"), 0o600))

	_, err := reports.NewStore().Latest(root)
	require.ErrorIs(t, err, domain.ErrReportReadFailed)
}

func TestStore_Clean(t *testing.T) {
	root := t.TempDir()
	store := reports.NewStore()
	require.NoError(t, store.Save(root, sampleReport("run-1")))

	require.NoError(t, store.Clean(root))
	assert.NoDirExists(t, filepath.Join(root, ".gate"))

	require.NoError(t, store.Clean(root), "cleaning twice is fine")
}
