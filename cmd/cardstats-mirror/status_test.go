package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardstats/internal/core"
	"cardstats/internal/storage"
)

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, "mirror.db", storage.Counts{
		Banks:        12,
		Months:       40,
		SyncedMonths: 39,
		Records:      12345,
		LastSync:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}, 1, false)

	out := buf.String()
	assert.Contains(t, out, "records:        12,345\n")
	assert.Contains(t, out, "schema version: 1\n")
	assert.Contains(t, out, "last sync:      2024-03-01T10:00:00Z\n")
}

func TestPrintStatusNeverSynced(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, "mirror.db", storage.Counts{}, 1, true)
	assert.Contains(t, buf.String(), "schema version: 1 (dirty)\n")
	assert.Contains(t, buf.String(), "last sync:      never\n")
}

func TestSyncAndStatusCommands(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "site")
	writeFixture(t, dataDir)
	dbPath := filepath.Join(dir, "mirror.db")

	t.Setenv("DATA_BACKEND", "files")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCmd()
	root.SetArgs([]string{"sync", "--db", dbPath})
	require.NoError(t, root.ExecuteContext(context.Background()))

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	recs, err := repo.Month(context.Background(), 2023, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, core.BankID("1"), recs[0].BankID)

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"status", "--db", dbPath})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "synced months:  1\n")
}

func TestSyncRejectsMirrorAsSource(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCmd()
	root.SetArgs([]string{"sync", "--db", filepath.Join(t.TempDir(), "m.db")})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
