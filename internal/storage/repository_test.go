package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardstats/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "mirror", "cardstats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	repo.Close()

	v, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, RunMigrations(path))
}

func TestBanksRoundTripKeepsOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	banks, err := repo.Banks(ctx)
	require.NoError(t, err)
	assert.Empty(t, banks)

	want := []core.Bank{{ID: "9", Name: "Zeta"}, {ID: "1", Name: "Alpha"}}
	require.NoError(t, repo.ReplaceBanks(ctx, want))
	require.NoError(t, repo.ReplaceBanks(ctx, want))

	banks, err = repo.Banks(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, banks)
}

func TestIndexAndMonths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	index := []core.MonthIndexEntry{{Year: 2023, Month: 2}, {Year: 2023, Month: 1}}
	require.NoError(t, repo.ReplaceIndex(ctx, index))

	got, err := repo.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, index, got)

	_, err = repo.Month(ctx, 2023, 1)
	fe, ok := core.AsFetchError(err)
	require.True(t, ok)
	assert.True(t, fe.NotFound())
	assert.Equal(t, "data/2023-01.json", fe.Path)

	records := []core.StatRecord{
		{BankID: "2", Year: 2023, Month: 1, CreditCardsOutstanding: core.Float(300)},
		{BankID: "1", Year: 2023, Month: 1, CreditCardsOutstanding: core.Float(100), DCPOSValue: core.Float(2.5)},
	}
	require.NoError(t, repo.ReplaceMonth(ctx, 2023, 1, records))

	recs, err := repo.Month(ctx, 2023, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, core.BankID("2"), recs[0].BankID)
	assert.Equal(t, 100.0, core.Value(recs[1].CreditCardsOutstanding))
	assert.Equal(t, 2.5, core.Value(recs[1].DCPOSValue))
	assert.Nil(t, recs[1].DebitCardsOutstanding)
	assert.Equal(t, 1, recs[1].Month)

	// Replacing a month drops its old rows.
	require.NoError(t, repo.ReplaceMonth(ctx, 2023, 1, records[:1]))
	recs, err = repo.Month(ctx, 2023, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	// An empty month is synced, not missing.
	require.NoError(t, repo.ReplaceMonth(ctx, 2023, 2, nil))
	recs, err = repo.Month(ctx, 2023, 2)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReplaceIndexPrunesRemovedMonths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceIndex(ctx, []core.MonthIndexEntry{{Year: 2023, Month: 1}, {Year: 2023, Month: 2}}))
	require.NoError(t, repo.ReplaceMonth(ctx, 2023, 1, []core.StatRecord{{BankID: "1"}}))
	require.NoError(t, repo.ReplaceMonth(ctx, 2023, 2, []core.StatRecord{{BankID: "1"}}))

	require.NoError(t, repo.ReplaceIndex(ctx, []core.MonthIndexEntry{{Year: 2023, Month: 2}}))

	_, err := repo.Month(ctx, 2023, 1)
	_, ok := core.AsFetchError(err)
	assert.True(t, ok)

	c, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Months)
	assert.Equal(t, 1, c.SyncedMonths)
	assert.Equal(t, 1, c.Records)
}

func TestReplaceIndexRejectsInvalidMonth(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.ReplaceIndex(context.Background(), []core.MonthIndexEntry{{Year: 2023, Month: 13}})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	synced := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	repo.now = func() time.Time { return synced }

	c, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, c)

	require.NoError(t, repo.ReplaceBanks(ctx, []core.Bank{{ID: "1", Name: "A"}}))
	require.NoError(t, repo.ReplaceIndex(ctx, []core.MonthIndexEntry{{Year: 2023, Month: 1}}))
	require.NoError(t, repo.ReplaceMonth(ctx, 2023, 1, []core.StatRecord{{BankID: "1"}, {BankID: "2"}}))

	c, err = repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Banks)
	assert.Equal(t, 1, c.Months)
	assert.Equal(t, 1, c.SyncedMonths)
	assert.Equal(t, 2, c.Records)
	assert.True(t, synced.Equal(c.LastSync), "LastSync = %v", c.LastSync)
}

func TestPing(t *testing.T) {
	assert.NoError(t, newTestRepo(t).Ping(context.Background()))
}
