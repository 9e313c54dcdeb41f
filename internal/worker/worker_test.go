package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardstats/internal/amqp"
	"cardstats/internal/core"
)

type fakeSource struct {
	banks  []core.Bank
	index  []core.MonthIndexEntry
	months map[string][]core.StatRecord
}

func (f *fakeSource) Banks(context.Context) ([]core.Bank, error) { return f.banks, nil }

func (f *fakeSource) Index(context.Context) ([]core.MonthIndexEntry, error) { return f.index, nil }

func (f *fakeSource) Month(_ context.Context, year, month int) ([]core.StatRecord, error) {
	recs, ok := f.months[core.MonthLabel(year, month)]
	if !ok {
		return nil, core.NewNotFound(core.MonthPath(year, month))
	}
	return recs, nil
}

type fakeMirror struct {
	mu     sync.Mutex
	banks  []core.Bank
	index  []core.MonthIndexEntry
	months map[string]int
}

func (m *fakeMirror) ReplaceBanks(_ context.Context, b []core.Bank) error {
	m.banks = b
	return nil
}

func (m *fakeMirror) ReplaceIndex(_ context.Context, i []core.MonthIndexEntry) error {
	m.index = i
	return nil
}

func (m *fakeMirror) ReplaceMonth(_ context.Context, y, mo int, r []core.StatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.months == nil {
		m.months = map[string]int{}
	}
	m.months[core.MonthLabel(y, mo)] = len(r)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *fakePublisher) PublishRefresh(_ context.Context, y, m, _ int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, core.MonthLabel(y, m))
	return p.err
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		banks: []core.Bank{{ID: "1", Name: "A"}},
		index: []core.MonthIndexEntry{{Year: 2022, Month: 12}, {Year: 2023, Month: 1}, {Year: 2023, Month: 2}},
		months: map[string][]core.StatRecord{
			"2022-12": {{BankID: "1"}},
			"2023-01": {{BankID: "1"}, {BankID: "2"}},
			"2023-02": {{BankID: "1"}},
		},
	}
}

func TestSyncMirrorsEverything(t *testing.T) {
	mirror := &fakeMirror{}
	pub := &fakePublisher{}
	w := NewSyncWorker(newFakeSource(), mirror, pub, 2)

	report, err := w.Sync(context.Background(), core.AllYears())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Banks)
	assert.Len(t, report.Months, 3)
	assert.Equal(t, 4, report.Records)
	assert.Empty(t, report.Failed)
	assert.Equal(t, map[string]int{"2022-12": 1, "2023-01": 2, "2023-02": 1}, mirror.months)
	assert.Len(t, mirror.index, 3)
	assert.ElementsMatch(t, []string{"2022-12", "2023-01", "2023-02"}, pub.published)
}

func TestSyncYearFilterAndFailures(t *testing.T) {
	src := newFakeSource()
	delete(src.months, "2023-02")
	mirror := &fakeMirror{}
	w := NewSyncWorker(src, mirror, nil, 0)

	report, err := w.Sync(context.Background(), core.SpecificYear(2023))
	require.Error(t, err)

	fe, ok := core.AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, "data/2023-02.json", fe.Path)
	assert.Equal(t, []core.MonthIndexEntry{{Year: 2023, Month: 1}}, report.Months)
	assert.Contains(t, report.Failed, "2023-02")
	assert.Equal(t, map[string]int{"2023-01": 2}, mirror.months)
}

func TestSyncPublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	w := NewSyncWorker(newFakeSource(), &fakeMirror{}, pub, 1)

	report, err := w.Sync(context.Background(), core.SpecificYear(2022))
	require.NoError(t, err)
	assert.Len(t, report.Months, 1)
}

type fakeInvalidator struct{ months []string }

func (f *fakeInvalidator) InvalidateMonth(y, m int) {
	f.months = append(f.months, core.MonthLabel(y, m))
}

func TestRefreshWorkerInvalidates(t *testing.T) {
	inv := &fakeInvalidator{}
	w := NewRefreshWorker(inv)

	err := w.HandleRefreshMessage(context.Background(), amqp.NewMonthRefreshedMessage(2023, 4, 9))
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-04"}, inv.months)
}
