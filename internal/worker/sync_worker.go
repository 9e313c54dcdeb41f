package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"cardstats/internal/core"
	"cardstats/internal/source"
)

// Mirror is the store the sync worker writes into.
type Mirror interface {
	ReplaceBanks(ctx context.Context, banks []core.Bank) error
	ReplaceIndex(ctx context.Context, index []core.MonthIndexEntry) error
	ReplaceMonth(ctx context.Context, year, month int, records []core.StatRecord) error
}

// Publisher announces mirrored months.
type Publisher interface {
	PublishRefresh(ctx context.Context, year, month, records int) error
}

// SyncReport describes one sync run.
type SyncReport struct {
	Banks   int
	Months  []core.MonthIndexEntry
	Records int
	Failed  map[string]error
}

// SyncWorker copies the published statistics into the local mirror
type SyncWorker struct {
	src         source.Source
	mirror      Mirror
	publisher   Publisher
	concurrency int
}

// NewSyncWorker creates a worker. publisher may be nil.
func NewSyncWorker(src source.Source, mirror Mirror, publisher Publisher, concurrency int) *SyncWorker {
	if concurrency < 1 {
		concurrency = 4
	}
	return &SyncWorker{
		src:         src,
		mirror:      mirror,
		publisher:   publisher,
		concurrency: concurrency,
	}
}

// Sync mirrors the bank directory, the index and the selected months. A month
// that fails is reported and does not stop the others; the returned error
// joins every failure.
func (w *SyncWorker) Sync(ctx context.Context, year core.YearFilter) (SyncReport, error) {
	report := SyncReport{Failed: map[string]error{}}

	banks, err := w.src.Banks(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch banks: %w", err)
	}
	index, err := w.src.Index(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch index: %w", err)
	}
	if err := w.mirror.ReplaceBanks(ctx, banks); err != nil {
		return report, err
	}
	if err := w.mirror.ReplaceIndex(ctx, index); err != nil {
		return report, err
	}
	report.Banks = len(banks)

	var months []core.MonthIndexEntry
	for _, e := range index {
		if year.Matches(e.Year) {
			months = append(months, e)
		}
	}

	counts := make([]int, len(months))
	errs := make([]error, len(months))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, m := range months {
		g.Go(func() error {
			n, err := w.syncMonth(gctx, m)
			counts[i], errs[i] = n, err
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for i, m := range months {
		if errs[i] != nil {
			report.Failed[m.Label()] = errs[i]
			failures = append(failures, fmt.Errorf("%s: %w", m.Label(), errs[i]))
			continue
		}
		report.Months = append(report.Months, m)
		report.Records += counts[i]
	}

	slog.InfoContext(ctx, "Mirror sync finished",
		"banks", report.Banks,
		"months", len(report.Months),
		"records", report.Records,
		"failed", len(report.Failed))

	return report, errors.Join(failures...)
}

func (w *SyncWorker) syncMonth(ctx context.Context, m core.MonthIndexEntry) (int, error) {
	records, err := w.src.Month(ctx, m.Year, m.Month)
	if err != nil {
		return 0, err
	}
	if err := w.mirror.ReplaceMonth(ctx, m.Year, m.Month, records); err != nil {
		return 0, err
	}

	if w.publisher != nil {
		if err := w.publisher.PublishRefresh(ctx, m.Year, m.Month, len(records)); err != nil {
			// The month is mirrored; subscribers catch up on their next read.
			slog.WarnContext(ctx, "Failed to publish refresh message",
				"year", m.Year, "month", m.Month, "error", err)
		}
	}
	return len(records), nil
}
