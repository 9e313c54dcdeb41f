package worker

import (
	"context"
	"log/slog"

	"cardstats/internal/amqp"
)

// Invalidator drops cached data for a month.
type Invalidator interface {
	InvalidateMonth(year, month int)
}

// RefreshWorker applies month refreshed messages to the dashboard's cache
type RefreshWorker struct {
	cache Invalidator
}

func NewRefreshWorker(cache Invalidator) *RefreshWorker {
	return &RefreshWorker{cache: cache}
}

// HandleRefreshMessage invalidates the refreshed month. It never fails, so
// the message is always acknowledged.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.MonthRefreshedMessage) error {
	w.cache.InvalidateMonth(msg.Year, msg.Month)
	slog.InfoContext(ctx, "Invalidated cached month",
		"year", msg.Year,
		"month", msg.Month,
		"records", msg.Records,
		"published_at", msg.Timestamp)
	return nil
}
