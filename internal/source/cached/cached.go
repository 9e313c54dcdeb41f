// Package cached wraps a Source with a read-through LRU cache.
package cached

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"cardstats/internal/cache"
	"cardstats/internal/core"
	"cardstats/internal/source"
)

const (
	banksKey = "banks"
	indexKey = "index"
)

type Source struct {
	next   source.Source
	banks  *cache.LRUCache[[]core.Bank]
	index  *cache.LRUCache[[]core.MonthIndexEntry]
	months *cache.LRUCache[[]core.StatRecord]
}

var _ source.Source = (*Source)(nil)

// New caches up to size months for ttl. Banks and index share the ttl.
func New(next source.Source, size int, ttl time.Duration) *Source {
	return &Source{
		next:   next,
		banks:  cache.NewLRUCache[[]core.Bank](1, ttl),
		index:  cache.NewLRUCache[[]core.MonthIndexEntry](1, ttl),
		months: cache.NewLRUCache[[]core.StatRecord](size, ttl),
	}
}

// Register adds the caches to a cleanup manager.
func (s *Source) Register(m *cache.Manager) {
	m.Register("banks", s.banks)
	m.Register("index", s.index)
	m.Register("months", s.months)
}

func monthKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Source) Banks(ctx context.Context) ([]core.Bank, error) {
	v, hit, err := s.banks.GetOrLoad(banksKey, func() ([]core.Bank, error) {
		return s.next.Banks(ctx)
	})
	if hit {
		slog.DebugContext(ctx, "Banks cache hit", "count", len(v))
	}
	return v, err
}

func (s *Source) Index(ctx context.Context) ([]core.MonthIndexEntry, error) {
	v, hit, err := s.index.GetOrLoad(indexKey, func() ([]core.MonthIndexEntry, error) {
		return s.next.Index(ctx)
	})
	if hit {
		slog.DebugContext(ctx, "Index cache hit", "count", len(v))
	}
	return v, err
}

// Month returns a copy so callers cannot mutate cached records.
func (s *Source) Month(ctx context.Context, year, month int) ([]core.StatRecord, error) {
	v, hit, err := s.months.GetOrLoad(monthKey(year, month), func() ([]core.StatRecord, error) {
		return s.next.Month(ctx, year, month)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		slog.DebugContext(ctx, "Month cache hit", "year", year, "month", month, "count", len(v))
	}
	out := make([]core.StatRecord, len(v))
	copy(out, v)
	return out, nil
}

// InvalidateMonth drops one month together with the banks and index, which a
// refreshed month may have changed.
func (s *Source) InvalidateMonth(year, month int) {
	s.months.Delete(monthKey(year, month))
	s.banks.Delete(banksKey)
	s.index.Delete(indexKey)
}

// InvalidateAll drops every cached resource.
func (s *Source) InvalidateAll() {
	s.months.Purge()
	s.banks.Purge()
	s.index.Purge()
}
