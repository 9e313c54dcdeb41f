package source

import (
	"context"

	"cardstats/internal/core"
)

// Reader turns a Fetcher into a Source by decoding the JSON resources.
type Reader struct {
	f Fetcher
}

var _ Source = (*Reader)(nil)

func NewReader(f Fetcher) *Reader {
	return &Reader{f: f}
}

func (r *Reader) Banks(ctx context.Context) ([]core.Bank, error) {
	data, err := r.f.Fetch(ctx, core.BanksPath)
	if err != nil {
		return nil, err
	}
	return DecodeBanks(data)
}

func (r *Reader) Index(ctx context.Context) ([]core.MonthIndexEntry, error) {
	data, err := r.f.Fetch(ctx, core.IndexPath)
	if err != nil {
		return nil, err
	}
	return DecodeIndex(data)
}

func (r *Reader) Month(ctx context.Context, year, month int) ([]core.StatRecord, error) {
	data, err := r.f.Fetch(ctx, core.MonthPath(year, month))
	if err != nil {
		return nil, err
	}
	return DecodeMonth(data, year, month)
}
