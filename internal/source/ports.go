package source

import (
	"context"

	"cardstats/internal/core"
)

// Ports for the published statistics.
type (
	BankReader interface {
		// Banks returns the bank directory.
		Banks(ctx context.Context) ([]core.Bank, error)
	}

	IndexReader interface {
		// Index returns the months for which statistics exist.
		Index(ctx context.Context) ([]core.MonthIndexEntry, error)
	}

	MonthReader interface {
		// Month returns every bank's figures for one month.
		Month(ctx context.Context, year, month int) ([]core.StatRecord, error)
	}

	Source interface {
		BankReader
		IndexReader
		MonthReader
	}

	// Fetcher retrieves a raw resource by path. A non-success answer is
	// reported as *core.FetchError.
	Fetcher interface {
		Fetch(ctx context.Context, path string) ([]byte, error)
	}
)
