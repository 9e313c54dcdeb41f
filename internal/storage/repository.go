// Package storage keeps a local SQLite mirror of the published statistics.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cardstats/internal/core"
	"cardstats/internal/source"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ source.Source = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Banks(ctx context.Context) ([]core.Bank, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM banks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	banks := []core.Bank{}
	for rows.Next() {
		var b core.Bank
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

func (r *SQLiteRepository) Index(ctx context.Context) ([]core.MonthIndexEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT year, month FROM month_index ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list month index: %w", err)
	}
	defer rows.Close()

	index := []core.MonthIndexEntry{}
	for rows.Next() {
		var e core.MonthIndexEntry
		if err := rows.Scan(&e.Year, &e.Month); err != nil {
			return nil, fmt.Errorf("scan month index: %w", err)
		}
		index = append(index, e)
	}
	return index, rows.Err()
}

// Month returns the mirrored records of a month. A month that was never
// synced is reported as a missing resource.
func (r *SQLiteRepository) Month(ctx context.Context, year, month int) ([]core.StatRecord, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM synced_months WHERE year = ? AND month = ?`, year, month).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFound(core.MonthPath(year, month))
	}
	if err != nil {
		return nil, fmt.Errorf("check month %s: %w", core.MonthLabel(year, month), err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT bank_id, credit_cards_outstanding, debit_cards_outstanding, cc_pos_value, dc_pos_value
		FROM stat_records
		WHERE year = ? AND month = ?
		ORDER BY position`, year, month)
	if err != nil {
		return nil, fmt.Errorf("list records %s: %w", core.MonthLabel(year, month), err)
	}
	defer rows.Close()

	records := []core.StatRecord{}
	for rows.Next() {
		var (
			rec            = core.StatRecord{Year: year, Month: month}
			cc, dc, cv, dv sql.NullFloat64
		)
		if err := rows.Scan(&rec.BankID, &cc, &dc, &cv, &dv); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.CreditCardsOutstanding = fromNull(cc)
		rec.DebitCardsOutstanding = fromNull(dc)
		rec.CCPOSValue = fromNull(cv)
		rec.DCPOSValue = fromNull(dv)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ReplaceBanks swaps the bank directory.
func (r *SQLiteRepository) ReplaceBanks(ctx context.Context, banks []core.Bank) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM banks`); err != nil {
			return fmt.Errorf("clear banks: %w", err)
		}
		for i, b := range banks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO banks (id, name, position) VALUES (?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
				string(b.ID), b.Name, i); err != nil {
				return fmt.Errorf("insert bank %s: %w", b.ID, err)
			}
		}
		return nil
	})
}

// ReplaceIndex swaps the month index. Months that left the index lose their
// mirrored records.
func (r *SQLiteRepository) ReplaceIndex(ctx context.Context, index []core.MonthIndexEntry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM month_index`); err != nil {
			return fmt.Errorf("clear month index: %w", err)
		}
		for i, e := range index {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("index entry %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO month_index (year, month, position) VALUES (?, ?, ?)`,
				e.Year, e.Month, i); err != nil {
				return fmt.Errorf("insert index entry %s: %w", e.Label(), err)
			}
		}
		for _, q := range []string{
			`DELETE FROM stat_records WHERE (year, month) NOT IN (SELECT year, month FROM month_index)`,
			`DELETE FROM synced_months WHERE (year, month) NOT IN (SELECT year, month FROM month_index)`,
		} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("prune months: %w", err)
			}
		}
		return nil
	})
}

// ReplaceMonth stores the records of one month and marks it synced.
func (r *SQLiteRepository) ReplaceMonth(ctx context.Context, year, month int, records []core.StatRecord) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM stat_records WHERE year = ? AND month = ?`, year, month); err != nil {
			return fmt.Errorf("clear month: %w", err)
		}
		for i, rec := range records {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO stat_records
					(year, month, position, bank_id, credit_cards_outstanding, debit_cards_outstanding, cc_pos_value, dc_pos_value)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				year, month, i, string(rec.BankID),
				toNull(rec.CreditCardsOutstanding), toNull(rec.DebitCardsOutstanding),
				toNull(rec.CCPOSValue), toNull(rec.DCPOSValue)); err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO synced_months (year, month, synced_at) VALUES (?, ?, ?)
			ON CONFLICT(year, month) DO UPDATE SET synced_at = excluded.synced_at`,
			year, month, r.now().UTC()); err != nil {
			return fmt.Errorf("mark synced: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace month %s: %w", core.MonthLabel(year, month), err)
	}

	slog.InfoContext(ctx, "Month mirrored",
		"year", year, "month", month, "records", len(records))
	return nil
}

// Counts summarizes the mirror contents.
type Counts struct {
	Banks        int
	Months       int
	SyncedMonths int
	Records      int
	LastSync     time.Time
}

func (r *SQLiteRepository) Counts(ctx context.Context) (Counts, error) {
	var (
		c    Counts
		last sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM banks),
			(SELECT COUNT(*) FROM month_index),
			(SELECT COUNT(*) FROM synced_months),
			(SELECT COUNT(*) FROM stat_records),
			(SELECT MAX(synced_at) FROM synced_months)`).
		Scan(&c.Banks, &c.Months, &c.SyncedMonths, &c.Records, &last)
	if err != nil {
		return Counts{}, fmt.Errorf("count mirror: %w", err)
	}
	if last.Valid {
		c.LastSync = parseTimestamp(last.String)
	}
	return c, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return core.Float(v.Float64)
}

// parseTimestamp reads the text form modernc stores for time.Time values.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
