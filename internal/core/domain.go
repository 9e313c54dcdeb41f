package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type (
	// BankID identifies a bank. Published files use numeric ids, the ETL
	// envelope uses bank names; both decode into the same string form.
	BankID string

	Bank struct {
		ID   BankID `json:"id"`
		Name string `json:"name"`
	}

	// MonthIndexEntry names one month for which a statistics file exists.
	MonthIndexEntry struct {
		Year  int `json:"year"`
		Month int `json:"month"` // 1-12
	}

	// StatRecord is one bank's figures for one month. Missing figures are nil
	// and count as zero when charted.
	StatRecord struct {
		BankID                 BankID   `json:"bank_id"`
		Year                   int      `json:"year"`
		Month                  int      `json:"month"`
		CreditCardsOutstanding *float64 `json:"credit_cards_outstanding,omitempty"`
		DebitCardsOutstanding  *float64 `json:"debit_cards_outstanding,omitempty"`
		CCPOSValue             *float64 `json:"cc_pos_value,omitempty"`
		DCPOSValue             *float64 `json:"dc_pos_value,omitempty"`
	}

	// ChartSeries is the label axis plus two value series of one chart.
	ChartSeries struct {
		Labels  []string  `json:"labels"`
		SeriesA []float64 `json:"series_a"`
		SeriesB []float64 `json:"series_b"`
	}

	// ChartData holds the sorted labels and the four derived series.
	ChartData struct {
		Labels      []string
		CreditCards []float64
		DebitCards  []float64
		CreditValue []float64
		DebitValue  []float64
	}
)

var (
	ErrInvalidYear  = errors.New("invalid year")
	ErrInvalidMonth = errors.New("invalid month")
	ErrEmptyBankID  = errors.New("empty bank id")
)

// UnmarshalJSON accepts both JSON numbers and JSON strings.
func (id *BankID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = BankID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("bank id: %w", err)
	}
	*id = BankID(n.String())
	return nil
}

func (id BankID) String() string { return string(id) }

func (e MonthIndexEntry) Validate() error {
	if e.Year < 1 {
		return ErrInvalidYear
	}
	if e.Month < 1 || e.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Label returns the chart label "YYYY-MM".
func (e MonthIndexEntry) Label() string {
	return MonthLabel(e.Year, e.Month)
}

func (b Bank) Validate() error {
	if strings.TrimSpace(string(b.ID)) == "" {
		return ErrEmptyBankID
	}
	return nil
}

// Label returns the chart label of the record's month.
func (r StatRecord) Label() string {
	return MonthLabel(r.Year, r.Month)
}

// Ordinal orders records by month: year*12+month.
func (r StatRecord) Ordinal() int {
	return r.Year*12 + r.Month
}

// MonthLabel formats a year and month as "YYYY-MM".
func MonthLabel(year, month int) string {
	return strconv.Itoa(year) + "-" + fmt.Sprintf("%02d", month)
}

// Value dereferences an optional figure, treating nil as zero.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Float returns a pointer to f, for building records in code.
func Float(f float64) *float64 {
	return &f
}

// Cards returns the outstanding cards chart.
func (d ChartData) Cards() ChartSeries {
	return ChartSeries{Labels: d.Labels, SeriesA: d.CreditCards, SeriesB: d.DebitCards}
}

// Values returns the POS transaction value chart.
func (d ChartData) Values() ChartSeries {
	return ChartSeries{Labels: d.Labels, SeriesA: d.CreditValue, SeriesB: d.DebitValue}
}

// Len reports the number of labels.
func (d ChartData) Len() int {
	return len(d.Labels)
}
