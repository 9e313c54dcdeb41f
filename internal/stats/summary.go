package stats

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cardstats/internal/core"
)

// Summary describes the latest month of a chart.
type Summary struct {
	Label       string `json:"label"`
	CreditCards string `json:"credit_cards"`
	DebitCards  string `json:"debit_cards"`
	CreditValue string `json:"credit_value"`
	DebitValue  string `json:"debit_value"`
	Months      int    `json:"months"`
	Points      int    `json:"points"`
}

var printer = message.NewPrinter(language.English)

// FormatNumber groups thousands, dropping the fraction when it is zero.
func FormatNumber(v float64) string {
	if v == float64(int64(v)) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

// Summarize totals the figures of the last label. Several banks can share
// that label, so their figures are added up.
func Summarize(d core.ChartData) Summary {
	s := Summary{Points: d.Len(), Months: len(UniqueSorted(d.Labels))}
	if d.Len() == 0 {
		return s
	}
	last := d.Labels[d.Len()-1]
	var cc, dc, cv, dv float64
	for i := d.Len() - 1; i >= 0 && d.Labels[i] == last; i-- {
		cc += d.CreditCards[i]
		dc += d.DebitCards[i]
		cv += d.CreditValue[i]
		dv += d.DebitValue[i]
	}
	s.Label = last
	s.CreditCards = FormatNumber(cc)
	s.DebitCards = FormatNumber(dc)
	s.CreditValue = FormatNumber(cv)
	s.DebitValue = FormatNumber(dv)
	return s
}
