// Package stats merges monthly statistics into chart-ready series.
package stats

import (
	"cmp"
	"slices"

	"cardstats/internal/core"
)

// UniqueSorted returns the distinct values in ascending order. Numbers compare
// numerically, so 9 sorts before 10.
func UniqueSorted[T cmp.Ordered](values []T) []T {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

// Years returns the distinct years present in the index, ascending.
func Years(index []core.MonthIndexEntry) []int {
	years := make([]int, 0, len(index))
	for _, e := range index {
		years = append(years, e.Year)
	}
	return UniqueSorted(years)
}

// MonthsFor returns the index entries matching the year filter, in index order.
func MonthsFor(index []core.MonthIndexEntry, year core.YearFilter) []core.MonthIndexEntry {
	out := make([]core.MonthIndexEntry, 0, len(index))
	for _, e := range index {
		if year.Matches(e.Year) {
			out = append(out, e)
		}
	}
	return out
}

// FilterByBank keeps the records of the selected bank. It runs over data that
// was already fetched and never decides which months are fetched.
func FilterByBank(records []core.StatRecord, bank core.BankFilter) []core.StatRecord {
	if bank.IsAll() {
		return records
	}
	out := make([]core.StatRecord, 0, len(records))
	for _, r := range records {
		if bank.Matches(r.BankID) {
			out = append(out, r)
		}
	}
	return out
}

// SortRecords orders records by (year, month). Records of the same month keep
// their fetch order.
func SortRecords(records []core.StatRecord) []core.StatRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b core.StatRecord) int {
		return cmp.Compare(a.Ordinal(), b.Ordinal())
	})
	return out
}

// BuildCharts sorts the records and projects them into labels and the four
// series. Missing figures become 0.
func BuildCharts(records []core.StatRecord) core.ChartData {
	sorted := SortRecords(records)
	d := core.ChartData{
		Labels:      make([]string, len(sorted)),
		CreditCards: make([]float64, len(sorted)),
		DebitCards:  make([]float64, len(sorted)),
		CreditValue: make([]float64, len(sorted)),
		DebitValue:  make([]float64, len(sorted)),
	}
	for i, r := range sorted {
		d.Labels[i] = r.Label()
		d.CreditCards[i] = core.Value(r.CreditCardsOutstanding)
		d.DebitCards[i] = core.Value(r.DebitCardsOutstanding)
		d.CreditValue[i] = core.Value(r.CCPOSValue)
		d.DebitValue[i] = core.Value(r.DCPOSValue)
	}
	return d
}
