package google

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cardstats/internal/core"
)

// parseBanks expects headers id and name. A row without a name uses its id.
func parseBanks(values [][]interface{}) ([]core.Bank, error) {
	if len(values) == 0 {
		return []core.Bank{}, nil
	}
	headers := toStrings(values[0])
	colID, colName := indexOf(headers, "id"), indexOf(headers, "name")
	if colID == -1 {
		return nil, fmt.Errorf("unexpected banks header: missing id; got headers=%v", headers)
	}

	banks := make([]core.Bank, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := toStrings(raw)
		id := safeGet(row, colID)
		if id == "" {
			continue
		}
		name := safeGet(row, colName)
		if name == "" {
			name = id
		}
		banks = append(banks, core.Bank{ID: core.BankID(id), Name: name})
	}
	return banks, nil
}

// parseIndex expects headers year and month.
func parseIndex(values [][]interface{}) ([]core.MonthIndexEntry, error) {
	if len(values) == 0 {
		return []core.MonthIndexEntry{}, nil
	}
	headers := toStrings(values[0])
	colYear, colMonth := indexOf(headers, "year"), indexOf(headers, "month")
	if colYear == -1 || colMonth == -1 {
		return nil, fmt.Errorf("unexpected index header: need year and month; got headers=%v", headers)
	}

	index := make([]core.MonthIndexEntry, 0, len(values)-1)
	for i, raw := range values[1:] {
		row := toStrings(raw)
		if safeGet(row, colYear) == "" && safeGet(row, colMonth) == "" {
			continue
		}
		y, okY := parseInt(safeGet(row, colYear))
		m, okM := parseInt(safeGet(row, colMonth))
		if !okY || !okM {
			return nil, fmt.Errorf("index row %d: invalid year/month %v", i+2, row)
		}
		e := core.MonthIndexEntry{Year: y, Month: m}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("index row %d: %w", i+2, err)
		}
		index = append(index, e)
	}
	return index, nil
}

// parseMonth expects a bank_id header plus any of the four figure headers.
// Empty cells are missing figures.
func parseMonth(values [][]interface{}, year, month int) ([]core.StatRecord, error) {
	if len(values) == 0 {
		return []core.StatRecord{}, nil
	}
	headers := toStrings(values[0])
	colBank := indexOf(headers, "bank_id")
	if colBank == -1 {
		return nil, fmt.Errorf("unexpected month header: missing bank_id; got headers=%v", headers)
	}
	colCC := indexOf(headers, "credit_cards_outstanding")
	colDC := indexOf(headers, "debit_cards_outstanding")
	colCV := indexOf(headers, "cc_pos_value")
	colDV := indexOf(headers, "dc_pos_value")

	records := make([]core.StatRecord, 0, len(values)-1)
	for i, raw := range values[1:] {
		row := toStrings(raw)
		bank := safeGet(row, colBank)
		if bank == "" {
			continue
		}
		r := core.StatRecord{BankID: core.BankID(bank), Year: year, Month: month}
		var err error
		if r.CreditCardsOutstanding, err = parseFigure(row, colCC); err == nil {
			if r.DebitCardsOutstanding, err = parseFigure(row, colDC); err == nil {
				if r.CCPOSValue, err = parseFigure(row, colCV); err == nil {
					r.DCPOSValue, err = parseFigure(row, colDV)
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("month %s row %d: %w", core.MonthLabel(year, month), i+2, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func parseFigure(row []string, col int) (*float64, error) {
	s := safeGet(row, col)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &f, nil
}

func parseInt(s string) (int, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
