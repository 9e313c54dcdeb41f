package source

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"cardstats/internal/core"
)

// Decoding errors are the encoding/json errors, returned unwrapped.

// monthRow is a StatRecord as published, or a row of the ETL envelope which
// names the bank instead of giving its id.
type monthRow struct {
	core.StatRecord
	Bank string `json:"bank"`
}

type monthEnvelope struct {
	Year  int        `json:"year"`
	Month int        `json:"month"`
	Rows  []monthRow `json:"rows"`
}

var spaces = regexp.MustCompile(`\s{2,}`)

func cleanBankName(s string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

// DecodeBanks reads either an array of {id, name} objects or an array of bank
// names, in which case the name doubles as the id.
func DecodeBanks(data []byte) ([]core.Bank, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	banks := make([]core.Bank, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var name string
			if err := json.Unmarshal(item, &name); err != nil {
				return nil, err
			}
			name = cleanBankName(name)
			if name == "" {
				continue
			}
			banks = append(banks, core.Bank{ID: core.BankID(name), Name: name})
			continue
		}
		var b core.Bank
		if err := json.Unmarshal(item, &b); err != nil {
			return nil, err
		}
		if b.Name == "" {
			b.Name = string(b.ID)
		}
		banks = append(banks, b)
	}
	return banks, nil
}

// DecodeIndex reads the month index. Entries may carry extra fields.
func DecodeIndex(data []byte) ([]core.MonthIndexEntry, error) {
	var index []core.MonthIndexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return index, nil
}

// DecodeMonth reads one month's records: a plain array of records, or the
// envelope {year, month, rows}. Rows without year or month take them from the
// envelope, then from the requested month.
func DecodeMonth(data []byte, year, month int) ([]core.StatRecord, error) {
	var rows []monthRow
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env monthEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		if env.Year != 0 {
			year = env.Year
		}
		if env.Month != 0 {
			month = env.Month
		}
		rows = env.Rows
	} else if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, err
	}

	records := make([]core.StatRecord, 0, len(rows))
	for _, row := range rows {
		r := row.StatRecord
		if r.Year == 0 {
			r.Year = year
		}
		if r.Month == 0 {
			r.Month = month
		}
		if r.BankID == "" {
			r.BankID = core.BankID(cleanBankName(row.Bank))
		}
		records = append(records, r)
	}
	return records, nil
}
