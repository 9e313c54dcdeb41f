package core

import (
	"fmt"
	"strconv"
	"strings"
)

// YearFilter is either All years or one Specific year.
type YearFilter struct {
	year int
	set  bool
}

// BankFilter is either All banks or one Specific bank.
type BankFilter struct {
	id  BankID
	set bool
}

func AllYears() YearFilter { return YearFilter{} }
func SpecificYear(y int) YearFilter { return YearFilter{year: y, set: true} }
func AllBanks() BankFilter { return BankFilter{} }
func SpecificBank(id BankID) BankFilter { return BankFilter{id: id, set: true} }

// Year returns the selected year and whether one is selected.
func (f YearFilter) Year() (int, bool) { return f.year, f.set }

func (f YearFilter) IsAll() bool { return !f.set }

func (f YearFilter) Matches(year int) bool {
	return !f.set || f.year == year
}

func (f YearFilter) String() string {
	if !f.set {
		return "all"
	}
	return strconv.Itoa(f.year)
}

// Bank returns the selected bank and whether one is selected.
func (f BankFilter) Bank() (BankID, bool) { return f.id, f.set }

func (f BankFilter) IsAll() bool { return !f.set }

func (f BankFilter) Matches(id BankID) bool {
	return !f.set || f.id == id
}

func (f BankFilter) String() string {
	if !f.set {
		return "all"
	}
	return string(f.id)
}

func isWildcard(v string) bool {
	return v == "" || v == "0" || strings.EqualFold(v, "all")
}

// ParseYearFilter reads a selector value. "", "0" and "all" select every year.
func ParseYearFilter(v string) (YearFilter, error) {
	v = strings.TrimSpace(v)
	if isWildcard(v) {
		return AllYears(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 1 {
		return YearFilter{}, fmt.Errorf("%w: %q", ErrInvalidYear, v)
	}
	return SpecificYear(y), nil
}

// ParseBankFilter reads a selector value. "", "0" and "all" select every bank.
func ParseBankFilter(v string) BankFilter {
	v = strings.TrimSpace(v)
	if isWildcard(v) {
		return AllBanks()
	}
	return SpecificBank(BankID(v))
}
