package models

import (
	"strings"

	dErrors "securitysvc/pkg/domain-errors"
)

// MatchMode selects how a TickerFilter compares tickers.
type MatchMode int

const (
	MatchAll MatchMode = iota
	MatchExact
	MatchContains
)

// TickerFilter narrows a search by ticker. Comparison is case-insensitive and
// the value is matched literally.
type TickerFilter struct {
	Mode  MatchMode
	Value string
}

// AllTickers matches every security.
func AllTickers() TickerFilter { return TickerFilter{Mode: MatchAll} }

// ExactTicker matches securities whose ticker equals value ignoring case.
func ExactTicker(value string) TickerFilter { return TickerFilter{Mode: MatchExact, Value: value} }

// TickerContains matches securities whose ticker contains value ignoring case.
func TickerContains(value string) TickerFilter {
	return TickerFilter{Mode: MatchContains, Value: value}
}

// Matches reports whether ticker satisfies the filter.
func (f TickerFilter) Matches(ticker string) bool {
	switch f.Mode {
	case MatchExact:
		return strings.EqualFold(ticker, f.Value)
	case MatchContains:
		return strings.Contains(strings.ToLower(ticker), strings.ToLower(f.Value))
	default:
		return true
	}
}

func (f TickerFilter) String() string {
	switch f.Mode {
	case MatchExact:
		return "exact"
	case MatchContains:
		return "contains"
	default:
		return "all"
	}
}

// SearchQuery is one page request against the securities collection.
type SearchQuery struct {
	Filter TickerFilter
	Limit  int
	Offset int
}

// Validate guards the pagination arithmetic.
func (q SearchQuery) Validate() error {
	if q.Limit < 1 {
		return dErrors.New(dErrors.CodeUnprocessable, "limit must be at least 1")
	}
	if q.Offset < 0 {
		return dErrors.New(dErrors.CodeUnprocessable, "offset must not be negative")
	}
	return nil
}
