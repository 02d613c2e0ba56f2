// Package mockapi serves a fixed fund catalog over the same HTTP surface as
// the NAV service, for offline use and tests.
package mockapi

import (
	"sort"
	"strings"

	"navfinder/internal/domain"
)

// Catalog is an in-memory set of funds that all share one NAV series.
type Catalog struct {
	funds   []domain.FundSummary
	history []domain.NavRecord
}

// NewCatalog returns the built-in fixture catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		funds: []domain.FundSummary{
			{Code: "120503", Name: "Axis Bluechip Fund - Direct Plan - Growth"},
			{Code: "118989", Name: "HDFC Top 100 Fund - Direct Plan - Growth Option"},
			{Code: "125497", Name: "SBI Small Cap Fund - Direct Plan - Growth"},
			{Code: "100033", Name: "Aditya Birla Sun Life Frontline Equity Fund - Direct Plan - Growth"},
		},
		history: []domain.NavRecord{
			{Date: "2023-10-25", NAV: "54.23"},
			{Date: "2023-10-24", NAV: "54.89"},
			{Date: "2023-10-23", NAV: "55.12"},
			{Date: "2023-10-20", NAV: "55.01"},
			{Date: "2023-10-19", NAV: "54.78"},
			{Date: "2023-10-18", NAV: "54.65"},
		},
	}
}

// Search returns funds whose name contains query, ignoring case.
func (c *Catalog) Search(query string) []domain.FundSummary {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []domain.FundSummary{}
	if q == "" {
		return out
	}
	for _, f := range c.funds {
		if strings.Contains(strings.ToLower(f.Name), q) {
			out = append(out, f)
		}
	}
	return out
}

// Lookup reports whether code is in the catalog.
func (c *Catalog) Lookup(code string) (domain.FundSummary, bool) {
	for _, f := range c.funds {
		if f.Code == code {
			return f, true
		}
	}
	return domain.FundSummary{}, false
}

// History returns the records for code inside r, newest first. Bounds are
// inclusive; an empty bound is open. Unknown codes have no history.
func (c *Catalog) History(code string, r domain.DateRange) []domain.NavRecord {
	out := []domain.NavRecord{}
	if _, ok := c.Lookup(code); !ok {
		return out
	}
	for _, rec := range c.history {
		if r.Start != "" && rec.Date < r.Start {
			continue
		}
		if r.End != "" && rec.Date > r.End {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
