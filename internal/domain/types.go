// Package domain defines the fund, date-range and NAV types shared by the
// widget core, the HTTP collaborators and the local stores.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// FundSummary identifies a fund as returned by the search collaborator.
// Identity is Code.
type FundSummary struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DateRange is an optional start/end filter. Both bounds are ISO dates or
// empty; ordering is not checked here.
type DateRange struct {
	Start string
	End   string
}

// Trimmed returns r with surrounding whitespace removed from both bounds.
func (r DateRange) Trimmed() DateRange {
	return DateRange{Start: strings.TrimSpace(r.Start), End: strings.TrimSpace(r.End)}
}

// Today formats now as an ISO calendar date in now's location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// NavValue is a NAV kept exactly as the collaborator sent it. Strings are
// kept unquoted; any other JSON value keeps its literal text. Whether it holds
// a decimal is checked by Decimal, never on decode.
type NavValue string

// UnmarshalJSON accepts "54.23" and 54.23 alike.
func (v *NavValue) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if bytes.HasPrefix(raw, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*v = NavValue(strings.TrimSpace(s))
		return nil
	}
	*v = NavValue(raw)
	return nil
}

// MarshalJSON always emits the value as a JSON string.
func (v NavValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

// Decimal parses the value.
func (v NavValue) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(v))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("nav value %q: %w", string(v), err)
	}
	return d, nil
}

// String returns the value as received.
func (v NavValue) String() string { return string(v) }

// NavRecord is one (date, NAV) observation.
type NavRecord struct {
	Date string   `json:"date"`
	NAV  NavValue `json:"nav"`
}
