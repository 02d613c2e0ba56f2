package widget

import (
	"fmt"

	"navfinder/internal/domain"
)

// NoDataMessage is the placeholder shown when a fetch returns no records.
const NoDataMessage = "No data found for selected range"

// Row is one rendered table row.
type Row struct {
	Date  string
	Value string
}

// TableView is the fully rendered content of the data table. When
// Placeholder is set, Rows is empty and the placeholder spans all columns.
type TableView struct {
	Rows        []Row
	Placeholder string
	CountLabel  string
}

// Empty reports whether the view is the no-data placeholder.
func (v TableView) Empty() bool { return v.Placeholder != "" }

// BuildTable renders records in input order, prefixing each value with
// currencySymbol.
func BuildTable(records []domain.NavRecord, currencySymbol string) TableView {
	if len(records) == 0 {
		return TableView{Placeholder: NoDataMessage, CountLabel: CountLabel(0)}
	}
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{Date: r.Date, Value: currencySymbol + r.NAV.String()}
	}
	return TableView{Rows: rows, CountLabel: CountLabel(len(records))}
}

// CountLabel formats the record-count label.
func CountLabel(n int) string {
	return fmt.Sprintf("%d records", n)
}
