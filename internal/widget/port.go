package widget

import (
	"context"

	"navfinder/internal/domain"
)

// Port is the presentation surface the controller drives. All methods are
// called from the controller's event loop, one at a time.
type Port interface {
	// ShowResults replaces the result list and makes it visible.
	ShowResults(funds []domain.FundSummary)
	HideResults()
	ClearSearchInput()
	SetSearchVisible(visible bool)
	FocusSearch()

	// ShowSelected fills the "currently selected" panel and shows it.
	ShowSelected(fund domain.FundSummary)
	HideSelected()

	SetEndDate(date string)

	// SetActionsEnabled enables or disables the fetch and download controls.
	// While a fetch is loading the fetch control stays disabled regardless.
	SetActionsEnabled(enabled bool)

	// SetFetchLoading switches the fetch control between its loading label
	// (disabled) and its normal label.
	SetFetchLoading(loading bool)

	// RenderTable replaces every row of the data table.
	RenderTable(view TableView)
	ShowData()
	HideData()

	// Alert shows a user-facing error notification.
	Alert(message string)
}

// Collaborator is the remote search and history service.
type Collaborator interface {
	Search(ctx context.Context, query string) ([]domain.FundSummary, error)
	History(ctx context.Context, code string, r domain.DateRange) ([]domain.NavRecord, error)
}

// Navigator follows a download target. fund and r are the values the target
// was built from.
type Navigator interface {
	Navigate(ctx context.Context, target string, fund domain.FundSummary, r domain.DateRange) error
}
