package widget

import "navfinder/internal/domain"

// UIState is the widget's derived display state. It is recomputed from the
// controller state on demand and never stored.
type UIState int

const (
	SearchIdle UIState = iota
	SearchPending
	ResultsShown
	FundSelected
	DataLoading
	DataShown
	DataEmpty
)

var uiStateNames = [...]string{
	SearchIdle:    "SearchIdle",
	SearchPending: "SearchPending",
	ResultsShown:  "ResultsShown",
	FundSelected:  "FundSelected",
	DataLoading:   "DataLoading",
	DataShown:     "DataShown",
	DataEmpty:     "DataEmpty",
}

func (s UIState) String() string {
	if int(s) < len(uiStateNames) {
		return uiStateNames[s]
	}
	return "UIState(?)"
}

// state is everything the controller owns. Only the event loop touches it.
type state struct {
	selected *domain.FundSummary
	// selectionGen changes on every select and clear, so a history response
	// can tell whether the fund it was fetched for is still the selection.
	selectionGen uint64

	dates domain.DateRange

	query          string
	resultCount    int
	resultsVisible bool

	// searchSeq tags each dispatched search; only the response carrying the
	// current value is applied.
	searchSeq      uint64
	searchInFlight bool

	fetching    bool
	dataVisible bool
	lastRecords int
}

func (s *state) canAct() bool { return s.selected != nil }

func (s *state) uiState(debouncePending bool) UIState {
	if s.selected == nil {
		switch {
		case debouncePending || s.searchInFlight:
			return SearchPending
		case s.resultsVisible:
			return ResultsShown
		default:
			return SearchIdle
		}
	}
	switch {
	case s.fetching:
		return DataLoading
	case s.dataVisible && s.lastRecords == 0:
		return DataEmpty
	case s.dataVisible:
		return DataShown
	default:
		return FundSelected
	}
}

// Snapshot is a copy of the controller state for callers outside the loop.
type Snapshot struct {
	State       UIState
	Selected    *domain.FundSummary
	Dates       domain.DateRange
	Query       string
	ResultCount int
	Records     int
	CanAct      bool
}
