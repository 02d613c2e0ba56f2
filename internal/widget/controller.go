// Package widget implements the fund finder's interaction core: debounced
// incremental search, single-fund selection, action gating, NAV history
// retrieval with loading and error states, table rendering and CSV export
// navigation. Rendering is delegated to a Port so the state machine runs the
// same under the terminal UI, the console and tests.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"navfinder/internal/domain"
)

// Messages shown through Port.Alert.
const (
	FetchErrorMessage    = "Error fetching data"
	DownloadErrorMessage = "Error downloading file"
)

// Options tunes the controller. Zero fields take the DefaultOptions value.
type Options struct {
	QuietPeriod    time.Duration
	MinQueryLength int
	MaxResults     int
	CurrencySymbol string
	// DownloadEndpoint is the absolute URL of the export collaborator.
	DownloadEndpoint string
	Clock            Clock
	Logger           *slog.Logger
}

// DefaultOptions returns the stock tuning: 300ms quiet period, queries of at
// least two characters and at most 50 listed results.
func DefaultOptions() Options {
	return Options{
		QuietPeriod:      300 * time.Millisecond,
		MinQueryLength:   2,
		MaxResults:       50,
		CurrencySymbol:   "₹",
		DownloadEndpoint: "/download",
		Clock:            SystemClock{},
		Logger:           slog.Default(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.QuietPeriod <= 0 {
		o.QuietPeriod = d.QuietPeriod
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = d.MinQueryLength
	}
	if o.MaxResults <= 0 {
		o.MaxResults = d.MaxResults
	}
	if o.DownloadEndpoint == "" {
		o.DownloadEndpoint = d.DownloadEndpoint
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

// Controller owns the widget state. Its exported methods only enqueue work;
// everything runs on the single goroutine started by Run.
type Controller struct {
	port   Port
	source Collaborator
	nav    Navigator
	opts   Options
	log    *slog.Logger

	events chan func()
	done   chan struct{}
	ctx    context.Context

	st       state
	debounce *debouncer
}

// New creates a controller. The end date defaults to today.
func New(port Port, source Collaborator, nav Navigator, opts Options) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		port:   port,
		source: source,
		nav:    nav,
		opts:   opts,
		log:    opts.Logger.With("component", "widget"),
		events: make(chan func(), 256),
		done:   make(chan struct{}),
		ctx:    context.Background(),
	}
	c.st.dates.End = domain.Today(opts.Clock.Now())
	c.debounce = newDebouncer(opts.Clock, opts.QuietPeriod, c.post)
	return c
}

// Run initialises the port and processes events until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	c.ctx = ctx

	c.port.SetEndDate(c.st.dates.End)
	c.port.HideResults()
	c.port.HideSelected()
	c.port.HideData()
	c.port.SetSearchVisible(true)
	c.applyGate()

	for {
		select {
		case <-ctx.Done():
			c.debounce.Cancel()
			return ctx.Err()
		case fn := <-c.events:
			fn()
		}
	}
}

func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// InputChanged reports the search entry's new raw text.
func (c *Controller) InputChanged(text string) {
	c.post(func() { c.onInput(text) })
}

// SelectFund makes fund the selection, replacing any previous one.
func (c *Controller) SelectFund(fund domain.FundSummary) {
	c.post(func() { c.onSelect(fund) })
}

// ClearSelection returns the widget to the unselected state.
func (c *Controller) ClearSelection() {
	c.post(c.onClear)
}

// DateChanged reports new date-field contents.
func (c *Controller) DateChanged(r domain.DateRange) {
	c.post(func() {
		c.st.dates = r.Trimmed()
		c.applyGate()
	})
}

// FetchHistory loads the selected fund's NAV history into the table.
func (c *Controller) FetchHistory() {
	c.post(c.onFetch)
}

// Download navigates to the CSV export of the selected fund.
func (c *Controller) Download() {
	c.post(c.onDownload)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	fn := func() {
		s := Snapshot{
			State:       c.st.uiState(c.debounce.Pending()),
			Dates:       c.st.dates,
			Query:       c.st.query,
			ResultCount: c.st.resultCount,
			Records:     c.st.lastRecords,
			CanAct:      c.st.canAct(),
		}
		if c.st.selected != nil {
			f := *c.st.selected
			s.Selected = &f
		}
		reply <- s
	}
	select {
	case c.events <- fn:
	case <-c.done:
		return Snapshot{}, errors.New("widget controller stopped")
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-c.done:
		return Snapshot{}, errors.New("widget controller stopped")
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

func (c *Controller) onInput(text string) {
	query := strings.TrimSpace(text)

	// The search entry is hidden while a fund is selected; keystrokes that
	// raced the selection must not reopen the list.
	if c.st.selected != nil {
		c.log.Debug("ignoring search input while a fund is selected", "query", query)
		c.debounce.Cancel()
		c.invalidateSearch()
		c.hideResults()
		return
	}
	c.st.query = query

	if utf8.RuneCountInString(query) < c.opts.MinQueryLength {
		c.debounce.Cancel()
		c.invalidateSearch()
		c.hideResults()
		return
	}
	c.debounce.Schedule(func() { c.dispatchSearch(query) })
}

func (c *Controller) invalidateSearch() {
	c.st.searchSeq++
	c.st.searchInFlight = false
}

func (c *Controller) dispatchSearch(query string) {
	c.st.searchSeq++
	seq := c.st.searchSeq
	c.st.searchInFlight = true
	c.log.Debug("dispatching search", "query", query, "seq", seq)

	ctx := c.ctx
	go func() {
		funds, err := c.source.Search(ctx, query)
		c.post(func() { c.onSearchResult(seq, query, funds, err) })
	}()
}

func (c *Controller) onSearchResult(seq uint64, query string, funds []domain.FundSummary, err error) {
	if seq != c.st.searchSeq {
		c.log.Debug("dropping stale search response", "query", query, "seq", seq, "latest", c.st.searchSeq)
		return
	}
	c.st.searchInFlight = false
	if err != nil {
		c.log.Warn("search failed", "query", query, "error", err)
		return
	}
	c.presentResults(funds)
}

func (c *Controller) presentResults(funds []domain.FundSummary) {
	if len(funds) == 0 {
		c.hideResults()
		return
	}
	if len(funds) > c.opts.MaxResults {
		funds = funds[:c.opts.MaxResults]
	}
	shown := make([]domain.FundSummary, len(funds))
	copy(shown, funds)
	c.st.resultCount = len(shown)
	c.st.resultsVisible = true
	c.port.ShowResults(shown)
}

func (c *Controller) hideResults() {
	c.st.resultCount = 0
	c.st.resultsVisible = false
	c.port.HideResults()
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

func (c *Controller) onSelect(fund domain.FundSummary) {
	replacing := c.st.selected != nil
	c.st.selected = &fund
	c.st.selectionGen++
	c.log.Info("fund selected", "code", fund.Code, "name", fund.Name)

	c.debounce.Cancel()
	c.invalidateSearch()
	c.st.query = ""
	c.port.ClearSearchInput()
	c.hideResults()
	c.port.SetSearchVisible(false)
	if replacing && c.st.dataVisible {
		c.st.dataVisible = false
		c.port.HideData()
	}
	c.port.ShowSelected(fund)
	c.applyGate()
}

func (c *Controller) onClear() {
	if c.st.selected != nil {
		c.log.Info("selection cleared", "code", c.st.selected.Code)
	}
	c.st.selected = nil
	c.st.selectionGen++
	c.st.query = ""

	c.debounce.Cancel()
	c.invalidateSearch()
	c.hideResults()
	c.port.ClearSearchInput()
	c.port.HideSelected()
	c.port.SetSearchVisible(true)
	c.port.FocusSearch()
	c.st.dataVisible = false
	c.port.HideData()
	c.applyGate()
}

func (c *Controller) applyGate() {
	c.port.SetActionsEnabled(c.st.canAct())
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func (c *Controller) onFetch() {
	if c.st.selected == nil {
		c.log.Debug("fetch ignored: no fund selected")
		return
	}
	if c.st.fetching {
		c.log.Debug("fetch ignored: already loading")
		return
	}
	fund := *c.st.selected
	dates := c.st.dates
	gen := c.st.selectionGen

	c.st.fetching = true
	c.port.SetFetchLoading(true)
	c.log.Info("fetching history", "code", fund.Code, "start", dates.Start, "end", dates.End)

	ctx := c.ctx
	go func() {
		records, err := c.source.History(ctx, fund.Code, dates)
		c.post(func() { c.onHistory(gen, fund, records, err) })
	}()
}

func (c *Controller) onHistory(gen uint64, fund domain.FundSummary, records []domain.NavRecord, err error) {
	defer func() {
		c.st.fetching = false
		c.port.SetFetchLoading(false)
		c.applyGate()
	}()

	if err != nil {
		c.log.Error("fetching history", "code", fund.Code, "error", err)
		c.port.Alert(FetchErrorMessage)
		return
	}
	if gen != c.st.selectionGen {
		c.log.Info("dropping history for deselected fund", "code", fund.Code, "records", len(records))
		return
	}

	view := BuildTable(records, c.opts.CurrencySymbol)
	c.st.lastRecords = len(records)
	c.port.RenderTable(view)
	c.st.dataVisible = true
	c.port.ShowData()
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func (c *Controller) onDownload() {
	if c.st.selected == nil {
		c.log.Debug("download ignored: no fund selected")
		return
	}
	fund := *c.st.selected
	dates := c.st.dates
	target := BuildDownloadURL(c.opts.DownloadEndpoint, fund, dates)
	c.log.Info("starting download", "code", fund.Code, "target", target)

	ctx := c.ctx
	go func() {
		if err := c.nav.Navigate(ctx, target, fund, dates); err != nil {
			c.log.Error("downloading", "code", fund.Code, "target", target, "error", err)
			c.post(func() { c.port.Alert(DownloadErrorMessage) })
		}
	}()
}
