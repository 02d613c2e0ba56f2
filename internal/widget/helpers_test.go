package widget

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"navfinder/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual clock
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward and runs every timer that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// Active counts timers that have neither fired nor been stopped.
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Recording port
// ---------------------------------------------------------------------------

type recordingPort struct {
	mu sync.Mutex

	results        []domain.FundSummary
	resultsVisible bool
	showCalls      int
	inputClears    int
	searchVisible  bool
	focusCalls     int
	selected       *domain.FundSummary
	endDate        string
	actionsEnabled bool
	loading        bool
	loadingSeq     []bool
	table          TableView
	renderCalls    int
	dataVisible    bool
	alerts         []string
}

func (p *recordingPort) ShowResults(funds []domain.FundSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = funds
	p.resultsVisible = true
	p.showCalls++
}

func (p *recordingPort) HideResults() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resultsVisible = false
}

func (p *recordingPort) ClearSearchInput() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputClears++
}

func (p *recordingPort) SetSearchVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchVisible = visible
}

func (p *recordingPort) FocusSearch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.focusCalls++
}

func (p *recordingPort) ShowSelected(fund domain.FundSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = &fund
}

func (p *recordingPort) HideSelected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = nil
}

func (p *recordingPort) SetEndDate(date string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endDate = date
}

func (p *recordingPort) SetActionsEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actionsEnabled = enabled
}

func (p *recordingPort) SetFetchLoading(loading bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = loading
	p.loadingSeq = append(p.loadingSeq, loading)
}

func (p *recordingPort) RenderTable(view TableView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table = view
	p.renderCalls++
}

func (p *recordingPort) ShowData() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataVisible = true
}

func (p *recordingPort) HideData() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataVisible = false
}

func (p *recordingPort) Alert(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, message)
}

func (p *recordingPort) with(fn func(p *recordingPort)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

// ---------------------------------------------------------------------------
// Scripted collaborator and navigator
// ---------------------------------------------------------------------------

type historyCall struct {
	Code  string
	Range domain.DateRange
}

type fakeSource struct {
	mu        sync.Mutex
	searches  []string
	histories []historyCall

	searchFn  func(ctx context.Context, q string) ([]domain.FundSummary, error)
	historyFn func(ctx context.Context, code string, r domain.DateRange) ([]domain.NavRecord, error)
}

func (s *fakeSource) Search(ctx context.Context, q string) ([]domain.FundSummary, error) {
	s.mu.Lock()
	s.searches = append(s.searches, q)
	fn := s.searchFn
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, q)
}

func (s *fakeSource) History(ctx context.Context, code string, r domain.DateRange) ([]domain.NavRecord, error) {
	s.mu.Lock()
	s.histories = append(s.histories, historyCall{Code: code, Range: r})
	fn := s.historyFn
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, code, r)
}

func (s *fakeSource) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

func (s *fakeSource) Histories() []historyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]historyCall(nil), s.histories...)
}

type navCall struct {
	Target string
	Fund   domain.FundSummary
	Range  domain.DateRange
}

type fakeNavigator struct {
	mu    sync.Mutex
	calls []navCall
	err   error
}

func (n *fakeNavigator) Navigate(_ context.Context, target string, fund domain.FundSummary, r domain.DateRange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{Target: target, Fund: fund, Range: r})
	return n.err
}

func (n *fakeNavigator) Calls() []navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navCall(nil), n.calls...)
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	ctx    context.Context
	clock  *fakeClock
	port   *recordingPort
	source *fakeSource
	nav    *fakeNavigator
	ctrl   *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		t:      t,
		ctx:    ctx,
		clock:  newFakeClock(testNow),
		port:   &recordingPort{},
		source: &fakeSource{},
		nav:    &fakeNavigator{},
	}
	h.ctrl = New(h.port, h.source, h.nav, Options{
		Clock:            h.clock,
		DownloadEndpoint: "http://nav.test/download",
		CurrencySymbol:   "₹",
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	stopped := make(chan struct{})
	go func() {
		_ = h.ctrl.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	h.sync()
	return h
}

// sync waits until every event posted so far has been handled.
func (h *harness) sync() Snapshot {
	h.t.Helper()
	s, err := h.ctrl.Snapshot(h.ctx)
	require.NoError(h.t, err)
	return s
}

// typeText feeds each prefix of text to the controller, letting gap pass
// between keystrokes.
func (h *harness) typeText(text string, gap time.Duration) {
	for i := 1; i <= len(text); i++ {
		h.ctrl.InputChanged(text[:i])
		h.sync()
		h.clock.Advance(gap)
	}
	h.sync()
}

func (h *harness) eventually(cond func(p *recordingPort) bool, msg string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		ok := false
		h.port.with(func(p *recordingPort) { ok = cond(p) })
		return ok
	}, 2*time.Second, 5*time.Millisecond, msg)
}

func (h *harness) selectFund(f domain.FundSummary) {
	h.ctrl.SelectFund(f)
	h.sync()
}

var axis = domain.FundSummary{Code: "120503", Name: "Axis Bluechip Fund"}

func threeRecords() []domain.NavRecord {
	return []domain.NavRecord{
		{Date: "2023-10-25", NAV: "54.23"},
		{Date: "2023-10-24", NAV: "54.89"},
		{Date: "2023-10-23", NAV: "55.12"},
	}
}
