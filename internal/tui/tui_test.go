package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navfinder/internal/domain"
	"navfinder/internal/widget"
)

type fakeActions struct {
	mu        sync.Mutex
	inputs    []string
	selected  []domain.FundSummary
	dates     []domain.DateRange
	clears    int
	fetches   int
	downloads int
}

func (a *fakeActions) InputChanged(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inputs = append(a.inputs, text)
}

func (a *fakeActions) SelectFund(f domain.FundSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = append(a.selected, f)
}

func (a *fakeActions) ClearSelection() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clears++
}

func (a *fakeActions) DateChanged(r domain.DateRange) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dates = append(a.dates, r)
}

func (a *fakeActions) FetchHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches++
}

func (a *fakeActions) Download() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.downloads++
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typeKeys(m Model, text string) Model {
	for _, r := range text {
		m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// flush applies every queued port update to m.
func flush(m Model, p *Port) Model {
	p.mu.Lock()
	q := p.queue
	p.queue = nil
	p.mu.Unlock()
	for _, fn := range q {
		m = send(m, fn)
	}
	return m
}

var funds = []domain.FundSummary{
	{Code: "120503", Name: "Axis Bluechip Fund"},
	{Code: "118989", Name: "HDFC Top 100 Fund"},
}

func TestTypingReportsEachEdit(t *testing.T) {
	a := &fakeActions{}
	m := typeKeys(New(a), "ax")

	assert.Equal(t, []string{"a", "ax"}, a.inputs)
	m = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, []string{"a", "ax", "a"}, a.inputs)
}

func TestResultsNavigationAndSelect(t *testing.T) {
	a := &fakeActions{}
	p := NewPort()
	m := New(a)

	p.ShowResults(funds)
	m = flush(m, p)
	assert.Contains(t, m.View(), "Axis Bluechip Fund")
	assert.Contains(t, m.View(), "HDFC Top 100 Fund")

	m = send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, a.selected, 1)
	assert.Equal(t, funds[1], a.selected[0])

	m = send(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, funds[0], a.selected[1])
}

func TestSelectionHidesSearchAndMovesFocus(t *testing.T) {
	a := &fakeActions{}
	p := NewPort()
	m := New(a)

	p.ClearSearchInput()
	p.HideResults()
	p.SetSearchVisible(false)
	p.ShowSelected(funds[0])
	p.SetActionsEnabled(true)
	m = flush(m, p)

	assert.Equal(t, focusStart, m.focus)
	view := m.View()
	assert.NotContains(t, view, "Fund: ")
	assert.Contains(t, view, "Selected: Axis Bluechip Fund")

	m = typeKeys(m, "2023")
	require.NotEmpty(t, a.dates)
	assert.Equal(t, "2023", a.dates[len(a.dates)-1].Start)
	assert.Empty(t, a.inputs)

	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Equal(t, 1, a.clears)

	p.HideSelected()
	p.SetSearchVisible(true)
	p.FocusSearch()
	m = flush(m, p)
	assert.Equal(t, focusSearch, m.focus)
	assert.Contains(t, m.View(), "Fund: ")
}

func TestActionKeysFollowGate(t *testing.T) {
	a := &fakeActions{}
	p := NewPort()
	m := typeKeys(New(a), "ab")

	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlF}, tea.KeyMsg{Type: tea.KeyCtrlD}, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Zero(t, a.fetches)
	assert.Zero(t, a.downloads)
	assert.Zero(t, a.clears)
	assert.Equal(t, "ab", m.search.Value(), "disabled keys must not edit the input")

	p.ShowSelected(funds[0])
	p.SetActionsEnabled(true)
	m = flush(m, p)
	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlF}, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, 1, a.fetches)
	assert.Equal(t, 1, a.downloads)

	p.SetFetchLoading(true)
	m = flush(m, p)
	assert.Contains(t, m.View(), "Loading...")
	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlF}, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, 1, a.fetches, "fetch is disabled while loading")
	assert.Equal(t, 2, a.downloads)

	p.SetFetchLoading(false)
	m = flush(m, p)
	assert.Contains(t, m.View(), "Fetch Data")
	assert.NotContains(t, m.View(), "Loading...")
}

func TestEnterInDateFieldFetches(t *testing.T) {
	a := &fakeActions{}
	p := NewPort()
	m := New(a)

	p.SetSearchVisible(false)
	p.ShowSelected(funds[0])
	p.SetActionsEnabled(true)
	m = flush(m, p)

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, a.fetches)
}

func TestTableAndPlaceholder(t *testing.T) {
	p := NewPort()
	m := New(&fakeActions{})

	p.RenderTable(widget.BuildTable([]domain.NavRecord{
		{Date: "2023-10-25", NAV: "54.23"},
		{Date: "2023-10-24", NAV: "54.89"},
		{Date: "2023-10-23", NAV: "55.12"},
	}, "₹"))
	m = flush(m, p)
	assert.NotContains(t, m.View(), "3 records", "data panel hidden until ShowData")

	p.ShowData()
	m = flush(m, p)
	view := m.View()
	assert.Contains(t, view, "3 records")
	assert.Contains(t, view, "₹54.23")
	assert.Less(t, strings.Index(view, "2023-10-25"), strings.Index(view, "2023-10-23"))

	p.RenderTable(widget.BuildTable(nil, "₹"))
	m = flush(m, p)
	view = m.View()
	assert.Contains(t, view, widget.NoDataMessage)
	assert.Contains(t, view, "0 records")
	assert.NotContains(t, view, "2023-10-25")

	p.HideData()
	m = flush(m, p)
	assert.NotContains(t, m.View(), widget.NoDataMessage)
}

func TestAlertShownUntilNextKey(t *testing.T) {
	p := NewPort()
	m := New(&fakeActions{})

	p.Alert(widget.FetchErrorMessage)
	m = flush(m, p)
	assert.Contains(t, m.View(), widget.FetchErrorMessage)

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.NotContains(t, m.View(), widget.FetchErrorMessage)
}

func TestEndDateFromController(t *testing.T) {
	p := NewPort()
	m := New(&fakeActions{})

	p.SetEndDate("2026-10-15")
	m = flush(m, p)
	assert.Equal(t, "2026-10-15", m.end.Value())
}

func TestFocusCycle(t *testing.T) {
	m := New(&fakeActions{})
	assert.Equal(t, focusSearch, m.focus)

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusStart, m.focus)
	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusEnd, m.focus)
	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusSearch, m.focus)
	m = send(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, focusEnd, m.focus)
}

func TestQuit(t *testing.T) {
	m := New(&fakeActions{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestPumpDeliversInOrder(t *testing.T) {
	p := NewPort()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan tea.Msg, 16)
	go p.Pump(ctx, func(msg tea.Msg) { got <- msg })

	p.ShowSelected(funds[0])
	p.SetEndDate("2026-10-15")
	p.Alert("x")

	m := New(&fakeActions{})
	for i := 0; i < 3; i++ {
		select {
		case msg := <-got:
			m = send(m, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d updates delivered", i)
		}
	}
	require.NotNil(t, m.selected)
	assert.Equal(t, "2026-10-15", m.end.Value())
	assert.Equal(t, "x", m.alert)
}
