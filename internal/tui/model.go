// Package tui is the interactive terminal front end of the fund finder.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"navfinder/internal/domain"
)

// Actions are the user intents the model forwards to the widget controller.
type Actions interface {
	InputChanged(text string)
	SelectFund(fund domain.FundSummary)
	ClearSelection()
	DateChanged(r domain.DateRange)
	FetchHistory()
	Download()
}

// Controller is an Actions implementation with its own event loop.
type Controller interface {
	Actions
	Run(ctx context.Context) error
}

type focusArea int

const (
	focusSearch focusArea = iota
	focusStart
	focusEnd
	focusTable
)

// maxListed caps how many result lines are drawn at once.
const maxListed = 8

// Model is the bubbletea model. Widget state lives in the controller; the
// model only mirrors what the Port told it.
type Model struct {
	actions Actions
	keys    keyMap
	help    help.Model

	search  textinput.Model
	start   textinput.Model
	end     textinput.Model
	table   table.Model
	spinner spinner.Model
	focus   focusArea

	results        []domain.FundSummary
	resultsVisible bool
	cursor         int
	searchVisible  bool
	selected       *domain.FundSummary
	actionsEnabled bool
	loading        bool
	dataVisible    bool
	placeholder    string
	countLabel     string
	alert          string

	width, height int
}

// New builds the initial model. The search field starts focused.
func New(actions Actions) Model {
	search := textinput.New()
	search.Placeholder = "Search for a mutual fund..."
	search.Prompt = "Fund: "
	search.CharLimit = 120
	search.Width = 50
	search.Focus()

	start := textinput.New()
	start.Placeholder = domain.DateLayout
	start.Prompt = "Start: "
	start.CharLimit = len(domain.DateLayout)
	start.Width = len(domain.DateLayout)

	end := textinput.New()
	end.Placeholder = domain.DateLayout
	end.Prompt = "End: "
	end.CharLimit = len(domain.DateLayout)
	end.Width = len(domain.DateLayout)

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "NAV", Width: 14},
		}),
		table.WithHeight(10),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		actions:       actions,
		keys:          defaultKeyMap(),
		help:          help.New(),
		search:        search,
		start:         start,
		end:           end,
		table:         tbl,
		spinner:       sp,
		focus:         focusSearch,
		searchVisible: true,
	}
	m.syncKeys()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case portMsg:
		cmd := msg(&m)
		m.syncKeys()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h := m.height - 16
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.alert = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Next):
		return m, m.cycleFocus(1)

	case key.Matches(msg, m.keys.Prev):
		return m, m.cycleFocus(-1)

	case bound(msg, m.keys.Clear):
		if m.keys.Clear.Enabled() {
			m.actions.ClearSelection()
		}
		return m, nil

	case bound(msg, m.keys.Fetch):
		if m.keys.Fetch.Enabled() {
			m.actions.FetchHistory()
		}
		return m, nil

	case bound(msg, m.keys.Download):
		if m.keys.Download.Enabled() {
			m.actions.Download()
		}
		return m, nil

	case m.listActive() && key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case m.listActive() && key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil

	case m.listActive() && key.Matches(msg, m.keys.Select):
		m.actions.SelectFund(m.results[m.cursor])
		return m, nil

	case (m.focus == focusStart || m.focus == focusEnd) && key.Matches(msg, m.keys.Select):
		if m.keys.Fetch.Enabled() {
			m.actions.FetchHistory()
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// bound is key.Matches without the enabled check, so a disabled action key
// is swallowed instead of reaching the text inputs.
func bound(msg tea.KeyMsg, b key.Binding) bool {
	for _, k := range b.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}

// updateFocused hands msg to the focused component and reports edits.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if v := m.search.Value(); v != before {
			m.actions.InputChanged(v)
		}
	case focusStart, focusEnd:
		before := m.dateRange()
		if m.focus == focusStart {
			m.start, cmd = m.start.Update(msg)
		} else {
			m.end, cmd = m.end.Update(msg)
		}
		if r := m.dateRange(); r != before {
			m.actions.DateChanged(r)
		}
	case focusTable:
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m *Model) dateRange() domain.DateRange {
	return domain.DateRange{Start: m.start.Value(), End: m.end.Value()}
}

func (m *Model) listActive() bool {
	return m.focus == focusSearch && m.resultsVisible && len(m.results) > 0
}

// syncKeys enables only the bindings whose controls are enabled. Fetch stays
// disabled while a load is in flight.
func (m *Model) syncKeys() {
	m.keys.Fetch.SetEnabled(m.actionsEnabled && !m.loading)
	m.keys.Download.SetEnabled(m.actionsEnabled)
	m.keys.Clear.SetEnabled(m.selected != nil)
}

func (m *Model) focusOrder() []focusArea {
	order := []focusArea{focusStart, focusEnd}
	if m.searchVisible {
		order = append([]focusArea{focusSearch}, order...)
	}
	if m.dataVisible && m.placeholder == "" {
		order = append(order, focusTable)
	}
	return order
}

func (m *Model) cycleFocus(delta int) tea.Cmd {
	order := m.focusOrder()
	idx := 0
	for i, f := range order {
		if f == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(order)) % len(order)
	return m.setFocus(order[idx])
}

func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	m.search.Blur()
	m.start.Blur()
	m.end.Blur()
	m.table.Blur()
	switch f {
	case focusSearch:
		return m.search.Focus()
	case focusStart:
		return m.start.Focus()
	case focusEnd:
		return m.end.Focus()
	case focusTable:
		m.table.Focus()
	}
	return nil
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Mutual Fund NAV Finder"))
	b.WriteString("\n\n")

	if m.searchVisible {
		b.WriteString(m.search.View())
		b.WriteString("\n")
		if m.resultsVisible {
			b.WriteString(m.renderResults())
		}
	}
	if m.selected != nil {
		b.WriteString(selectedStyle.Render(fmt.Sprintf("Selected: %s", m.selected.Name)))
		b.WriteString(" ")
		b.WriteString(codeStyle.Render(m.selected.Code))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.start.View())
	b.WriteString("   ")
	b.WriteString(m.end.View())
	b.WriteString("\n\n")
	b.WriteString(m.renderButtons())
	b.WriteString("\n")

	if m.dataVisible {
		b.WriteString("\n")
		b.WriteString(countStyle.Render(m.countLabel))
		b.WriteString("\n")
		if m.placeholder != "" {
			b.WriteString(placeholderStyle.Render(m.placeholder))
		} else {
			b.WriteString(m.table.View())
		}
		b.WriteString("\n")
	}

	if m.alert != "" {
		b.WriteString("\n")
		b.WriteString(alertStyle.Render("! " + m.alert))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m Model) renderResults() string {
	first := 0
	if m.cursor >= maxListed {
		first = m.cursor - maxListed + 1
	}
	last := first + maxListed
	if last > len(m.results) {
		last = len(m.results)
	}

	var b strings.Builder
	for i := first; i < last; i++ {
		f := m.results[i]
		line := f.Name + "  " + codeStyle.Render(f.Code)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(m.results) > maxListed {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d of %d", m.cursor+1, len(m.results))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderButtons() string {
	fetch := "Fetch Data"
	if m.loading {
		fetch = m.spinner.View() + " Loading..."
	}
	fetchStyle, downloadStyle := disabledStyle, disabledStyle
	if m.keys.Fetch.Enabled() {
		fetchStyle = buttonStyle
	}
	if m.keys.Download.Enabled() {
		downloadStyle = buttonStyle
	}
	return fetchStyle.Render(fetch) + "  " + downloadStyle.Render("Download CSV")
}

// ---------------------------------------------------------------------------
// Program
// ---------------------------------------------------------------------------

// Run drives ctrl with a full-screen terminal program until the user quits
// or ctx is cancelled. port must be the Port ctrl renders to.
func Run(ctx context.Context, port *Port, ctrl Controller, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctrl), opts...)

	go port.Pump(ctx, p.Send)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Run(ctx)
	}()

	_, err := p.Run()
	cancel()
	<-done
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
