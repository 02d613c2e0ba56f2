package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"navfinder/internal/domain"
	"navfinder/internal/widget"
)

var _ widget.Port = (*Port)(nil)

// portMsg is a controller update applied to the model inside Update.
type portMsg func(m *Model) tea.Cmd

// Port queues controller updates for the terminal program. Calls never
// block; Pump delivers them in order.
type Port struct {
	mu    sync.Mutex
	queue []portMsg
	wake  chan struct{}
}

func NewPort() *Port {
	return &Port{wake: make(chan struct{}, 1)}
}

// Pump sends queued updates through send until ctx is done. send is
// normally (*tea.Program).Send.
func (p *Port) Pump(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		}
		p.mu.Lock()
		batch := p.queue
		p.queue = nil
		p.mu.Unlock()
		for _, fn := range batch {
			send(fn)
		}
	}
}

func (p *Port) push(fn portMsg) {
	p.mu.Lock()
	p.queue = append(p.queue, fn)
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Port) ShowResults(funds []domain.FundSummary) {
	p.push(func(m *Model) tea.Cmd {
		m.results = funds
		m.cursor = 0
		m.resultsVisible = true
		return nil
	})
}

func (p *Port) HideResults() {
	p.push(func(m *Model) tea.Cmd {
		m.results = nil
		m.resultsVisible = false
		return nil
	})
}

func (p *Port) ClearSearchInput() {
	p.push(func(m *Model) tea.Cmd {
		m.search.SetValue("")
		return nil
	})
}

func (p *Port) SetSearchVisible(visible bool) {
	p.push(func(m *Model) tea.Cmd {
		m.searchVisible = visible
		if !visible && m.focus == focusSearch {
			return m.setFocus(focusStart)
		}
		return nil
	})
}

func (p *Port) FocusSearch() {
	p.push(func(m *Model) tea.Cmd {
		if !m.searchVisible {
			return nil
		}
		return m.setFocus(focusSearch)
	})
}

func (p *Port) ShowSelected(fund domain.FundSummary) {
	p.push(func(m *Model) tea.Cmd {
		m.selected = &fund
		return nil
	})
}

func (p *Port) HideSelected() {
	p.push(func(m *Model) tea.Cmd {
		m.selected = nil
		return nil
	})
}

func (p *Port) SetEndDate(date string) {
	p.push(func(m *Model) tea.Cmd {
		m.end.SetValue(date)
		return nil
	})
}

func (p *Port) SetActionsEnabled(enabled bool) {
	p.push(func(m *Model) tea.Cmd {
		m.actionsEnabled = enabled
		return nil
	})
}

func (p *Port) SetFetchLoading(loading bool) {
	p.push(func(m *Model) tea.Cmd {
		m.loading = loading
		if loading {
			return m.spinner.Tick
		}
		return nil
	})
}

func (p *Port) RenderTable(view widget.TableView) {
	rows := make([]table.Row, len(view.Rows))
	for i, r := range view.Rows {
		rows[i] = table.Row{r.Date, r.Value}
	}
	p.push(func(m *Model) tea.Cmd {
		m.table.SetRows(rows)
		m.table.SetCursor(0)
		m.placeholder = view.Placeholder
		m.countLabel = view.CountLabel
		return nil
	})
}

func (p *Port) ShowData() {
	p.push(func(m *Model) tea.Cmd {
		m.dataVisible = true
		return nil
	})
}

func (p *Port) HideData() {
	p.push(func(m *Model) tea.Cmd {
		m.dataVisible = false
		return nil
	})
}

func (p *Port) Alert(message string) {
	p.push(func(m *Model) tea.Cmd {
		m.alert = message
		return nil
	})
}
