// Package console is a line-oriented presentation port for the widget,
// used by the non-interactive subcommands.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"navfinder/internal/domain"
	"navfinder/internal/widget"
)

var _ widget.Port = (*Port)(nil)

// Port prints what the controller shows. Visibility changes that have no
// meaning on a terminal stream are ignored.
type Port struct {
	out    io.Writer
	errOut io.Writer

	mu       sync.Mutex
	loading  bool
	enabled  bool
	alerts   []string
	fetched  chan struct{}
	rendered *widget.TableView
}

// NewPort writes tables to out and alerts to errOut.
func NewPort(out, errOut io.Writer) *Port {
	return &Port{out: out, errOut: errOut, fetched: make(chan struct{}, 1)}
}

func (p *Port) ShowResults(funds []domain.FundSummary) {
	RenderFunds(p.out, funds)
}

func (p *Port) HideResults()          {}
func (p *Port) ClearSearchInput()     {}
func (p *Port) SetSearchVisible(bool) {}
func (p *Port) FocusSearch()          {}
func (p *Port) HideSelected()         {}
func (p *Port) HideData()             {}
func (p *Port) SetEndDate(string)     {}

func (p *Port) ShowSelected(fund domain.FundSummary) {
	fmt.Fprintf(p.out, "Selected: %s (%s)\n", fund.Name, fund.Code)
}

func (p *Port) SetActionsEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// SetFetchLoading signals WaitFetch when a load finishes.
func (p *Port) SetFetchLoading(loading bool) {
	p.mu.Lock()
	was := p.loading
	p.loading = loading
	p.mu.Unlock()

	if was && !loading {
		select {
		case p.fetched <- struct{}{}:
		default:
		}
	}
}

func (p *Port) RenderTable(view widget.TableView) {
	p.mu.Lock()
	p.rendered = &view
	p.mu.Unlock()
	RenderNav(p.out, view)
}

func (p *Port) ShowData() {}

func (p *Port) Alert(message string) {
	p.mu.Lock()
	p.alerts = append(p.alerts, message)
	p.mu.Unlock()
	fmt.Fprintln(p.errOut, text.FgRed.Sprint(message))
}

// WaitFetch blocks until a history load started through the controller has
// finished, successfully or not.
func (p *Port) WaitFetch(ctx context.Context) error {
	select {
	case <-p.fetched:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Alerts returns the messages alerted so far.
func (p *Port) Alerts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.alerts...)
}

// ActionsEnabled reports the last gate state.
func (p *Port) ActionsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Rendered returns the last table shown, if any.
func (p *Port) Rendered() (widget.TableView, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rendered == nil {
		return widget.TableView{}, false
	}
	return *p.rendered, true
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

// style is StyleLight with headers and footers printed as given.
func style() table.Style {
	s := table.StyleLight
	s.Format.Header = text.FormatDefault
	s.Format.Footer = text.FormatDefault
	return s
}

// RenderFunds prints a code/name listing.
func RenderFunds(w io.Writer, funds []domain.FundSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(style())
	t.AppendHeader(table.Row{"Code", "Name"})
	for _, f := range funds {
		t.AppendRow(table.Row{f.Code, f.Name})
	}
	t.Render()
}

// RenderNav prints a NAV table. The empty placeholder spans both columns.
func RenderNav(w io.Writer, view widget.TableView) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(style())
	t.AppendHeader(table.Row{"Date", "NAV"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	if view.Empty() {
		t.AppendRow(table.Row{view.Placeholder, view.Placeholder}, table.RowConfig{AutoMerge: true})
	}
	for _, r := range view.Rows {
		t.AppendRow(table.Row{r.Date, r.Value})
	}
	t.AppendFooter(table.Row{"", view.CountLabel})
	t.Render()
}

// RenderExports prints ledger entries.
func RenderExports(w io.Writer, exports []domain.Export) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(style())
	t.AppendHeader(table.Row{"When", "Code", "Name", "Start", "End", "Bytes", "Path"})
	for _, e := range exports {
		t.AppendRow(table.Row{
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Code, e.Name, e.Range.Start, e.Range.End, e.Bytes, e.Path,
		})
	}
	t.Render()
}
