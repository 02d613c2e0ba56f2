package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"navfinder/internal/console"
	"navfinder/internal/domain"
	"navfinder/internal/tui"
	"navfinder/internal/widget"
)

// ---------------------------------------------------------------------------
// tui
// ---------------------------------------------------------------------------

type tuiCmd struct{}

func (*tuiCmd) Name() string     { return "tui" }
func (*tuiCmd) Synopsis() string { return "interactive fund search and NAV viewer (default)" }
func (*tuiCmd) Usage() string {
	return `tui

Opens the full-screen finder: type at least two characters to search, pick a
fund, set an optional date range, then fetch the NAV table or download it as
CSV.
`
}
func (*tuiCmd) SetFlags(*flag.FlagSet) {}

func (*tuiCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	port := tui.NewPort()
	ctrl := widget.New(port, a.source, a.navigator(), a.widgetOptions())
	if err := tui.Run(ctx, port, ctrl); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// ---------------------------------------------------------------------------
// search
// ---------------------------------------------------------------------------

type searchCmd struct {
	limit int
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "lists funds whose name matches a query" }
func (*searchCmd) Usage() string {
	return `search [-limit N] <query...>
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 0, "maximum funds to list (default widget.max_results)")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.TrimSpace(strings.Join(f.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: a search query is required")
		return subcommands.ExitUsageError
	}

	a, err := setup(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if n := len([]rune(query)); n < a.cfg.Widget.MinQueryLength {
		fmt.Fprintf(os.Stderr, "Error: query must have at least %d characters\n", a.cfg.Widget.MinQueryLength)
		return subcommands.ExitUsageError
	}

	funds, err := a.source.Search(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(funds) == 0 {
		fmt.Fprintln(os.Stderr, "No results found")
		return subcommands.ExitSuccess
	}
	limit := c.limit
	if limit <= 0 {
		limit = a.cfg.Widget.MaxResults
	}
	if len(funds) > limit {
		funds = funds[:limit]
	}
	console.RenderFunds(os.Stdout, funds)
	return subcommands.ExitSuccess
}

// ---------------------------------------------------------------------------
// history / download
// ---------------------------------------------------------------------------

// fundFlags are the selection and date-range flags shared by history and
// download.
type fundFlags struct {
	code  string
	name  string
	start string
	end   string
}

func (ff *fundFlags) register(f *flag.FlagSet) {
	f.StringVar(&ff.code, "code", "", "scheme code (required)")
	f.StringVar(&ff.name, "name", "", "fund name (defaults to the code)")
	f.StringVar(&ff.start, "start", "", "first date, YYYY-MM-DD (optional)")
	f.StringVar(&ff.end, "end", domain.Today(time.Now()), "last date, YYYY-MM-DD; empty for open-ended")
}

func (ff *fundFlags) fund() domain.FundSummary {
	name := ff.name
	if name == "" {
		name = ff.code
	}
	return domain.FundSummary{Code: ff.code, Name: name}
}

func (ff *fundFlags) dates() domain.DateRange {
	return domain.DateRange{Start: ff.start, End: ff.end}
}

// drive starts ctrl, selects the fund and applies the date range.
func drive(ctx context.Context, ctrl *widget.Controller, ff *fundFlags) {
	go ctrl.Run(ctx)
	ctrl.SelectFund(ff.fund())
	ctrl.DateChanged(ff.dates())
}

type historyCmd struct {
	fundFlags
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "prints the NAV history of a fund" }
func (*historyCmd) Usage() string {
	return `history -code CODE [-name NAME] [-start YYYY-MM-DD] [-end YYYY-MM-DD]
`
}
func (c *historyCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" {
		fmt.Fprintln(os.Stderr, "Error: -code is required")
		return subcommands.ExitUsageError
	}
	a, err := setup(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	port := console.NewPort(os.Stdout, os.Stderr)
	ctrl := widget.New(port, a.source, a.navigator(), a.widgetOptions())
	drive(ctx, ctrl, &c.fundFlags)
	ctrl.FetchHistory()

	if err := port.WaitFetch(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(port.Alerts()) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// doneNavigator reports when the wrapped navigator returns.
type doneNavigator struct {
	next widget.Navigator
	done chan error
}

func (n *doneNavigator) Navigate(ctx context.Context, target string, fund domain.FundSummary, r domain.DateRange) error {
	err := n.next.Navigate(ctx, target, fund, r)
	n.done <- err
	return err
}

type downloadCmd struct {
	fundFlags
}

func (*downloadCmd) Name() string     { return "download" }
func (*downloadCmd) Synopsis() string { return "downloads the NAV history of a fund as CSV" }
func (*downloadCmd) Usage() string {
	return `download -code CODE [-name NAME] [-start YYYY-MM-DD] [-end YYYY-MM-DD]

In file mode the CSV is saved under export.dir and recorded in the export
ledger; in browser mode the download URL is opened in the default browser.
`
}
func (c *downloadCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *downloadCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" {
		fmt.Fprintln(os.Stderr, "Error: -code is required")
		return subcommands.ExitUsageError
	}
	a, err := setup(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	nav := &doneNavigator{next: a.navigator(), done: make(chan error, 1)}
	port := console.NewPort(os.Stdout, os.Stderr)
	ctrl := widget.New(port, a.source, nav, a.widgetOptions())
	drive(ctx, ctrl, &c.fundFlags)
	ctrl.Download()

	select {
	case err = <-nav.done:
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "Error: %v\n", ctx.Err())
		return subcommands.ExitFailure
	}
	if err != nil {
		// Already alerted by the controller.
		return subcommands.ExitFailure
	}

	if a.ledger != nil {
		if recent, err := a.ledger.RecentExports(ctx, 1); err == nil && len(recent) > 0 {
			console.RenderExports(os.Stdout, recent)
		}
	}
	return subcommands.ExitSuccess
}

// ---------------------------------------------------------------------------
// archive
// ---------------------------------------------------------------------------

type archiveCmd struct {
	code string
	date string
}

func (*archiveCmd) Name() string     { return "archive" }
func (*archiveCmd) Synopsis() string { return "lists or prints archived NAV histories" }
func (*archiveCmd) Usage() string {
	return `archive -code CODE [-date YYYY-MM-DD]

Without -date, lists the days on which CODE was archived. With -date, prints
the series fetched that day.
`
}

func (c *archiveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "code", "", "scheme code")
	f.StringVar(&c.date, "date", "", "fetch date (YYYY-MM-DD)")
}

func (c *archiveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" {
		fmt.Fprintln(os.Stderr, "Error: -code is required")
		return subcommands.ExitUsageError
	}
	var fetched time.Time
	if c.date != "" {
		var err error
		if fetched, err = time.Parse(domain.DateLayout, c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -date %q\n", c.date)
			return subcommands.ExitUsageError
		}
	}
	a, err := setup(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if c.date == "" {
		dates, err := a.archive.ListFetchDates(ctx, c.code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if len(dates) == 0 {
			fmt.Fprintf(os.Stderr, "Nothing archived for %s\n", c.code)
			return subcommands.ExitSuccess
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return subcommands.ExitSuccess
	}

	records, err := a.archive.ReadHistory(ctx, c.code, fetched)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	console.RenderNav(os.Stdout, widget.BuildTable(records, a.cfg.Widget.CurrencySymbol()))
	return subcommands.ExitSuccess
}

// ---------------------------------------------------------------------------
// exports / version
// ---------------------------------------------------------------------------

type exportsCmd struct {
	limit int
}

func (*exportsCmd) Name() string     { return "exports" }
func (*exportsCmd) Synopsis() string { return "lists recently saved CSV exports" }
func (*exportsCmd) Usage() string {
	return `exports [-limit N]
`
}

func (c *exportsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 20, "number of exports to list")
}

func (c *exportsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	ledger, err := a.openLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening export ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	exports, err := ledger.RecentExports(ctx, c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(exports) == 0 {
		fmt.Fprintln(os.Stderr, "No exports recorded yet")
		return subcommands.ExitSuccess
	}
	console.RenderExports(os.Stdout, exports)
	return subcommands.ExitSuccess
}

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "prints the navfinder version" }
func (*versionCmd) Usage() string          { return "version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Println("navfinder", version)
	return subcommands.ExitSuccess
}
