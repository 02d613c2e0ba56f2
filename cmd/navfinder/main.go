// Command navfinder searches mutual funds, shows their NAV history and
// exports it as CSV.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

const version = "0.3.0"

var (
	configPath = flag.String("config", "", "config file (default $NAVFINDER_CONFIG or config/navfinder.yaml)")
	mockMode   = flag.Bool("mock", false, "serve the built-in fixture catalog and use it instead of the NAV service")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&tuiCmd{}, "")
	commander.Register(&searchCmd{}, "")
	commander.Register(&historyCmd{}, "")
	commander.Register(&downloadCmd{}, "")
	commander.Register(&archiveCmd{}, "")
	commander.Register(&exportsCmd{}, "")
	commander.Register(&versionCmd{}, "")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var status subcommands.ExitStatus
	if flag.NArg() == 0 {
		status = (&tuiCmd{}).Execute(ctx, flag.CommandLine)
	} else {
		status = commander.Execute(ctx)
	}
	stop()
	os.Exit(int(status))
}
