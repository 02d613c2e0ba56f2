package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"navfinder/internal/config"
	"navfinder/internal/export"
	"navfinder/internal/mockapi"
	"navfinder/internal/navapi"
	"navfinder/internal/store"
	"navfinder/internal/util"
	"navfinder/internal/widget"
)

// app holds what every subcommand shares.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	client  *navapi.Client
	source  navapi.Source
	mock    *mockapi.Server
	ledger  *store.SQLiteStore
	archive *store.ParquetStore

	closers []func()
}

// setup loads configuration and wires the collaborators. interactive routes
// logs to a file so they do not corrupt the terminal UI.
func setup(interactive bool) (*app, error) {
	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg}

	w, err := a.logWriter(interactive)
	if err != nil {
		return nil, err
	}
	a.log = util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, w)
	util.SetDefault(a.log)

	if *mockMode {
		srv, err := mockapi.Start(mockapi.NewCatalog(), "127.0.0.1:0", a.log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.mock = srv
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
		cfg.API.BaseURL = srv.URL
	}

	a.client = navapi.NewClient(cfg.API.BaseURL, navapi.Endpoints{
		Search:   cfg.API.SearchPath,
		History:  cfg.API.HistoryPath,
		Download: cfg.API.DownloadPath,
	}, cfg.API.Timeout, a.log)

	a.archive = store.NewParquetStore(cfg.Storage.DataDir)
	a.source = a.client
	if cfg.Storage.Archive {
		a.source = navapi.NewArchiving(a.client, a.archive, a.log)
	}

	a.log.Debug("navfinder configured",
		"api", cfg.API.BaseURL,
		"mock", *mockMode,
		"export_mode", cfg.Export.Mode,
		"archive", cfg.Storage.Archive,
	)
	return a, nil
}

func (a *app) logWriter(interactive bool) (io.Writer, error) {
	file := a.cfg.Logging.File
	if file == "" && interactive {
		file = filepath.Join(a.cfg.Storage.DataDir, "navfinder.log")
	}
	if file == "" {
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	a.closers = append(a.closers, func() { f.Close() })
	return f, nil
}

// openLedger opens the export ledger on first use.
func (a *app) openLedger() (*store.SQLiteStore, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	l, err := store.NewSQLiteStore(a.cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}
	a.ledger = l
	a.closers = append(a.closers, func() { l.Close() })
	return l, nil
}

// navigator returns the download handler for the configured export mode.
func (a *app) navigator() widget.Navigator {
	if a.cfg.Export.Mode == config.ExportBrowser {
		return export.NewBrowserNavigator(a.log)
	}
	ledger, err := a.openLedger()
	if err != nil {
		a.log.Warn("export ledger unavailable", "path", a.cfg.Storage.SQLitePath, "error", err)
		return export.NewFileNavigator(a.client.HTTPClient(), a.cfg.Export.Dir, nil, a.log)
	}
	return export.NewFileNavigator(a.client.HTTPClient(), a.cfg.Export.Dir, ledger, a.log)
}

func (a *app) widgetOptions() widget.Options {
	return widget.Options{
		QuietPeriod:      a.cfg.Widget.Debounce,
		MinQueryLength:   a.cfg.Widget.MinQueryLength,
		MaxResults:       a.cfg.Widget.MaxResults,
		CurrencySymbol:   a.cfg.Widget.CurrencySymbol(),
		DownloadEndpoint: a.client.DownloadEndpoint(),
		Logger:           a.log,
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
