package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither a flag nor NAVFINDER_CONFIG names a file.
const DefaultPath = "config/navfinder.yaml"

// Export modes.
const (
	ExportFile    = "file"
	ExportBrowser = "browser"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for navfinder.
type Config struct {
	API     API     `yaml:"api"`
	Widget  Widget  `yaml:"widget"`
	Export  Export  `yaml:"export"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
}

// API locates the NAV service.
type API struct {
	BaseURL      string        `yaml:"base_url"`
	SearchPath   string        `yaml:"search_path"`
	HistoryPath  string        `yaml:"history_path"`
	DownloadPath string        `yaml:"download_path"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Widget tunes the search and table behaviour.
type Widget struct {
	Debounce       time.Duration `yaml:"debounce"`
	MinQueryLength int           `yaml:"min_query_length"`
	MaxResults     int           `yaml:"max_results"`
	Currency       string        `yaml:"currency"`
}

// Export controls what a download does.
type Export struct {
	Mode string `yaml:"mode"`
	Dir  string `yaml:"dir"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	Archive    bool   `yaml:"archive"`
}

// Logging configures the application logger. An empty File means stderr.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: API{
			BaseURL:      "http://localhost:5000",
			SearchPath:   "/api/search",
			HistoryPath:  "/api/history",
			DownloadPath: "/download",
			Timeout:      30 * time.Second,
		},
		Widget: Widget{
			Debounce:       300 * time.Millisecond,
			MinQueryLength: 2,
			MaxResults:     50,
			Currency:       "INR",
		},
		Export: Export{
			Mode: ExportFile,
			Dir:  ".",
		},
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/navfinder.db",
			Archive:    true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// CurrencySymbol returns the display symbol of the configured ISO currency.
func (w Widget) CurrencySymbol() string {
	if c := money.GetCurrency(strings.ToUpper(w.Currency)); c != nil {
		return c.Grapheme
	}
	return w.Currency
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative"))
	}
	if c.Widget.Debounce < 0 {
		errs = append(errs, fmt.Errorf("widget.debounce must not be negative"))
	}
	if c.Widget.MinQueryLength < 1 {
		errs = append(errs, fmt.Errorf("widget.min_query_length must be at least 1"))
	}
	if c.Widget.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("widget.max_results must be at least 1"))
	}
	switch c.Export.Mode {
	case ExportFile, ExportBrowser:
	default:
		errs = append(errs, fmt.Errorf("export.mode %q must be %q or %q", c.Export.Mode, ExportFile, ExportBrowser))
	}
	return errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Resolve picks the config file path: the explicit path, then
// NAVFINDER_CONFIG, then DefaultPath.
func Resolve(path string) string {
	if path != "" {
		return path
	}
	if v := os.Getenv("NAVFINDER_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML configuration file at the given path over the
// defaults, then applies .env and environment variable overrides. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NAVFINDER_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}

	if v := os.Getenv("NAVFINDER_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}

	if v := os.Getenv("NAVFINDER_EXPORT_MODE"); v != "" {
		cfg.Export.Mode = strings.ToLower(v)
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
