package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/browser"

	"navfinder/internal/domain"
)

// BrowserNavigator hands the download URL to the system browser, which
// takes care of saving the file.
type BrowserNavigator struct {
	open func(url string) error
	log  *slog.Logger
}

// NewBrowserNavigator returns a navigator backed by the default browser.
func NewBrowserNavigator(log *slog.Logger) *BrowserNavigator {
	if log == nil {
		log = slog.Default()
	}
	// The TUI owns the terminal; keep the launcher quiet.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &BrowserNavigator{open: browser.OpenURL, log: log.With("component", "export")}
}

func (n *BrowserNavigator) Navigate(_ context.Context, target string, fund domain.FundSummary, _ domain.DateRange) error {
	if err := n.open(target); err != nil {
		return fmt.Errorf("opening browser for %s: %w", fund.Code, err)
	}
	n.log.Info("download opened in browser", "code", fund.Code, "url", target)
	return nil
}
