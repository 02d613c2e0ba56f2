// Package export carries out the download navigation the widget requests,
// either by saving the CSV to disk or by handing the URL to a browser.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"navfinder/internal/domain"
	"navfinder/internal/store"
)

// FileNavigator downloads the target into a directory and records each
// completed file in a ledger.
type FileNavigator struct {
	client *http.Client
	dir    string
	ledger store.ExportLedger
	log    *slog.Logger
}

// NewFileNavigator saves downloads under dir. ledger may be nil.
func NewFileNavigator(client *http.Client, dir string, ledger store.ExportLedger, log *slog.Logger) *FileNavigator {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileNavigator{client: client, dir: dir, ledger: ledger, log: log.With("component", "export")}
}

// Navigate fetches target and writes the body to disk.
func (n *FileNavigator) Navigate(ctx context.Context, target string, fund domain.FundSummary, r domain.DateRange) error {
	_, err := n.Download(ctx, target, fund, r)
	return err
}

// Download is Navigate returning the ledger entry of the saved file.
func (n *FileNavigator) Download(ctx context.Context, target string, fund domain.FundSummary, r domain.DateRange) (*domain.Export, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", fund.Code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("downloading %s: %d %s", fund.Code, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	name := AttachmentName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = DefaultFilename(fund.Name)
	}
	path := filepath.Join(n.dir, name)

	written, err := writeAtomic(path, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", path, err)
	}
	n.log.Info("export saved", "code", fund.Code, "path", path, "bytes", written)

	e := &domain.Export{Code: fund.Code, Name: fund.Name, Range: r, Path: path, Bytes: written}
	if n.ledger != nil {
		if err := n.ledger.RecordExport(ctx, e); err != nil {
			n.log.Warn("recording export", "path", path, "error", err)
		}
	}
	return e, nil
}

// DefaultFilename is the name the NAV service gives a fund's CSV.
func DefaultFilename(fundName string) string {
	if fundName == "" {
		fundName = "fund_data"
	}
	return sanitize(fundName + "_nav_history.csv")
}

// AttachmentName extracts the filename from a Content-Disposition header.
// Unquoted names containing spaces are accepted as sent. It returns "" when
// no usable name is present.
func AttachmentName(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		return sanitize(params["filename"])
	}
	_, rest, ok := strings.Cut(header, "filename=")
	if !ok {
		return ""
	}
	rest, _, _ = strings.Cut(rest, ";")
	return sanitize(strings.Trim(strings.TrimSpace(rest), `"`))
}

// sanitize keeps only the final path element so a header cannot point
// outside the export directory.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func writeAtomic(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".navfinder-*.part")
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return written, nil
}
