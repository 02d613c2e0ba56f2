package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navfinder/internal/domain"
	"navfinder/internal/mockapi"
	"navfinder/internal/widget"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	_ widget.Navigator = (*FileNavigator)(nil)
	_ widget.Navigator = (*BrowserNavigator)(nil)
)

type memLedger struct {
	entries []domain.Export
	err     error
}

func (l *memLedger) RecordExport(_ context.Context, e *domain.Export) error {
	if l.err != nil {
		return l.err
	}
	e.ID = "id-1"
	l.entries = append(l.entries, *e)
	return nil
}

func (l *memLedger) RecentExports(context.Context, int) ([]domain.Export, error) {
	return l.entries, nil
}

func TestAttachmentName(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`attachment; filename="report.csv"`, "report.csv"},
		{`attachment; filename=plain.csv`, "plain.csv"},
		{`attachment; filename=Axis Bluechip Fund_nav_history.csv`, "Axis Bluechip Fund_nav_history.csv"},
		{`attachment; filename="../../etc/passwd"`, "passwd"},
		{`attachment`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AttachmentName(tt.header), tt.header)
	}
}

func TestDefaultFilename(t *testing.T) {
	assert.Equal(t, "Axis Bluechip_nav_history.csv", DefaultFilename("Axis Bluechip"))
	assert.Equal(t, "fund_data_nav_history.csv", DefaultFilename(""))
	assert.Equal(t, "b_nav_history.csv", DefaultFilename("a/b"))
}

func TestFileNavigatorAgainstFixtureService(t *testing.T) {
	server := httptest.NewServer(mockapi.NewCatalog().Handler(quiet))
	defer server.Close()

	dir := t.TempDir()
	ledger := &memLedger{}
	n := NewFileNavigator(server.Client(), dir, ledger, quiet)

	fund := domain.FundSummary{Code: "120503", Name: "Axis Bluechip Fund"}
	r := domain.DateRange{Start: "2023-10-24"}
	target := widget.BuildDownloadURL(server.URL+"/download", fund, r)

	e, err := n.Download(context.Background(), target, fund, r)
	require.NoError(t, err)

	want := filepath.Join(dir, "Axis Bluechip Fund_nav_history.csv")
	assert.Equal(t, want, e.Path)
	body, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "date,nav\n2023-10-25,54.23\n2023-10-24,54.89\n", string(body))
	assert.Equal(t, int64(len(body)), e.Bytes)

	require.Len(t, ledger.entries, 1)
	assert.Equal(t, "120503", ledger.entries[0].Code)
	assert.Equal(t, r, ledger.entries[0].Range)

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".navfinder-*"))
	assert.Empty(t, leftovers)
}

func TestFileNavigatorFallsBackToFundName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("date,nav\n"))
	}))
	defer server.Close()

	dir := t.TempDir()
	n := NewFileNavigator(nil, dir, nil, quiet)
	err := n.Navigate(context.Background(), server.URL, domain.FundSummary{Code: "1", Name: "Fund X"}, domain.DateRange{})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "Fund X_nav_history.csv"))
	assert.NoError(t, err)
}

func TestFileNavigatorReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(mockapi.NewCatalog().Handler(quiet))
	defer server.Close()

	dir := t.TempDir()
	ledger := &memLedger{}
	n := NewFileNavigator(server.Client(), dir, ledger, quiet)

	fund := domain.FundSummary{Code: "120503", Name: "Axis"}
	target := widget.BuildDownloadURL(server.URL+"/download", fund, domain.DateRange{Start: "2030-01-01"})
	err := n.Navigate(context.Background(), target, fund, domain.DateRange{Start: "2030-01-01"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
	assert.Empty(t, ledger.entries)
}

func TestFileNavigatorLedgerFailureKeepsFile(t *testing.T) {
	server := httptest.NewServer(mockapi.NewCatalog().Handler(quiet))
	defer server.Close()

	dir := t.TempDir()
	n := NewFileNavigator(server.Client(), dir, &memLedger{err: errors.New("locked")}, quiet)

	fund := domain.FundSummary{Code: "120503", Name: "Axis"}
	err := n.Navigate(context.Background(), widget.BuildDownloadURL(server.URL+"/download", fund, domain.DateRange{}), fund, domain.DateRange{})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "Axis_nav_history.csv"))
	assert.NoError(t, err)
}

func TestBrowserNavigator(t *testing.T) {
	var opened []string
	n := NewBrowserNavigator(quiet)
	n.open = func(url string) error {
		opened = append(opened, url)
		return nil
	}

	fund := domain.FundSummary{Code: "120503", Name: "Axis"}
	require.NoError(t, n.Navigate(context.Background(), "http://nav.test/download?code=120503", fund, domain.DateRange{}))
	assert.Equal(t, []string{"http://nav.test/download?code=120503"}, opened)

	n.open = func(string) error { return errors.New("no browser") }
	assert.Error(t, n.Navigate(context.Background(), "x", fund, domain.DateRange{}))
}
