package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"navfinder/internal/domain"
)

// Compile-time interface check.
var _ HistoryArchive = (*ParquetStore)(nil)

// ParquetStore implements HistoryArchive using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// NavRow is the Parquet schema for one archived NAV observation. NAV keeps
// the service's text so no precision is lost; Value is its float form for
// analytical readers, null when the text is not a number.
type NavRow struct {
	Code      string   `parquet:"code"`
	Date      string   `parquet:"date"`
	NAV       string   `parquet:"nav"`
	Value     *float64 `parquet:"value,optional"`
	FetchedAt int64    `parquet:"fetched_at,timestamp(millisecond)"` // Unix ms
}

// WriteHistory writes the series to
//
//	<DataDir>/nav/<CODE>/<YYYY-MM-DD>.parquet
//
// keyed by the fetch day, merging with anything already archived that day.
func (s *ParquetStore) WriteHistory(_ context.Context, code string, fetchedAt time.Time, records []domain.NavRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]NavRow, 0, len(records))
	for _, r := range records {
		row := NavRow{
			Code:      code,
			Date:      r.Date,
			NAV:       r.NAV.String(),
			FetchedAt: fetchedAt.UnixMilli(),
		}
		if d, err := r.NAV.Decimal(); err == nil {
			v, _ := d.Float64()
			row.Value = &v
		}
		rows = append(rows, row)
	}

	path, err := s.historyPath(code, fetchedAt)
	if err != nil {
		return err
	}
	existing, _ := readParquetFile[NavRow](path)
	merged := mergeNavRows(existing, rows)

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing history for %s/%s: %w", code, domain.Today(fetchedAt), err)
	}
	return nil
}

// ReadHistory reads the series archived for code on fetchDate.
func (s *ParquetStore) ReadHistory(_ context.Context, code string, fetchDate time.Time) ([]domain.NavRecord, error) {
	path, err := s.historyPath(code, fetchDate)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	rows, err := readParquetFile[NavRow](path)
	if err != nil {
		return nil, fmt.Errorf("reading history for %s: %w", code, err)
	}
	out := make([]domain.NavRecord, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = domain.NavRecord{Date: r.Date, NAV: domain.NavValue(r.NAV)}
	}
	return out, nil
}

// ListFetchDates lists the archive days present for code.
func (s *ParquetStore) ListFetchDates(_ context.Context, code string) ([]string, error) {
	dir, err := s.codeDir(code)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".parquet"); ok && !e.IsDir() {
			dates = append(dates, name)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// ErrInvalidCode is returned for scheme codes that cannot name a directory
// under the archive root.
var ErrInvalidCode = errors.New("invalid scheme code")

// codeDir returns <dataDir>/nav/<CODE>. The code must be a single path
// element.
func (s *ParquetStore) codeDir(code string) (string, error) {
	if code == "" || strings.ContainsAny(code, `/\:`) || strings.Contains(code, "..") || code == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return filepath.Join(s.DataDir, "nav", strings.ToUpper(code)), nil
}

// historyPath returns the filesystem path for a NAV Parquet file.
// Layout: <dataDir>/nav/<CODE>/<YYYY-MM-DD>.parquet
func (s *ParquetStore) historyPath(code string, fetchDate time.Time) (string, error) {
	dir, err := s.codeDir(code)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, domain.Today(fetchDate)+".parquet"), nil
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeNavRows deduplicates rows by NAV date, preferring incoming rows.
// Results are sorted by date ascending.
func mergeNavRows(existing, incoming []NavRow) []NavRow {
	seen := make(map[string]NavRow, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Date] = r
	}
	for _, r := range incoming {
		seen[r.Date] = r
	}

	merged := make([]NavRow, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}
