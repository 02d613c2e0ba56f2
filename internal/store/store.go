// Package store persists fetched NAV histories and the ledger of completed
// exports.
package store

import (
	"context"
	"time"

	"navfinder/internal/domain"
)

// HistoryArchive keeps a copy of every NAV series fetched from the service.
type HistoryArchive interface {
	// WriteHistory merges records into the archive for code on the day of
	// fetchedAt. Records with the same NAV date are replaced.
	WriteHistory(ctx context.Context, code string, fetchedAt time.Time, records []domain.NavRecord) error

	// ReadHistory returns the series archived for code on fetchDate, newest
	// first.
	ReadHistory(ctx context.Context, code string, fetchDate time.Time) ([]domain.NavRecord, error)

	// ListFetchDates returns the days on which code was archived, oldest
	// first.
	ListFetchDates(ctx context.Context, code string) ([]string, error)
}

// ExportLedger records completed file exports.
type ExportLedger interface {
	// RecordExport stores e, assigning ID and CreatedAt when unset.
	RecordExport(ctx context.Context, e *domain.Export) error

	// RecentExports returns up to limit exports, newest first.
	RecentExports(ctx context.Context, limit int) ([]domain.Export, error)
}
