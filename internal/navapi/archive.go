package navapi

import (
	"context"
	"log/slog"
	"time"

	"navfinder/internal/domain"
)

// Source is the pair of collaborator calls the widget consumes.
type Source interface {
	Search(ctx context.Context, query string) ([]domain.FundSummary, error)
	History(ctx context.Context, code string, r domain.DateRange) ([]domain.NavRecord, error)
}

// HistoryWriter persists a fetched NAV series.
type HistoryWriter interface {
	WriteHistory(ctx context.Context, code string, fetchedAt time.Time, records []domain.NavRecord) error
}

// Archiving wraps a Source and copies every successful, non-empty history
// response into an archive. Archive failures are logged and never fail the
// fetch.
type Archiving struct {
	next    Source
	archive HistoryWriter
	now     func() time.Time
	log     *slog.Logger
}

// NewArchiving returns next with history archiving attached.
func NewArchiving(next Source, archive HistoryWriter, log *slog.Logger) *Archiving {
	if log == nil {
		log = slog.Default()
	}
	return &Archiving{next: next, archive: archive, now: time.Now, log: log.With("component", "archive")}
}

func (a *Archiving) Search(ctx context.Context, query string) ([]domain.FundSummary, error) {
	return a.next.Search(ctx, query)
}

func (a *Archiving) History(ctx context.Context, code string, r domain.DateRange) ([]domain.NavRecord, error) {
	records, err := a.next.History(ctx, code, r)
	if err != nil || len(records) == 0 {
		return records, err
	}
	if werr := a.archive.WriteHistory(ctx, code, a.now(), records); werr != nil {
		a.log.Warn("archiving history", "code", code, "records", len(records), "error", werr)
	} else {
		a.log.Debug("history archived", "code", code, "records", len(records))
	}
	return records, nil
}
