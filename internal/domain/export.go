package domain

import "time"

// Export is one completed CSV download written to disk.
type Export struct {
	ID        string
	Code      string
	Name      string
	Range     DateRange
	Path      string
	Bytes     int64
	CreatedAt time.Time
}
