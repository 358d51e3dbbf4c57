// Package storage persists normalized record tables.
//
// A Gateway appends tables idempotently: rows whose timestamp is already
// stored are skipped, never reported as errors. Reads return the canonical
// columns only, ordered by timestamp.
package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "cgmdose/internal/errors"
	"cgmdose/pkg/contracts/domain"
)

// Gateway is the persistence contract consumed by the ingest and analysis
// services.
type Gateway interface {
	// InsertRecords appends t and returns the number of rows newly stored.
	InsertRecords(ctx context.Context, t domain.Table) (int64, error)

	// ReadAll returns every stored record.
	ReadAll(ctx context.Context) (domain.Table, error)

	// ReadDaysFromNow returns the records dated on or after midnight of the
	// current day minus days.
	ReadDaysFromNow(ctx context.Context, days int) (domain.Table, error)

	Close()
}

// Cutoff returns midnight of now's calendar date minus days. Stored
// timestamps carry no zone, so the result is expressed in UTC with now's
// wall-clock date.
func Cutoff(now time.Time, days int) (time.Time, error) {
	if days < 0 {
		return time.Time{}, apperrors.NewAppValidationError(fmt.Sprintf("days must be >= 0, got %d", days)).
			WithContext("days", days)
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -days), nil
}
