// internal/domain/history/repository.go
package history

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ImportMode controls how a bulk import combines with existing history.
type ImportMode string

const (
	// ImportModeMerge upserts periods by start date and skips logs that
	// duplicate an existing one (per DedupeKey), keeping the earliest
	// created-at timestamp on duplicates.
	ImportModeMerge ImportMode = "merge"
	// ImportModeReplace discards all existing history first.
	ImportModeReplace ImportMode = "replace"
)

// DeleteMode selects which of a day's logs a deletion removes.
type DeleteMode string

const (
	DeleteModeLast  DeleteMode = "last"  // only the most recently created log
	DeleteModeAny   DeleteMode = "any"   // every log on the day
	DeleteModeExact DeleteMode = "exact" // logs matching a LogFilter
)

var ErrUnknownMode = errors.New("unknown mode")

// ParseImportMode validates a raw import mode, defaulting empty to merge.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ImportModeMerge, ImportModeReplace:
		return ImportMode(s), nil
	case "":
		return ImportModeMerge, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ParseDeleteMode validates a raw delete mode, defaulting empty to last.
func ParseDeleteMode(s string) (DeleteMode, error) {
	switch DeleteMode(s) {
	case DeleteModeLast, DeleteModeAny, DeleteModeExact:
		return DeleteMode(s), nil
	case "":
		return DeleteModeLast, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Repository defines persistence for recorded periods and daily logs.
type Repository interface {
	// Period methods
	// UpsertPeriod inserts a period or, when one with the same start date
	// exists, updates its end date. An unset end never clears a stored one.
	UpsertPeriod(ctx context.Context, period *Period) error
	ListPeriods(ctx context.Context) ([]*Period, error) // sorted by start ascending

	// Daily log methods
	CreateLog(ctx context.Context, log *DailyLog) error
	ListLogs(ctx context.Context) ([]*DailyLog, error) // sorted by day, then created-at
	ListLogsByDay(ctx context.Context, day time.Time) ([]*DailyLog, error)
	// DeleteLogs removes logs on the given day per the mode and returns how
	// many were removed. The filter applies only to DeleteModeExact.
	DeleteLogs(ctx context.Context, day time.Time, mode DeleteMode, filter LogFilter) (int, error)

	// ImportHistory applies a bulk import atomically.
	ImportHistory(ctx context.Context, periods []*Period, logs []*DailyLog, mode ImportMode) error
}
