package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"menstrual_tracker_daemon/internal/domain/cycle"
	"menstrual_tracker_daemon/internal/domain/history"
)

// Dates are stored as YYYY-MM-DD text and timestamps in this fixed-width
// UTC layout, so lexicographic ORDER BY equals chronological order on both
// dialects.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dbtx is the subset of *sql.DB and *sql.Tx the repositories run on.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// bindDialect rewrites ? placeholders into the $N style postgres expects.
// SQLite queries pass through unchanged.
func bindDialect(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// SQLHistoryRepository stores recorded periods and daily logs in the
// relational schema, speaking either supported dialect.
type SQLHistoryRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLHistoryRepository(db *sql.DB, dialect Dialect) *SQLHistoryRepository {
	return &SQLHistoryRepository{db: db, dialect: dialect}
}

func (r *SQLHistoryRepository) bind(query string) string {
	return bindDialect(r.dialect, query)
}

func (r *SQLHistoryRepository) UpsertPeriod(ctx context.Context, period *history.Period) error {
	return r.upsertPeriodOn(ctx, r.db, period)
}

func (r *SQLHistoryRepository) upsertPeriodOn(ctx context.Context, q dbtx, period *history.Period) error {
	query := r.bind(`INSERT INTO periods (start_date, end_date)
        VALUES (?, ?)
        ON CONFLICT (start_date) DO UPDATE SET end_date = COALESCE(excluded.end_date, periods.end_date)
        RETURNING id, end_date`)

	var end any
	if period.End.Valid {
		end = cycle.FormatDate(period.End.Time)
	}
	var endStr sql.NullString
	if err := q.QueryRowContext(ctx, query, cycle.FormatDate(period.Start), end).Scan(&period.ID, &endStr); err != nil {
		return fmt.Errorf("error upserting period: %w", err)
	}
	// An unset end never clears a stored one; reflect what the row now holds.
	return applyPeriodEnd(period, endStr)
}

func applyPeriodEnd(period *history.Period, endStr sql.NullString) error {
	if !endStr.Valid {
		period.End = sql.NullTime{}
		return nil
	}
	end, err := cycle.ParseDate(endStr.String)
	if err != nil {
		return fmt.Errorf("corrupt period end date: %w", err)
	}
	period.End = sql.NullTime{Time: end, Valid: true}
	return nil
}

func (r *SQLHistoryRepository) ListPeriods(ctx context.Context) ([]*history.Period, error) {
	query := `SELECT id, start_date, end_date FROM periods ORDER BY start_date`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing periods: %w", err)
	}
	defer rows.Close()

	var periods []*history.Period
	for rows.Next() {
		p := &history.Period{}
		var startStr string
		var endStr sql.NullString
		if err := rows.Scan(&p.ID, &startStr, &endStr); err != nil {
			return nil, fmt.Errorf("error scanning period: %w", err)
		}
		start, err := cycle.ParseDate(startStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt period start date: %w", err)
		}
		p.Start = start
		if err := applyPeriodEnd(p, endStr); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period rows: %w", err)
	}
	return periods, nil
}

func (r *SQLHistoryRepository) CreateLog(ctx context.Context, log *history.DailyLog) error {
	return r.insertLogOn(ctx, r.db, log)
}

func (r *SQLHistoryRepository) insertLogOn(ctx context.Context, q dbtx, log *history.DailyLog) error {
	symptoms := []byte("[]")
	if log.Symptoms != nil {
		var err error
		symptoms, err = json.Marshal(log.Symptoms)
		if err != nil {
			return fmt.Errorf("error encoding symptoms: %w", err)
		}
	}
	query := r.bind(`INSERT INTO daily_logs (id, day, menstruating, flow, symptoms, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query,
		log.ID.String(),
		cycle.FormatDate(log.Day),
		log.Menstruating,
		string(log.Flow),
		string(symptoms),
		log.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("error creating daily log: %w", err)
	}
	return nil
}

func (r *SQLHistoryRepository) ListLogs(ctx context.Context) ([]*history.DailyLog, error) {
	query := `SELECT id, day, menstruating, flow, symptoms, created_at FROM daily_logs ORDER BY day, created_at`
	return r.queryLogs(ctx, r.db, query)
}

func (r *SQLHistoryRepository) ListLogsByDay(ctx context.Context, day time.Time) ([]*history.DailyLog, error) {
	query := r.bind(`SELECT id, day, menstruating, flow, symptoms, created_at FROM daily_logs WHERE day = ? ORDER BY created_at`)
	return r.queryLogs(ctx, r.db, query, cycle.FormatDate(cycle.DateOf(day)))
}

func (r *SQLHistoryRepository) queryLogs(ctx context.Context, q dbtx, query string, args ...any) ([]*history.DailyLog, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing daily logs: %w", err)
	}
	defer rows.Close()

	var logs []*history.DailyLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily log rows: %w", err)
	}
	return logs, nil
}

func scanLog(rows *sql.Rows) (*history.DailyLog, error) {
	var (
		idStr, dayStr, flowStr, symptomsJSON, createdStr string
		menstruating                                     bool
	)
	if err := rows.Scan(&idStr, &dayStr, &menstruating, &flowStr, &symptomsJSON, &createdStr); err != nil {
		return nil, fmt.Errorf("error scanning daily log: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt daily log id: %w", err)
	}
	day, err := cycle.ParseDate(dayStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt daily log day: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt daily log timestamp: %w", err)
	}
	var symptoms []string
	if err := json.Unmarshal([]byte(symptomsJSON), &symptoms); err != nil {
		return nil, fmt.Errorf("corrupt daily log symptoms: %w", err)
	}
	if symptoms == nil {
		symptoms = []string{}
	}
	return &history.DailyLog{
		ID:           id,
		Day:          day,
		Menstruating: menstruating,
		Flow:         history.FlowLevel(flowStr),
		Symptoms:     symptoms,
		CreatedAt:    createdAt.UTC(),
	}, nil
}

// DeleteLogs selects the day's victims per the mode inside one transaction.
// An unknown mode deletes nothing.
func (r *SQLHistoryRepository) DeleteLogs(ctx context.Context, day time.Time, mode history.DeleteMode, filter history.LogFilter) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting delete transaction: %w", err)
	}
	defer tx.Rollback()

	query := r.bind(`SELECT id, day, menstruating, flow, symptoms, created_at FROM daily_logs WHERE day = ? ORDER BY created_at`)
	candidates, err := r.queryLogs(ctx, tx, query, cycle.FormatDate(cycle.DateOf(day)))
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	var victims []*history.DailyLog
	switch mode {
	case history.DeleteModeAny:
		victims = candidates
	case history.DeleteModeLast:
		victims = candidates[len(candidates)-1:] // most recent, per the ordering
	case history.DeleteModeExact:
		for _, l := range candidates {
			if l.Matches(filter) {
				victims = append(victims, l)
			}
		}
	}
	if len(victims) == 0 {
		return 0, nil
	}

	deleteQuery := r.bind(`DELETE FROM daily_logs WHERE id = ?`)
	deleted := 0
	for _, l := range victims {
		res, err := tx.ExecContext(ctx, deleteQuery, l.ID.String())
		if err != nil {
			return 0, fmt.Errorf("error deleting daily log: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("error counting deleted daily logs: %w", err)
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing delete transaction: %w", err)
	}
	return deleted, nil
}

// ImportHistory applies a bulk import in one transaction. Merge upserts
// periods by start and drops logs duplicating a stored one (keeping the
// earliest created-at); replace wipes both tables first and keeps every
// incoming record.
func (r *SQLHistoryRepository) ImportHistory(ctx context.Context, periods []*history.Period, logs []*history.DailyLog, mode history.ImportMode) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting import transaction: %w", err)
	}
	defer tx.Rollback()

	if mode == history.ImportModeReplace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_logs`); err != nil {
			return fmt.Errorf("error clearing daily logs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM periods`); err != nil {
			return fmt.Errorf("error clearing periods: %w", err)
		}
	}

	for _, p := range periods {
		if err := r.upsertPeriodOn(ctx, tx, p); err != nil {
			return err
		}
	}

	merge := mode == history.ImportModeMerge
	existing := make(map[string]*history.DailyLog)
	if merge {
		stored, err := r.queryLogs(ctx, tx, `SELECT id, day, menstruating, flow, symptoms, created_at FROM daily_logs ORDER BY day, created_at`)
		if err != nil {
			return err
		}
		for _, l := range stored {
			existing[l.DedupeKey()] = l
		}
	}

	updateQuery := r.bind(`UPDATE daily_logs SET created_at = ? WHERE id = ?`)
	for _, l := range logs {
		if merge {
			if prev, ok := existing[l.DedupeKey()]; ok {
				if l.CreatedAt.Before(prev.CreatedAt) {
					if _, err := tx.ExecContext(ctx, updateQuery, l.CreatedAt.UTC().Format(timestampLayout), prev.ID.String()); err != nil {
						return fmt.Errorf("error updating daily log timestamp: %w", err)
					}
					prev.CreatedAt = l.CreatedAt
				}
				continue
			}
		}
		if err := r.insertLogOn(ctx, tx, l); err != nil {
			return err
		}
		if merge {
			existing[l.DedupeKey()] = l
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing import transaction: %w", err)
	}
	return nil
}
