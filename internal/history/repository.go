// Package history records actuation attempts in the actuation_events table
// and serves the most recent ones back to the API and CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Page size bounds for Recent.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Event is one Actuate call as seen by the controller.
type Event struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Pattern  int32   `json:"pattern"`
	Flags    uint32  `json:"flags"`
	Param1   float32 `json:"param1"`
	Param2   float32 `json:"param2"`
	DeviceID string  `json:"device_id,omitempty"`
	Attempts int     `json:"attempts"`
	Success  bool    `json:"success"`
	// Status is the driver status of the last attempt, if any.
	Status     string        `json:"status,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Repository defines the interface for actuation history.
type Repository interface {
	Record(ctx context.Context, event *Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// SQLiteRepository stores events in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a history repository over an open database
// that has the actuation_events migration applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts event. ID and OccurredAt are generated when empty.
func (r *SQLiteRepository) Record(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO actuation_events
		   (id, source, pattern, flags, param1, param2, device_id, attempts, success, status, error, duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Source, event.Pattern, int64(event.Flags),
		float64(event.Param1), float64(event.Param2),
		nullableString(event.DeviceID), event.Attempts, boolToInt(event.Success),
		nullableString(event.Status), nullableString(event.Error),
		event.Duration.Microseconds(),
		event.OccurredAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting actuation event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. limit is clamped to
// [1, MaxLimit]; zero or negative means DefaultLimit.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Event, error) {
	limit = ClampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, pattern, flags, param1, param2, device_id, attempts, success, status, error, duration_us, created_at
		 FROM actuation_events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying actuation events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			e                         Event
			flags                     int64
			param1, param2            float64
			deviceID, status, errText sql.NullString
			success                   int
			durationUS                int64
			createdAt                 string
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Pattern, &flags, &param1, &param2,
			&deviceID, &e.Attempts, &success, &status, &errText, &durationUS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning actuation event: %w", err)
		}
		e.Flags = uint32(flags) //nolint:gosec // stored from a uint32
		e.Param1 = float32(param1)
		e.Param2 = float32(param2)
		e.DeviceID = deviceID.String
		e.Status = status.String
		e.Error = errText.String
		e.Success = success != 0
		e.Duration = time.Duration(durationUS) * time.Microsecond
		e.OccurredAt, _ = time.Parse(timeLayout, createdAt) //nolint:errcheck // Format is controlled
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actuation events: %w", err)
	}
	return events, nil
}

// ClampLimit applies the Recent page size rules.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
