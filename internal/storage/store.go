package storage

import (
	"context"
	"errors"
	"time"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a session, exercise, or summary does not
// exist in the store.
var ErrNotFound = errors.New("not found")

// SessionListItem is a lightweight history row, without the full exercise
// document.
type SessionListItem struct {
	ID        uuid.UUID  `json:"id"`
	RoutineID *uuid.UUID `json:"routineId,omitempty"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Rating    *int       `json:"rating,omitempty"`
}

// SummaryRow is a persisted finalization summary.
type SummaryRow struct {
	SessionID        uuid.UUID `json:"sessionId"`
	UserID           int       `json:"userId"`
	DurationMinutes  int       `json:"durationMinutes"`
	SetsCompleted    int       `json:"setsCompleted"`
	TotalWeightMoved float64   `json:"totalWeightMoved"`
	RecordedAt       time.Time `json:"recordedAt"`
}

// UserStats is the rolled-up training total consumed by the achievement and
// streak features.
type UserStats struct {
	UserID           int     `json:"userId"`
	TotalSessions    int64   `json:"totalSessions"`
	TotalMinutes     int64   `json:"totalMinutes"`
	TotalSets        int64   `json:"totalSets"`
	TotalWeightMoved float64 `json:"totalWeightMoved"`
}

// Store is the full persistence surface of the engine: the session
// aggregate store, the exercise catalog, and the stats sink, plus the read
// queries the HTTP and MCP surfaces use. Both *DB (Postgres) and *SQLite
// satisfy it.
type Store interface {
	session.Store
	session.Catalog
	session.StatsSink

	ListSessions(ctx context.Context, userID, limit int) ([]SessionListItem, error)
	GetSummary(ctx context.Context, sessionID uuid.UUID) (*SummaryRow, error)
	GetUserStats(ctx context.Context, userID int) (*UserStats, error)
	ListExercises(ctx context.Context) ([]session.ExerciseRef, error)
	Close()
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*SQLite)(nil)
)
