package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Load retrieves a session aggregate by id.
func (db *DB) Load(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, routine_id, start_time, end_time, is_paused, paused_at,
		 accumulated_pause_sec, current_exercise_idx, current_set_idx, rating, notes, exercises
		 FROM sessions WHERE id = $1`, id)

	var s session.Session
	var doc []byte
	err := row.Scan(&s.ID, &s.UserID, &s.RoutineID, &s.StartTime, &s.EndTime,
		&s.IsPaused, &s.PausedAt, &s.AccumulatedPauseSeconds,
		&s.CurrentExerciseIndex, &s.CurrentSetIndex, &s.Rating, &s.Notes, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	s.Exercises, err = normalizeExercises(doc)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	clampCursor(&s)
	return &s, nil
}

// Save writes the full session aggregate, inserting or overwriting the whole
// row. Commands never patch individual fields.
func (db *DB) Save(ctx context.Context, s *session.Session) error {
	doc, err := json.Marshal(s.Exercises)
	if err != nil {
		return fmt.Errorf("encoding exercises: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, routine_id, start_time, end_time, is_paused, paused_at,
		 accumulated_pause_sec, current_exercise_idx, current_set_idx, rating, notes, exercises)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (id) DO UPDATE SET
		   end_time = EXCLUDED.end_time,
		   is_paused = EXCLUDED.is_paused,
		   paused_at = EXCLUDED.paused_at,
		   accumulated_pause_sec = EXCLUDED.accumulated_pause_sec,
		   current_exercise_idx = EXCLUDED.current_exercise_idx,
		   current_set_idx = EXCLUDED.current_set_idx,
		   rating = EXCLUDED.rating,
		   notes = EXCLUDED.notes,
		   exercises = EXCLUDED.exercises`,
		s.ID, s.UserID, s.RoutineID, s.StartTime, s.EndTime, s.IsPaused, s.PausedAt,
		s.AccumulatedPauseSeconds, s.CurrentExerciseIndex, s.CurrentSetIndex,
		s.Rating, s.Notes, doc)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// ListSessions retrieves a user's sessions, newest first.
func (db *DB) ListSessions(ctx context.Context, userID, limit int) ([]SessionListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, routine_id, start_time, end_time, rating
		 FROM sessions WHERE user_id = $1
		 ORDER BY start_time DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []SessionListItem
	for rows.Next() {
		var item SessionListItem
		if err := rows.Scan(&item.ID, &item.RoutineID, &item.StartTime, &item.EndTime, &item.Rating); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
