package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite is the single-user local backend. Same Store surface as the
// Postgres DB, backed by a file database; used for self-hosted and dev
// setups where running Postgres is overkill.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dir/dallatrack.db and
// ensures the schema exists.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "dallatrack.db"))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS exercises (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		muscle_groups     TEXT NOT NULL DEFAULT '[]',
		rest_time_default INTEGER NOT NULL DEFAULT 90
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id                    TEXT PRIMARY KEY,
		user_id               INTEGER NOT NULL,
		routine_id            TEXT,
		start_time            TIMESTAMP NOT NULL,
		end_time              TIMESTAMP,
		is_paused             INTEGER NOT NULL DEFAULT 0,
		paused_at             TIMESTAMP,
		accumulated_pause_sec INTEGER NOT NULL DEFAULT 0,
		current_exercise_idx  INTEGER NOT NULL DEFAULT 0,
		current_set_idx       INTEGER NOT NULL DEFAULT 0,
		rating                INTEGER,
		notes                 TEXT NOT NULL DEFAULT '',
		exercises             TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id, start_time DESC)`,
	`CREATE TABLE IF NOT EXISTS session_summaries (
		session_id         TEXT PRIMARY KEY,
		user_id            INTEGER NOT NULL,
		duration_min       INTEGER NOT NULL,
		sets_completed     INTEGER NOT NULL,
		total_weight_moved REAL NOT NULL,
		recorded_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		user_id            INTEGER PRIMARY KEY,
		total_sessions     INTEGER NOT NULL DEFAULT 0,
		total_minutes      INTEGER NOT NULL DEFAULT 0,
		total_sets         INTEGER NOT NULL DEFAULT 0,
		total_weight_moved REAL NOT NULL DEFAULT 0
	)`,
}

// Close closes the database.
func (s *SQLite) Close() {
	s.db.Close()
}

// Load retrieves a session aggregate by id.
func (s *SQLite) Load(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, routine_id, start_time, end_time, is_paused, paused_at,
		 accumulated_pause_sec, current_exercise_idx, current_set_idx, rating, notes, exercises
		 FROM sessions WHERE id = ?`, id.String())

	var sess session.Session
	var idStr string
	var routineID sql.NullString
	var endTime, pausedAt sql.NullTime
	var rating sql.NullInt64
	var doc []byte
	err := row.Scan(&idStr, &sess.UserID, &routineID, &sess.StartTime, &endTime,
		&sess.IsPaused, &pausedAt, &sess.AccumulatedPauseSeconds,
		&sess.CurrentExerciseIndex, &sess.CurrentSetIndex, &rating, &sess.Notes, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	sess.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing session id: %w", err)
	}
	if routineID.Valid {
		rid, err := uuid.Parse(routineID.String)
		if err != nil {
			return nil, fmt.Errorf("parsing routine id: %w", err)
		}
		sess.RoutineID = &rid
	}
	if endTime.Valid {
		t := endTime.Time
		sess.EndTime = &t
	}
	if pausedAt.Valid {
		t := pausedAt.Time
		sess.PausedAt = &t
	}
	if rating.Valid {
		r := int(rating.Int64)
		sess.Rating = &r
	}

	sess.Exercises, err = normalizeExercises(doc)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	clampCursor(&sess)
	return &sess, nil
}

// Save writes the full session aggregate.
func (s *SQLite) Save(ctx context.Context, sess *session.Session) error {
	doc, err := json.Marshal(sess.Exercises)
	if err != nil {
		return fmt.Errorf("encoding exercises: %w", err)
	}

	var routineID any
	if sess.RoutineID != nil {
		routineID = sess.RoutineID.String()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, user_id, routine_id, start_time, end_time, is_paused,
		 paused_at, accumulated_pause_sec, current_exercise_idx, current_set_idx, rating, notes, exercises)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sess.ID.String(), sess.UserID, routineID, sess.StartTime, sess.EndTime, sess.IsPaused,
		sess.PausedAt, sess.AccumulatedPauseSeconds, sess.CurrentExerciseIndex, sess.CurrentSetIndex,
		sess.Rating, sess.Notes, string(doc))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// ListSessions retrieves a user's sessions, newest first.
func (s *SQLite) ListSessions(ctx context.Context, userID, limit int) ([]SessionListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, routine_id, start_time, end_time, rating
		 FROM sessions WHERE user_id = ?
		 ORDER BY start_time DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []SessionListItem
	for rows.Next() {
		var item SessionListItem
		var idStr string
		var routineID sql.NullString
		var endTime sql.NullTime
		var rating sql.NullInt64
		if err := rows.Scan(&idStr, &routineID, &item.StartTime, &endTime, &rating); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if item.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parsing session id: %w", err)
		}
		if routineID.Valid {
			rid, err := uuid.Parse(routineID.String)
			if err != nil {
				return nil, fmt.Errorf("parsing routine id: %w", err)
			}
			item.RoutineID = &rid
		}
		if endTime.Valid {
			t := endTime.Time
			item.EndTime = &t
		}
		if rating.Valid {
			r := int(rating.Int64)
			item.Rating = &r
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// GetExercise looks up one catalog exercise.
func (s *SQLite) GetExercise(ctx context.Context, id uuid.UUID) (session.ExerciseRef, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, muscle_groups, rest_time_default FROM exercises WHERE id = ?`, id.String())

	ref, err := scanExerciseRef(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return session.ExerciseRef{}, ErrNotFound
	}
	if err != nil {
		return session.ExerciseRef{}, fmt.Errorf("querying exercise: %w", err)
	}
	return ref, nil
}

// ListExercises returns the full catalog, ordered by name.
func (s *SQLite) ListExercises(ctx context.Context) ([]session.ExerciseRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, muscle_groups, rest_time_default FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []session.ExerciseRef
	for rows.Next() {
		ref, err := scanExerciseRef(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

func scanExerciseRef(scan func(dest ...any) error) (session.ExerciseRef, error) {
	var ref session.ExerciseRef
	var idStr, groups string
	if err := scan(&idStr, &ref.Name, &groups, &ref.RestTimeSeconds); err != nil {
		return ref, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return ref, fmt.Errorf("parsing exercise id: %w", err)
	}
	ref.ID = id
	if err := json.Unmarshal([]byte(groups), &ref.MuscleGroups); err != nil {
		return ref, fmt.Errorf("decoding muscle groups: %w", err)
	}
	return ref, nil
}

// AddCatalogExercise inserts a catalog exercise; used for seeding local
// databases.
func (s *SQLite) AddCatalogExercise(ctx context.Context, ref session.ExerciseRef) error {
	groups, err := json.Marshal(ref.MuscleGroups)
	if err != nil {
		return fmt.Errorf("encoding muscle groups: %w", err)
	}
	if ref.MuscleGroups == nil {
		groups = []byte("[]")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO exercises (id, name, muscle_groups, rest_time_default) VALUES (?,?,?,?)`,
		ref.ID.String(), ref.Name, string(groups), ref.RestTimeSeconds)
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

// RecordSummary stores a finalization summary and rolls it into the user's
// totals. Idempotent per session id.
func (s *SQLite) RecordSummary(ctx context.Context, sum session.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning summary tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_summaries (session_id, user_id, duration_min, sets_completed, total_weight_moved)
		 VALUES (?,?,?,?,?)`,
		sum.SessionID.String(), sum.UserID, sum.DurationMinutes, sum.SetsCompleted, sum.TotalWeightMoved)
	if err != nil {
		return fmt.Errorf("inserting summary: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking summary insert: %w", err)
	}
	if inserted > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_stats (user_id, total_sessions, total_minutes, total_sets, total_weight_moved)
			 VALUES (?, 1, ?, ?, ?)
			 ON CONFLICT (user_id) DO UPDATE SET
			   total_sessions = total_sessions + 1,
			   total_minutes = total_minutes + excluded.total_minutes,
			   total_sets = total_sets + excluded.total_sets,
			   total_weight_moved = total_weight_moved + excluded.total_weight_moved`,
			sum.UserID, sum.DurationMinutes, sum.SetsCompleted, sum.TotalWeightMoved)
		if err != nil {
			return fmt.Errorf("updating user stats: %w", err)
		}
	}

	return tx.Commit()
}

// GetSummary retrieves the persisted summary for one session.
func (s *SQLite) GetSummary(ctx context.Context, sessionID uuid.UUID) (*SummaryRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, duration_min, sets_completed, total_weight_moved, recorded_at
		 FROM session_summaries WHERE session_id = ?`, sessionID.String())

	var sum SummaryRow
	var idStr string
	err := row.Scan(&idStr, &sum.UserID, &sum.DurationMinutes, &sum.SetsCompleted, &sum.TotalWeightMoved, &sum.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	if sum.SessionID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parsing session id: %w", err)
	}
	return &sum, nil
}

// GetUserStats retrieves a user's rolled-up training totals.
func (s *SQLite) GetUserStats(ctx context.Context, userID int) (*UserStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, total_sessions, total_minutes, total_sets, total_weight_moved
		 FROM user_stats WHERE user_id = ?`, userID)

	stats := &UserStats{UserID: userID}
	err := row.Scan(&stats.UserID, &stats.TotalSessions, &stats.TotalMinutes, &stats.TotalSets, &stats.TotalWeightMoved)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user stats: %w", err)
	}
	return stats, nil
}
