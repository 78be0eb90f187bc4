package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordSummary stores a finalization summary and rolls it into the user's
// training totals. Idempotent per session id: the summary insert is
// ON CONFLICT DO NOTHING and the totals are only updated when the insert
// actually lands, so a retried finalize cannot double-count.
func (db *DB) RecordSummary(ctx context.Context, sum session.Summary) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning summary tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO session_summaries (session_id, user_id, duration_min, sets_completed, total_weight_moved)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (session_id) DO NOTHING`,
		sum.SessionID, sum.UserID, sum.DurationMinutes, sum.SetsCompleted, sum.TotalWeightMoved)
	if err != nil {
		return fmt.Errorf("inserting summary: %w", err)
	}

	if tag.RowsAffected() > 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO user_stats (user_id, total_sessions, total_minutes, total_sets, total_weight_moved)
			 VALUES ($1, 1, $2, $3, $4)
			 ON CONFLICT (user_id) DO UPDATE SET
			   total_sessions = user_stats.total_sessions + 1,
			   total_minutes = user_stats.total_minutes + EXCLUDED.total_minutes,
			   total_sets = user_stats.total_sets + EXCLUDED.total_sets,
			   total_weight_moved = user_stats.total_weight_moved + EXCLUDED.total_weight_moved`,
			sum.UserID, sum.DurationMinutes, sum.SetsCompleted, sum.TotalWeightMoved)
		if err != nil {
			return fmt.Errorf("updating user stats: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetSummary retrieves the persisted summary for one session.
func (db *DB) GetSummary(ctx context.Context, sessionID uuid.UUID) (*SummaryRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT session_id, user_id, duration_min, sets_completed, total_weight_moved, recorded_at
		 FROM session_summaries WHERE session_id = $1`, sessionID)

	var s SummaryRow
	err := row.Scan(&s.SessionID, &s.UserID, &s.DurationMinutes, &s.SetsCompleted, &s.TotalWeightMoved, &s.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	return &s, nil
}

// GetUserStats retrieves a user's rolled-up training totals. A user with no
// finalized sessions gets zero totals, not an error.
func (db *DB) GetUserStats(ctx context.Context, userID int) (*UserStats, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT user_id, total_sessions, total_minutes, total_sets, total_weight_moved
		 FROM user_stats WHERE user_id = $1`, userID)

	stats := &UserStats{UserID: userID}
	err := row.Scan(&stats.UserID, &stats.TotalSessions, &stats.TotalMinutes, &stats.TotalSets, &stats.TotalWeightMoved)
	if errors.Is(err, pgx.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user stats: %w", err)
	}
	return stats, nil
}
