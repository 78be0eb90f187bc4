package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetExercise looks up one catalog exercise. The caller copies the result
// into the session; catalog rows are never referenced live from history.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (session.ExerciseRef, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, name, muscle_groups, rest_time_default FROM exercises WHERE id = $1`, id)

	var ref session.ExerciseRef
	err := row.Scan(&ref.ID, &ref.Name, &ref.MuscleGroups, &ref.RestTimeSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.ExerciseRef{}, ErrNotFound
	}
	if err != nil {
		return session.ExerciseRef{}, fmt.Errorf("querying exercise: %w", err)
	}
	return ref, nil
}

// ListExercises returns the full catalog, ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]session.ExerciseRef, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, muscle_groups, rest_time_default FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []session.ExerciseRef
	for rows.Next() {
		var ref session.ExerciseRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.MuscleGroups, &ref.RestTimeSeconds); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}
