package storage

import (
	"encoding/json"
	"fmt"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/google/uuid"
)

// Legacy session documents stored an exercise's sets in two shapes: the
// detailed array the engine works with, and (in early data) a bare count of
// planned sets. Normalization happens here, at the persistence boundary, so
// the engine only ever sees the canonical Set sequence.

type rawSessionExercise struct {
	ExerciseID      uuid.UUID       `json:"exerciseId"`
	Name            string          `json:"name"`
	MuscleGroups    []string        `json:"muscleGroups"`
	RestTimeSeconds int             `json:"restTimeSeconds"`
	Order           int             `json:"order"`
	Sets            json.RawMessage `json:"sets"`
}

// normalizeExercises decodes a stored exercises document, converting any
// bare-count sets field into that many default incomplete sets.
func normalizeExercises(doc []byte) ([]session.SessionExercise, error) {
	var raw []rawSessionExercise
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("decoding exercises document: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty exercise list")
	}

	exercises := make([]session.SessionExercise, 0, len(raw))
	for i, r := range raw {
		ex := session.SessionExercise{
			ExerciseID:      r.ExerciseID,
			Name:            r.Name,
			MuscleGroups:    r.MuscleGroups,
			RestTimeSeconds: r.RestTimeSeconds,
			Order:           r.Order,
		}
		if ex.Order == 0 {
			ex.Order = i + 1
		}

		sets, err := normalizeSets(r.Sets)
		if err != nil {
			return nil, fmt.Errorf("exercise %d (%s): %w", i, r.Name, err)
		}
		ex.Sets = sets
		exercises = append(exercises, ex)
	}
	return exercises, nil
}

func normalizeSets(raw json.RawMessage) ([]session.Set, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("missing sets field")
	}

	var sets []session.Set
	if err := json.Unmarshal(raw, &sets); err == nil {
		if len(sets) == 0 {
			return nil, fmt.Errorf("empty set list")
		}
		for i := range sets {
			sets[i].SetNumber = i + 1
			if sets[i].ID == uuid.Nil {
				sets[i].ID = uuid.New()
			}
		}
		return sets, nil
	}

	// Legacy shape: a bare count of planned sets.
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return nil, fmt.Errorf("unrecognized sets shape %q", raw)
	}
	if count < 1 {
		return nil, fmt.Errorf("set count %d out of range", count)
	}
	sets = make([]session.Set, count)
	for i := range sets {
		sets[i] = session.Set{
			ID:           uuid.New(),
			SetNumber:    i + 1,
			TargetReps:   session.DefaultTargetReps,
			TargetWeight: session.DefaultTargetWeight,
		}
	}
	return sets, nil
}

// clampCursor forces a stored progression cursor into the bounds of the
// normalized document. Documents edited outside the engine can carry indexes
// past the end of their slices; the engine assumes both are valid.
func clampCursor(s *session.Session) {
	if s.CurrentExerciseIndex < 0 || s.CurrentExerciseIndex >= len(s.Exercises) {
		s.CurrentExerciseIndex = 0
	}
	if n := len(s.CurrentExercise().Sets); s.CurrentSetIndex < 0 || s.CurrentSetIndex >= n {
		s.CurrentSetIndex = 0
	}
}
