// Package session implements the active training-session engine: the state
// machine that drives a workout in progress. All types here are pure domain
// state; persistence and transport live elsewhere.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Default values applied to sets created by the engine (added sets and
// exercises added mid-session).
const (
	DefaultTargetReps      = "10"
	DefaultTargetWeight    = 0
	DefaultRestTimeSeconds = 90
	defaultSetsPerExercise = 3
)

// Set is one planned or completed set within an exercise.
type Set struct {
	ID           uuid.UUID  `json:"id"`
	SetNumber    int        `json:"setNumber"`
	TargetReps   string     `json:"targetReps"`
	TargetWeight float64    `json:"targetWeight"`
	Reps         *int       `json:"reps,omitempty"`
	Weight       *float64   `json:"weight,omitempty"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// SessionExercise is one exercise slot in a session. Name and muscle groups
// are copied from the catalog at creation time so later catalog edits do not
// rewrite history.
type SessionExercise struct {
	ExerciseID      uuid.UUID `json:"exerciseId"`
	Name            string    `json:"name"`
	MuscleGroups    []string  `json:"muscleGroups,omitempty"`
	RestTimeSeconds int       `json:"restTimeSeconds"`
	Order           int       `json:"order"`
	Sets            []Set     `json:"sets"`
}

// Completed reports whether every set of the exercise has been completed.
func (e *SessionExercise) Completed() bool {
	for i := range e.Sets {
		if !e.Sets[i].Completed {
			return false
		}
	}
	return len(e.Sets) > 0
}

// firstIncompleteSet returns the index of the first incomplete set, or -1.
func (e *SessionExercise) firstIncompleteSet() int {
	for i := range e.Sets {
		if !e.Sets[i].Completed {
			return i
		}
	}
	return -1
}

// Session is the root aggregate for one workout in progress (or finished).
type Session struct {
	ID                      uuid.UUID         `json:"id"`
	UserID                  int               `json:"userId"`
	RoutineID               *uuid.UUID        `json:"routineId,omitempty"`
	StartTime               time.Time         `json:"startTime"`
	EndTime                 *time.Time        `json:"endTime,omitempty"`
	IsPaused                bool              `json:"isPaused"`
	PausedAt                *time.Time        `json:"pausedAt,omitempty"`
	AccumulatedPauseSeconds int               `json:"accumulatedPauseSeconds"`
	CurrentExerciseIndex    int               `json:"currentExerciseIndex"`
	CurrentSetIndex         int               `json:"currentSetIndex"`
	Exercises               []SessionExercise `json:"exercises"`
	Rating                  *int              `json:"rating,omitempty"`
	Notes                   string            `json:"notes,omitempty"`
}

// ExerciseRef is the catalog data copied into a session when an exercise is
// added. restTimeDefault comes from the catalog; zero means "use the engine
// default".
type ExerciseRef struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MuscleGroups    []string  `json:"muscleGroups,omitempty"`
	RestTimeSeconds int       `json:"restTimeSeconds"`
}

// New creates an active, unpaused session from catalog refs. At least one
// exercise is required.
func New(userID int, routineID *uuid.UUID, refs []ExerciseRef, now time.Time) (*Session, error) {
	if len(refs) == 0 {
		return nil, ErrInvalidInput
	}
	s := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		RoutineID: routineID,
		StartTime: now,
	}
	for _, ref := range refs {
		if s.findExercise(ref.ID) >= 0 {
			return nil, ErrDuplicateExercise
		}
		s.Exercises = append(s.Exercises, newSessionExercise(ref, len(s.Exercises)+1))
	}
	return s, nil
}

func newSessionExercise(ref ExerciseRef, order int) SessionExercise {
	rest := ref.RestTimeSeconds
	if rest <= 0 {
		rest = DefaultRestTimeSeconds
	}
	e := SessionExercise{
		ExerciseID:      ref.ID,
		Name:            ref.Name,
		MuscleGroups:    ref.MuscleGroups,
		RestTimeSeconds: rest,
		Order:           order,
	}
	for i := 0; i < defaultSetsPerExercise; i++ {
		e.Sets = append(e.Sets, Set{
			ID:           uuid.New(),
			SetNumber:    i + 1,
			TargetReps:   DefaultTargetReps,
			TargetWeight: DefaultTargetWeight,
		})
	}
	return e
}

// Finalized reports whether the session has been closed into history.
func (s *Session) Finalized() bool {
	return s.EndTime != nil
}

// CurrentExercise returns the exercise the cursor points at.
func (s *Session) CurrentExercise() *SessionExercise {
	return &s.Exercises[s.CurrentExerciseIndex]
}

// findExercise returns the index of the exercise with the given catalog id,
// or -1 if not present.
func (s *Session) findExercise(exerciseID uuid.UUID) int {
	for i := range s.Exercises {
		if s.Exercises[i].ExerciseID == exerciseID {
			return i
		}
	}
	return -1
}
