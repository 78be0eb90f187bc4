package session

import (
	"time"

	"github.com/google/uuid"
)

// Set ledger operations: validated insertion, removal, and completion of sets
// within one exercise. setNumber values always form a contiguous 1..N
// sequence matching slice order; renumberSets restores that after removal.

// addSet appends a new incomplete set to the exercise at exerciseIndex,
// copying the targets of the last existing set.
func addSet(s *Session, exerciseIndex int) error {
	if exerciseIndex < 0 || exerciseIndex >= len(s.Exercises) {
		return ErrInvalidInput
	}
	ex := &s.Exercises[exerciseIndex]

	targetReps := DefaultTargetReps
	targetWeight := float64(DefaultTargetWeight)
	if n := len(ex.Sets); n > 0 {
		targetReps = ex.Sets[n-1].TargetReps
		targetWeight = ex.Sets[n-1].TargetWeight
	}

	ex.Sets = append(ex.Sets, Set{
		ID:           uuid.New(),
		SetNumber:    len(ex.Sets) + 1,
		TargetReps:   targetReps,
		TargetWeight: targetWeight,
	})
	return nil
}

// removeSet deletes one set, guarded so the session can never lose its last
// set, a completed set, or the set the cursor is on.
func removeSet(s *Session, exerciseIndex, setIndex int) error {
	if exerciseIndex < 0 || exerciseIndex >= len(s.Exercises) {
		return ErrInvalidInput
	}
	ex := &s.Exercises[exerciseIndex]
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return ErrInvalidInput
	}
	if len(ex.Sets) == 1 {
		return ErrCannotDeleteOnlySet
	}
	if ex.Sets[setIndex].Completed {
		return ErrCannotDeleteCompletedSet
	}
	if exerciseIndex == s.CurrentExerciseIndex && setIndex == s.CurrentSetIndex {
		return ErrCannotDeleteCurrentSet
	}

	ex.Sets = append(ex.Sets[:setIndex], ex.Sets[setIndex+1:]...)
	renumberSets(ex)

	// A deleted set before the cursor shifts the set cursor down one.
	if exerciseIndex == s.CurrentExerciseIndex && setIndex < s.CurrentSetIndex {
		s.CurrentSetIndex--
	}
	return nil
}

// completeSet records reps and weight on one set. Weight zero is valid
// (bodyweight work); reps must be positive.
func completeSet(ex *SessionExercise, setIndex, reps int, weight float64, now time.Time) error {
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return ErrInvalidInput
	}
	if reps <= 0 || weight < 0 {
		return ErrInvalidInput
	}
	set := &ex.Sets[setIndex]
	if set.Completed {
		return ErrSetAlreadyCompleted
	}
	set.Reps = &reps
	set.Weight = &weight
	set.Completed = true
	set.CompletedAt = &now
	return nil
}

func renumberSets(ex *SessionExercise) {
	for i := range ex.Sets {
		ex.Sets[i].SetNumber = i + 1
	}
}
