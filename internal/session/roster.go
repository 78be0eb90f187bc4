package session

// Exercise roster operations: validated insertion, removal, and reordering of
// the session's exercise list, keeping the progression cursor consistent.

// addExercise appends a new exercise built from a catalog ref, with three
// default sets. Each catalog exercise may appear at most once per session.
func addExercise(s *Session, ref ExerciseRef) error {
	if s.findExercise(ref.ID) >= 0 {
		return ErrDuplicateExercise
	}
	s.Exercises = append(s.Exercises, newSessionExercise(ref, len(s.Exercises)+1))
	return nil
}

// removeExercise deletes one exercise, guarded so the session always keeps at
// least one exercise, never loses the current one, and never loses recorded
// work (a fully completed exercise).
func removeExercise(s *Session, exerciseIndex int) error {
	if exerciseIndex < 0 || exerciseIndex >= len(s.Exercises) {
		return ErrInvalidInput
	}
	if len(s.Exercises) == 1 {
		return ErrCannotDeleteOnlyExercise
	}
	if exerciseIndex == s.CurrentExerciseIndex {
		return ErrCannotDeleteCurrentExercise
	}
	if s.Exercises[exerciseIndex].Completed() {
		return ErrCannotDeleteCompletedExercise
	}

	s.Exercises = append(s.Exercises[:exerciseIndex], s.Exercises[exerciseIndex+1:]...)
	renumberExercises(s)
	reindexAfterRemoval(s, exerciseIndex)
	return nil
}

// reorderExercises moves one exercise to a new position. The cursor tracks
// the exercise it pointed at by identity, not by position, so the current
// exercise stays current wherever it lands.
func reorderExercises(s *Session, fromIndex, toIndex int) error {
	n := len(s.Exercises)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return ErrInvalidInput
	}
	if fromIndex == toIndex {
		return nil
	}

	currentID := s.CurrentExercise().ExerciseID

	moved := s.Exercises[fromIndex]
	s.Exercises = append(s.Exercises[:fromIndex], s.Exercises[fromIndex+1:]...)
	s.Exercises = append(s.Exercises, SessionExercise{})
	copy(s.Exercises[toIndex+1:], s.Exercises[toIndex:])
	s.Exercises[toIndex] = moved
	renumberExercises(s)

	s.CurrentExerciseIndex = s.findExercise(currentID)
	return nil
}

func renumberExercises(s *Session) {
	for i := range s.Exercises {
		s.Exercises[i].Order = i + 1
	}
}
