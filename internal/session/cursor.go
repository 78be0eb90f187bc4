package session

// The progression cursor is the (currentExerciseIndex, currentSetIndex) pair
// on the Session. It is kept as plain indexes into the owned slices, never as
// pointers into them, so every removal and reorder goes through an explicit
// reindexing step below.

// advanceAfterCompletion moves the set cursor forward after a completion.
// On the last set of the exercise the cursor stays put: the exercise is done
// but remains current until the user selects another one.
func advanceAfterCompletion(s *Session) {
	if s.CurrentSetIndex+1 < len(s.CurrentExercise().Sets) {
		s.CurrentSetIndex++
	}
}

// selectExercise points the cursor at another exercise, resetting the set
// cursor to the top. Selecting a fully completed exercise is allowed; it does
// not reopen its sets.
func selectExercise(s *Session, exerciseIndex int) error {
	if exerciseIndex < 0 || exerciseIndex >= len(s.Exercises) {
		return ErrInvalidInput
	}
	s.CurrentExerciseIndex = exerciseIndex
	s.CurrentSetIndex = 0
	return nil
}

// reindexAfterRemoval shifts the exercise cursor after the exercise at
// removedIndex was deleted. The roster guarantees the removed exercise was
// not the current one, so only indexes before the cursor shift.
func reindexAfterRemoval(s *Session, removedIndex int) {
	if removedIndex < s.CurrentExerciseIndex {
		s.CurrentExerciseIndex--
	}
}
