package session

import "errors"

// Guard and validation errors returned by session commands. The HTTP layer
// maps these to status codes; none of them are retryable unmodified.
var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrDuplicateExercise        = errors.New("exercise already in session")
	ErrCannotDeleteOnlySet      = errors.New("cannot delete the only set")
	ErrCannotDeleteCompletedSet = errors.New("cannot delete a completed set")
	ErrCannotDeleteCurrentSet   = errors.New("cannot delete the current set")

	ErrCannotDeleteOnlyExercise      = errors.New("cannot delete the only exercise")
	ErrCannotDeleteCurrentExercise   = errors.New("cannot delete the current exercise")
	ErrCannotDeleteCompletedExercise = errors.New("cannot delete a completed exercise")
	ErrExerciseAlreadyComplete       = errors.New("exercise already complete")

	ErrSetAlreadyCompleted = errors.New("set already completed")
	ErrSessionPaused       = errors.New("session is paused")
	ErrSessionFinalized    = errors.New("session is finalized")
)
