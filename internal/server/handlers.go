package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/GastonDalla/dallatrack/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// defaultUserID scopes all requests in single-user deployments.
const defaultUserID = 1

// sessionView is the command-surface response envelope: the full session
// plus the derived display values the client polls for.
type sessionView struct {
	*session.Session
	ElapsedSeconds int `json:"elapsedSeconds"`
	RestSeconds    int `json:"restSeconds"`
}

func (s *Server) view(sess *session.Session) sessionView {
	return sessionView{
		Session:        sess,
		ElapsedSeconds: session.ElapsedSeconds(sess, s.ctrl.Now()),
		RestSeconds:    s.ctrl.RestRemaining(sess.ID),
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoutineID   *uuid.UUID  `json:"routineId"`
		ExerciseIDs []uuid.UUID `json:"exerciseIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.ctrl.Create(r.Context(), defaultUserID, req.RoutineID, req.ExerciseIDs)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.view(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items, err := s.store.ListSessions(r.Context(), defaultUserID, limit)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := s.ctrl.Get(r.Context(), id)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sum, err := s.store.GetSummary(r.Context(), id)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.ctrl.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.ctrl.Resume)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req struct {
		Reps   int     `json:"reps"`
		Weight float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sess, err := s.ctrl.CompleteSet(r.Context(), id, req.Reps, req.Weight)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req struct {
		ExerciseIndex int `json:"exerciseIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sess, err := s.ctrl.AddSet(r.Context(), id, req.ExerciseIndex)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	exerciseIndex, ok := indexParam(w, r, "exerciseIndex")
	if !ok {
		return
	}
	setIndex, ok := indexParam(w, r, "setIndex")
	if !ok {
		return
	}
	sess, err := s.ctrl.RemoveSet(r.Context(), id, exerciseIndex, setIndex)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req struct {
		ExerciseID uuid.UUID `json:"exerciseId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sess, err := s.ctrl.AddExercise(r.Context(), id, req.ExerciseID)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	exerciseIndex, ok := indexParam(w, r, "exerciseIndex")
	if !ok {
		return
	}
	sess, err := s.ctrl.RemoveExercise(r.Context(), id, exerciseIndex)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleReorderExercises(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req struct {
		FromIndex int `json:"fromIndex"`
		ToIndex   int `json:"toIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sess, err := s.ctrl.ReorderExercises(r.Context(), id, req.FromIndex, req.ToIndex)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleSelectExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	exerciseIndex, ok := indexParam(w, r, "exerciseIndex")
	if !ok {
		return
	}
	sess, err := s.ctrl.SelectExercise(r.Context(), id, exerciseIndex)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req struct {
		Rating *int   `json:"rating"`
		Notes  string `json:"notes"`
	}
	// Rating and notes are optional; a body-less finalize is valid.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sess, err := s.ctrl.Finalize(r.Context(), id, req.Rating, req.Notes)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleRestTimer(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"restSeconds": s.ctrl.RestRemaining(id)})
}

func (s *Server) handleExtendRest(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req struct {
		Seconds int `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Seconds <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "seconds must be positive"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"restSeconds": s.ctrl.ExtendRest(id, req.Seconds)})
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	s.ctrl.SkipRest(id)
	writeJSON(w, http.StatusOK, map[string]int{"restSeconds": 0})
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	refs, err := s.store.ListExercises(r.Context())
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetUserStats(r.Context(), defaultUserID)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// command runs a body-less session command (pause, resume).
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*session.Session, error)) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := fn(r.Context(), id)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

// writeCommandError maps engine errors to status codes: validation failures
// to 400, guard and state violations to 409, unknown ids to 404, anything
// else to 500.
func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, session.ErrDuplicateExercise):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrCannotDeleteOnlySet),
		errors.Is(err, session.ErrCannotDeleteCompletedSet),
		errors.Is(err, session.ErrCannotDeleteCurrentSet),
		errors.Is(err, session.ErrCannotDeleteOnlyExercise),
		errors.Is(err, session.ErrCannotDeleteCurrentExercise),
		errors.Is(err, session.ErrCannotDeleteCompletedExercise),
		errors.Is(err, session.ErrExerciseAlreadyComplete),
		errors.Is(err, session.ErrSetAlreadyCompleted),
		errors.Is(err, session.ErrSessionPaused),
		errors.Is(err, session.ErrSessionFinalized):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("command error", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func indexParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
