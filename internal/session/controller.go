package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists session aggregates. Save is always a full-aggregate
// overwrite; partial-field patching could leave invariants broken between
// writes.
type Store interface {
	Load(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// Catalog supplies exercise metadata. Consulted only when an exercise is
// added; the result is copied into the session, not referenced live.
type Catalog interface {
	GetExercise(ctx context.Context, id uuid.UUID) (ExerciseRef, error)
}

// StatsSink receives the finalization summary. It must be idempotent per
// session id: finalize may be retried after a failed save.
type StatsSink interface {
	RecordSummary(ctx context.Context, sum Summary) error
}

// Controller orchestrates session commands: each command loads the latest
// persisted aggregate, validates, mutates, and writes the whole aggregate
// back. One client drives one session at a time; there is no multi-writer
// locking beyond last-write-wins at the store.
type Controller struct {
	store   Store
	catalog Catalog
	stats   StatsSink
	log     *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	timers map[uuid.UUID]*RestTimer
}

// NewController creates a Controller. now is the wall clock; pass time.Now
// in production.
func NewController(store Store, catalog Catalog, stats StatsSink, log *slog.Logger, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		store:   store,
		catalog: catalog,
		stats:   stats,
		log:     log,
		now:     now,
		timers:  make(map[uuid.UUID]*RestTimer),
	}
}

// Now returns the controller's wall-clock reading; display code derives
// elapsed time from it rather than accumulating ticks.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Get returns the current persisted state of a session.
func (c *Controller) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return c.store.Load(ctx, id)
}

// Create builds a new active session from catalog exercise ids and persists
// it. At least one exercise is required.
func (c *Controller) Create(ctx context.Context, userID int, routineID *uuid.UUID, exerciseIDs []uuid.UUID) (*Session, error) {
	refs := make([]ExerciseRef, 0, len(exerciseIDs))
	for _, id := range exerciseIDs {
		ref, err := c.catalog.GetExercise(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("looking up exercise %s: %w", id, err)
		}
		refs = append(refs, ref)
	}
	s, err := New(userID, routineID, refs, c.now())
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving new session: %w", err)
	}
	c.log.Info("session created", "session_id", s.ID, "exercises", len(s.Exercises))
	return s, nil
}

// Pause stops the active clock. Idempotent: pausing a paused session is a
// no-op, not an error.
func (c *Controller) Pause(ctx context.Context, id uuid.UUID) (*Session, error) {
	return c.mutate(ctx, id, func(s *Session) error {
		if s.IsPaused {
			return nil
		}
		now := c.now()
		s.IsPaused = true
		s.PausedAt = &now
		c.setTimerPaused(id, true)
		return nil
	})
}

// Resume restarts the active clock, folding the pause interval into the
// accumulated total.
func (c *Controller) Resume(ctx context.Context, id uuid.UUID) (*Session, error) {
	return c.mutate(ctx, id, func(s *Session) error {
		if !s.IsPaused {
			return nil
		}
		if s.PausedAt != nil {
			s.AccumulatedPauseSeconds += int(c.now().Sub(*s.PausedAt).Seconds())
		}
		s.IsPaused = false
		s.PausedAt = nil
		c.setTimerPaused(id, false)
		return nil
	})
}

// CompleteSet records reps and weight against the current set, advances the
// cursor, and arms the rest timer when the exercise has more sets to go.
func (c *Controller) CompleteSet(ctx context.Context, id uuid.UUID, reps int, weight float64) (*Session, error) {
	return c.mutate(ctx, id, func(s *Session) error {
		if s.IsPaused {
			return ErrSessionPaused
		}
		ex := s.CurrentExercise()
		if ex.Completed() {
			return ErrExerciseAlreadyComplete
		}
		// After re-selecting a partially completed exercise the cursor sits
		// at set 0, which may already be done; completion targets the first
		// set still open.
		if ex.Sets[s.CurrentSetIndex].Completed {
			s.CurrentSetIndex = ex.firstIncompleteSet()
		}
		if err := completeSet(ex, s.CurrentSetIndex, reps, weight, c.now()); err != nil {
			return err
		}
		advanceAfterCompletion(s)
		if !ex.Completed() {
			c.armTimer(id, ex.RestTimeSeconds, s.IsPaused)
		}
		return nil
	})
}

// AddSet appends a set to the exercise at exerciseIndex.
func (c *Controller) AddSet(ctx context.Context, id uuid.UUID, exerciseIndex int) (*Session, error) {
	return c.mutate(ctx, id, func(s *Session) error {
		return addSet(s, exerciseIndex)
	})
}

// RemoveSet deletes a set, subject to the ledger guards.
func (c *Controller) RemoveSet(ctx context.Context, id uuid.UUID, exerciseIndex, setIndex int) (*Session, error) {
	return c.mutate(ctx, id, func(s *Session) error {
		return removeSet(s, exerciseIndex, setIndex)
	})
}

// AddExercise looks up a catalog exercise and appends it to the roster with
// default sets.
func (c *Controller) AddExercise(ctx context.Context, id uuid.UUID, exerciseID uuid.UUID) (*Session, error) {
	ref, err := c.catalog.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("looking up exercise %s: %w", exerciseID, err)
	}
	return c.mutate(ctx, id, func(s *Session) error {
		return addExercise(s, ref)
	})
}

// RemoveExercise deletes an exercise, subject to the roster guards.
func (c *Controller) RemoveExercise(ctx context.Context, id uuid.UUID, exerciseIndex int) (*Session, error) {
	return c.mutate(ctx, id, func(s *Session) error {
		return removeExercise(s, exerciseIndex)
	})
}

// ReorderExercises moves one exercise to a new position.
func (c *Controller) ReorderExercises(ctx context.Context, id uuid.UUID, fromIndex, toIndex int) (*Session, error) {
	return c.mutate(ctx, id, func(s *Session) error {
		return reorderExercises(s, fromIndex, toIndex)
	})
}

// SelectExercise points the cursor at another exercise.
func (c *Controller) SelectExercise(ctx context.Context, id uuid.UUID, exerciseIndex int) (*Session, error) {
	return c.mutate(ctx, id, func(s *Session) error {
		return selectExercise(s, exerciseIndex)
	})
}

// Finalize closes the session: sets the end time, computes the summary
// aggregates, hands them to the stats sink, and persists the terminal state.
// The sink is invoked before the save so a failed save can be retried; the
// sink is idempotent per session id.
func (c *Controller) Finalize(ctx context.Context, id uuid.UUID, rating *int, notes string) (*Session, error) {
	s, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Finalized() {
		return nil, ErrSessionFinalized
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, ErrInvalidInput
	}

	now := c.now()
	if s.IsPaused {
		if s.PausedAt != nil {
			s.AccumulatedPauseSeconds += int(now.Sub(*s.PausedAt).Seconds())
		}
		s.IsPaused = false
		s.PausedAt = nil
	}
	s.EndTime = &now
	s.Rating = rating
	s.Notes = notes

	sum := Summarize(s)
	if err := c.stats.RecordSummary(ctx, sum); err != nil {
		return nil, fmt.Errorf("recording summary: %w", err)
	}
	if err := c.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving finalized session: %w", err)
	}
	c.dropTimer(id)
	c.log.Info("session finalized",
		"session_id", s.ID,
		"duration_min", sum.DurationMinutes,
		"sets_completed", sum.SetsCompleted,
		"total_weight", sum.TotalWeightMoved,
	)
	return s, nil
}

// mutate runs one command against the latest persisted aggregate and writes
// the result back in full. Terminal sessions reject every command.
func (c *Controller) mutate(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	s, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Finalized() {
		return nil, ErrSessionFinalized
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// --- rest timer bookkeeping (ephemeral, per controller) ---

// RestRemaining returns the seconds left on a session's rest countdown;
// zero means no timer is armed.
func (c *Controller) RestRemaining(id uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		return t.Remaining()
	}
	return 0
}

// ExtendRest adds delta seconds to a session's rest countdown.
func (c *Controller) ExtendRest(id uuid.UUID, delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		t.Extend(delta)
		return t.Remaining()
	}
	return 0
}

// SkipRest zeroes a session's rest countdown.
func (c *Controller) SkipRest(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		t.Skip()
		delete(c.timers, id)
	}
}

// TickRestTimers advances every armed countdown by one second. Driven at
// 1 Hz by the server binary; purely cosmetic, it never touches persisted
// state, so lost ticks are harmless.
func (c *Controller) TickRestTimers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Tick()
		if !t.Armed() {
			delete(c.timers, id)
		}
	}
}

func (c *Controller) armTimer(id uuid.UUID, seconds int, paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &RestTimer{}
	t.Arm(seconds)
	t.setPaused(paused)
	c.timers[id] = t
}

func (c *Controller) setTimerPaused(id uuid.UUID, paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		t.setPaused(paused)
	}
}

func (c *Controller) dropTimer(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timers, id)
}
