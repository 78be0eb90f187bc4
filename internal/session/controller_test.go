package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store keeping deep copies, so a rejected command
// cannot leak partial mutations into "persisted" state.
type memStore struct {
	sessions map[uuid.UUID][]byte
	saveErr  error
}

var errStoreNotFound = errors.New("session not found")

func newMemStore() *memStore {
	return &memStore{sessions: make(map[uuid.UUID][]byte)}
}

func (m *memStore) Load(_ context.Context, id uuid.UUID) (*Session, error) {
	raw, ok := m.sessions[id]
	if !ok {
		return nil, errStoreNotFound
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memStore) Save(_ context.Context, s *Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = raw
	return nil
}

// memCatalog serves exercise refs from a fixed map.
type memCatalog struct {
	refs map[uuid.UUID]ExerciseRef
}

func (m *memCatalog) GetExercise(_ context.Context, id uuid.UUID) (ExerciseRef, error) {
	ref, ok := m.refs[id]
	if !ok {
		return ExerciseRef{}, errStoreNotFound
	}
	return ref, nil
}

// memSink records summaries and stays idempotent per session id.
type memSink struct {
	summaries map[uuid.UUID]Summary
	calls     int
}

func (m *memSink) RecordSummary(_ context.Context, sum Summary) error {
	m.calls++
	if m.summaries == nil {
		m.summaries = make(map[uuid.UUID]Summary)
	}
	if _, ok := m.summaries[sum.SessionID]; !ok {
		m.summaries[sum.SessionID] = sum
	}
	return nil
}

type fixture struct {
	ctrl  *Controller
	store *memStore
	sink  *memSink
	clock *fakeClock
	id    uuid.UUID
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// newFixture persists a session with one exercise of three sets
// (restTimeSeconds=60) and returns a controller over it.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	sink := &memSink{}
	clock := &fakeClock{now: t0}

	s := testSession(t, 1, 3)
	s.Exercises[0].RestTimeSeconds = 60
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	catalog := &memCatalog{refs: map[uuid.UUID]ExerciseRef{}}
	ctrl := NewController(store, catalog, sink, slog.Default(), func() time.Time { return clock.now })
	return &fixture{ctrl: ctrl, store: store, sink: sink, clock: clock, id: s.ID}
}

func checkCursorInvariants(t *testing.T, s *Session) {
	t.Helper()
	if s.CurrentExerciseIndex < 0 || s.CurrentExerciseIndex >= len(s.Exercises) {
		t.Fatalf("currentExerciseIndex = %d out of range [0,%d)", s.CurrentExerciseIndex, len(s.Exercises))
	}
	if s.CurrentSetIndex < 0 || s.CurrentSetIndex >= len(s.CurrentExercise().Sets) {
		t.Fatalf("currentSetIndex = %d out of range [0,%d)", s.CurrentSetIndex, len(s.CurrentExercise().Sets))
	}
}

// TestPauseIdempotent verifies pausing twice yields the same accumulated
// pause seconds as pausing once, and resume folds the interval in exactly once.
func TestPauseIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock.advance(100 * time.Second)
	if _, err := f.ctrl.Pause(ctx, f.id); err != nil {
		t.Fatalf("pause: %v", err)
	}
	s, err := f.ctrl.Pause(ctx, f.id)
	if err != nil {
		t.Fatalf("second pause: %v", err)
	}
	if !s.IsPaused || s.PausedAt == nil {
		t.Fatal("session not paused")
	}
	if got := s.PausedAt.Sub(t0); got != 100*time.Second {
		t.Errorf("pausedAt offset = %v, want 100s (second pause must not reset it)", got)
	}

	f.clock.advance(50 * time.Second)
	s, err = f.ctrl.Resume(ctx, f.id)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if s.IsPaused || s.PausedAt != nil {
		t.Error("session still paused after resume")
	}
	if s.AccumulatedPauseSeconds != 50 {
		t.Errorf("accumulatedPauseSeconds = %d, want 50", s.AccumulatedPauseSeconds)
	}

	// Resume while running is a no-op.
	s, err = f.ctrl.Resume(ctx, f.id)
	if err != nil {
		t.Fatalf("second resume: %v", err)
	}
	if s.AccumulatedPauseSeconds != 50 {
		t.Errorf("accumulatedPauseSeconds after no-op resume = %d, want 50", s.AccumulatedPauseSeconds)
	}

	f.clock.advance(50 * time.Second)
	if got := ElapsedSeconds(s, f.clock.now); got != 150 {
		t.Errorf("elapsed = %d, want 150", got)
	}
}

// TestCompleteSetWhilePaused verifies set completion requires a running session.
func TestCompleteSetWhilePaused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ctrl.Pause(ctx, f.id); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := f.ctrl.CompleteSet(ctx, f.id, 10, 50); !errors.Is(err, ErrSessionPaused) {
		t.Errorf("err = %v, want ErrSessionPaused", err)
	}
}

// TestWorkoutScenario runs a full workout: three sets with rest 60s,
// checking cursor movement, rest-timer arming, and finalization aggregates.
func TestWorkoutScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Set 1: 10 × 50 → cursor to set 2, timer armed at 60.
	s, err := f.ctrl.CompleteSet(ctx, f.id, 10, 50)
	if err != nil {
		t.Fatalf("complete set 1: %v", err)
	}
	checkCursorInvariants(t, s)
	if s.CurrentSetIndex != 1 {
		t.Errorf("currentSetIndex = %d, want 1", s.CurrentSetIndex)
	}
	if got := f.ctrl.RestRemaining(f.id); got != 60 {
		t.Errorf("rest remaining = %d, want 60", got)
	}

	f.ctrl.SkipRest(f.id)
	if got := f.ctrl.RestRemaining(f.id); got != 0 {
		t.Errorf("rest remaining after skip = %d, want 0", got)
	}

	// Set 2: 8 × 55.
	s, err = f.ctrl.CompleteSet(ctx, f.id, 8, 55)
	if err != nil {
		t.Fatalf("complete set 2: %v", err)
	}
	if s.CurrentSetIndex != 2 {
		t.Errorf("currentSetIndex = %d, want 2", s.CurrentSetIndex)
	}
	if got := f.ctrl.RestRemaining(f.id); got != 60 {
		t.Errorf("rest remaining = %d, want 60", got)
	}

	// Set 3 (last): cursor stays at 2, timer not armed.
	f.ctrl.SkipRest(f.id)
	s, err = f.ctrl.CompleteSet(ctx, f.id, 6, 60)
	if err != nil {
		t.Fatalf("complete set 3: %v", err)
	}
	if s.CurrentSetIndex != 2 {
		t.Errorf("currentSetIndex after last set = %d, want 2", s.CurrentSetIndex)
	}
	if got := f.ctrl.RestRemaining(f.id); got != 0 {
		t.Errorf("rest timer armed after last set, remaining = %d", got)
	}

	// A fourth completion hits the explicit guard.
	if _, err := f.ctrl.CompleteSet(ctx, f.id, 5, 60); !errors.Is(err, ErrExerciseAlreadyComplete) {
		t.Errorf("err = %v, want ErrExerciseAlreadyComplete", err)
	}

	// Finalize: 500 + 440 + 360 = 1300 moved across 3 sets.
	f.clock.advance(45 * time.Minute)
	rating := 4
	s, err = f.ctrl.Finalize(ctx, f.id, &rating, "solid")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !s.Finalized() {
		t.Fatal("session not finalized")
	}

	sum, ok := f.sink.summaries[f.id]
	if !ok {
		t.Fatal("summary never reached the stats sink")
	}
	if sum.SetsCompleted != 3 {
		t.Errorf("setsCompleted = %d, want 3", sum.SetsCompleted)
	}
	if sum.TotalWeightMoved != 1300 {
		t.Errorf("totalWeightMoved = %.0f, want 1300", sum.TotalWeightMoved)
	}
	if sum.DurationMinutes != 45 {
		t.Errorf("durationMinutes = %d, want 45", sum.DurationMinutes)
	}
}

// TestFinalizeImmutability verifies every command on a finalized session
// fails with ErrSessionFinalized and leaves the persisted state untouched.
func TestFinalizeImmutability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ctrl.Finalize(ctx, f.id, nil, ""); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	before := string(f.store.sessions[f.id])

	commands := map[string]func() error{
		"pause":    func() error { _, err := f.ctrl.Pause(ctx, f.id); return err },
		"resume":   func() error { _, err := f.ctrl.Resume(ctx, f.id); return err },
		"complete": func() error { _, err := f.ctrl.CompleteSet(ctx, f.id, 10, 50); return err },
		"addSet":   func() error { _, err := f.ctrl.AddSet(ctx, f.id, 0); return err },
		"removeSet": func() error {
			_, err := f.ctrl.RemoveSet(ctx, f.id, 0, 1)
			return err
		},
		"removeExercise": func() error { _, err := f.ctrl.RemoveExercise(ctx, f.id, 0); return err },
		"reorder":        func() error { _, err := f.ctrl.ReorderExercises(ctx, f.id, 0, 0); return err },
		"select":         func() error { _, err := f.ctrl.SelectExercise(ctx, f.id, 0); return err },
		"finalize":       func() error { _, err := f.ctrl.Finalize(ctx, f.id, nil, ""); return err },
	}
	for name, cmd := range commands {
		if err := cmd(); !errors.Is(err, ErrSessionFinalized) {
			t.Errorf("%s: err = %v, want ErrSessionFinalized", name, err)
		}
	}

	if after := string(f.store.sessions[f.id]); after != before {
		t.Error("rejected commands changed the persisted session")
	}
}

// TestFinalizeWhilePaused verifies finalizing a paused session folds the open
// pause interval into the accumulated total before computing duration.
func TestFinalizeWhilePaused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock.advance(10 * time.Minute)
	if _, err := f.ctrl.Pause(ctx, f.id); err != nil {
		t.Fatalf("pause: %v", err)
	}
	f.clock.advance(5 * time.Minute)

	s, err := f.ctrl.Finalize(ctx, f.id, nil, "")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if s.IsPaused || s.PausedAt != nil {
		t.Error("finalized session left paused")
	}
	if got := f.sink.summaries[f.id].DurationMinutes; got != 10 {
		t.Errorf("durationMinutes = %d, want 10", got)
	}
}

// TestFinalizeRetryAfterSaveFailure verifies a failed terminal save leaves
// the session active and a retry records the summary idempotently.
func TestFinalizeRetryAfterSaveFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.saveErr = errors.New("write failed")
	if _, err := f.ctrl.Finalize(ctx, f.id, nil, ""); err == nil {
		t.Fatal("expected finalize to fail on save error")
	}

	s, err := f.ctrl.Get(ctx, f.id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Finalized() {
		t.Fatal("failed finalize must not persist a terminal session")
	}

	f.store.saveErr = nil
	if _, err := f.ctrl.Finalize(ctx, f.id, nil, ""); err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
	if f.sink.calls != 2 {
		t.Errorf("sink calls = %d, want 2 (retry re-records)", f.sink.calls)
	}
	if len(f.sink.summaries) != 1 {
		t.Errorf("distinct summaries = %d, want 1 (sink idempotent)", len(f.sink.summaries))
	}
}

// TestFinalizeRatingBounds verifies finalize rejects ratings outside 1..5.
func TestFinalizeRatingBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := 6
	if _, err := f.ctrl.Finalize(ctx, f.id, &bad, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	s, err := f.ctrl.Get(ctx, f.id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Finalized() {
		t.Error("invalid rating must not finalize the session")
	}
}

// TestCompleteSetAfterReselect verifies completion against a re-selected,
// partially completed exercise lands on its first open set.
func TestCompleteSetAfterReselect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ctrl.CompleteSet(ctx, f.id, 10, 50); err != nil {
		t.Fatalf("complete set 1: %v", err)
	}
	// Re-select the same exercise: cursor returns to set 0, which is done.
	if _, err := f.ctrl.SelectExercise(ctx, f.id, 0); err != nil {
		t.Fatalf("select: %v", err)
	}

	s, err := f.ctrl.CompleteSet(ctx, f.id, 8, 55)
	if err != nil {
		t.Fatalf("complete after reselect: %v", err)
	}
	checkCursorInvariants(t, s)
	if !s.Exercises[0].Sets[1].Completed {
		t.Error("completion did not land on the first open set")
	}
	if s.Exercises[0].Sets[0].Reps == nil || *s.Exercises[0].Sets[0].Reps != 10 {
		t.Error("earlier completed set was altered")
	}
}

// TestTickRestTimersGatedOnPause verifies the 1 Hz tick skips timers of
// paused sessions and disarms expired ones.
func TestTickRestTimersGatedOnPause(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ctrl.CompleteSet(ctx, f.id, 10, 50); err != nil {
		t.Fatalf("complete: %v", err)
	}
	f.ctrl.TickRestTimers()
	if got := f.ctrl.RestRemaining(f.id); got != 59 {
		t.Errorf("remaining = %d, want 59", got)
	}

	if _, err := f.ctrl.Pause(ctx, f.id); err != nil {
		t.Fatalf("pause: %v", err)
	}
	f.ctrl.TickRestTimers()
	f.ctrl.TickRestTimers()
	if got := f.ctrl.RestRemaining(f.id); got != 59 {
		t.Errorf("remaining while paused = %d, want 59", got)
	}

	if _, err := f.ctrl.Resume(ctx, f.id); err != nil {
		t.Fatalf("resume: %v", err)
	}
	f.ctrl.TickRestTimers()
	if got := f.ctrl.RestRemaining(f.id); got != 58 {
		t.Errorf("remaining after resume = %d, want 58", got)
	}

	if got := f.ctrl.ExtendRest(f.id, 30); got != 88 {
		t.Errorf("remaining after extend = %d, want 88", got)
	}
}

// TestCreateSession verifies Create builds an active session from catalog
// refs and rejects an empty exercise list.
func TestCreateSession(t *testing.T) {
	store := newMemStore()
	benchID := uuid.New()
	catalog := &memCatalog{refs: map[uuid.UUID]ExerciseRef{
		benchID: {ID: benchID, Name: "Bench Press", MuscleGroups: []string{"chest"}, RestTimeSeconds: 120},
	}}
	ctrl := NewController(store, catalog, &memSink{}, slog.Default(), func() time.Time { return t0 })
	ctx := context.Background()

	s, err := ctrl.Create(ctx, 1, nil, []uuid.UUID{benchID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Finalized() || s.IsPaused {
		t.Error("new session must be active and unpaused")
	}
	if len(s.Exercises) != 1 || len(s.Exercises[0].Sets) != 3 {
		t.Fatalf("exercises/sets = %d/%d, want 1/3", len(s.Exercises), len(s.Exercises[0].Sets))
	}
	checkCursorInvariants(t, s)
	if _, err := store.Load(ctx, s.ID); err != nil {
		t.Errorf("created session not persisted: %v", err)
	}

	if _, err := ctrl.Create(ctx, 1, nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty create: err = %v, want ErrInvalidInput", err)
	}
}
