package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func seedSession(t *testing.T, s *SQLite) *session.Session {
	t.Helper()
	refs := []session.ExerciseRef{
		{ID: uuid.New(), Name: "Squat", MuscleGroups: []string{"legs"}, RestTimeSeconds: 120},
		{ID: uuid.New(), Name: "Bench Press", MuscleGroups: []string{"chest"}},
	}
	sess, err := session.New(1, nil, refs, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return sess
}

// TestSQLiteSessionRoundTrip verifies a full aggregate survives save and load.
func TestSQLiteSessionRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	sess := seedSession(t, s)

	got, err := s.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != sess.ID || got.UserID != 1 {
		t.Errorf("identity = (%s, %d), want (%s, 1)", got.ID, got.UserID, sess.ID)
	}
	if !got.StartTime.Equal(sess.StartTime) {
		t.Errorf("startTime = %v, want %v", got.StartTime, sess.StartTime)
	}
	if got.EndTime != nil || got.IsPaused || got.PausedAt != nil {
		t.Error("fresh session must be active and unpaused")
	}
	if len(got.Exercises) != 2 {
		t.Fatalf("len(exercises) = %d, want 2", len(got.Exercises))
	}
	if got.Exercises[0].Name != "Squat" || got.Exercises[0].RestTimeSeconds != 120 {
		t.Errorf("exercise 0 = (%q, %d)", got.Exercises[0].Name, got.Exercises[0].RestTimeSeconds)
	}
	if got.Exercises[1].RestTimeSeconds != session.DefaultRestTimeSeconds {
		t.Errorf("exercise 1 rest = %d, want default %d", got.Exercises[1].RestTimeSeconds, session.DefaultRestTimeSeconds)
	}
	if len(got.Exercises[0].Sets) != 3 {
		t.Errorf("len(sets) = %d, want 3", len(got.Exercises[0].Sets))
	}
}

// TestSQLiteSaveOverwrites verifies Save is a full-aggregate overwrite, not
// an insert-only operation.
func TestSQLiteSaveOverwrites(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	sess := seedSession(t, s)

	end := sess.StartTime.Add(40 * time.Minute)
	rating := 5
	sess.EndTime = &end
	sess.Rating = &rating
	sess.Notes = "pr day"
	sess.CurrentSetIndex = 2
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	got, err := s.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.EndTime == nil || !got.EndTime.Equal(end) {
		t.Errorf("endTime = %v, want %v", got.EndTime, end)
	}
	if got.Rating == nil || *got.Rating != 5 || got.Notes != "pr day" {
		t.Error("rating/notes not persisted")
	}
	if got.CurrentSetIndex != 2 {
		t.Errorf("currentSetIndex = %d, want 2", got.CurrentSetIndex)
	}
}

// TestSQLiteLoadClampsCursor verifies a stored cursor pointing past the end
// of its slices is forced back into bounds on load, so pulling the current
// set can never index out of range.
func TestSQLiteLoadClampsCursor(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	sess := seedSession(t, s)

	sess.CurrentExerciseIndex = 5
	sess.CurrentSetIndex = 99
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.CurrentExerciseIndex != 0 || got.CurrentSetIndex != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0)", got.CurrentExerciseIndex, got.CurrentSetIndex)
	}
	if got.CurrentSetIndex >= len(got.CurrentExercise().Sets) {
		t.Error("set cursor out of range after load")
	}
}

// TestSQLiteLoadNotFound verifies an unknown id maps to ErrNotFound.
func TestSQLiteLoadNotFound(t *testing.T) {
	s := openTestDB(t)
	if _, err := s.Load(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestSQLiteCatalog verifies catalog insert, lookup, listing, and the
// not-found path.
func TestSQLiteCatalog(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	ref := session.ExerciseRef{ID: uuid.New(), Name: "Overhead Press", MuscleGroups: []string{"shoulders"}, RestTimeSeconds: 150}
	if err := s.AddCatalogExercise(ctx, ref); err != nil {
		t.Fatalf("AddCatalogExercise: %v", err)
	}

	got, err := s.GetExercise(ctx, ref.ID)
	if err != nil {
		t.Fatalf("GetExercise: %v", err)
	}
	if got.Name != ref.Name || got.RestTimeSeconds != 150 {
		t.Errorf("ref = (%q, %d), want (%q, 150)", got.Name, got.RestTimeSeconds, ref.Name)
	}
	if len(got.MuscleGroups) != 1 || got.MuscleGroups[0] != "shoulders" {
		t.Errorf("muscleGroups = %v, want [shoulders]", got.MuscleGroups)
	}

	all, err := s.ListExercises(ctx)
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len(catalog) = %d, want 1", len(all))
	}

	if _, err := s.GetExercise(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestSQLiteRecordSummaryIdempotent verifies a summary recorded twice for the
// same session counts once in the user totals.
func TestSQLiteRecordSummaryIdempotent(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	sum := session.Summary{
		SessionID:        uuid.New(),
		UserID:           1,
		DurationMinutes:  45,
		SetsCompleted:    12,
		TotalWeightMoved: 5400,
	}
	for i := 0; i < 2; i++ {
		if err := s.RecordSummary(ctx, sum); err != nil {
			t.Fatalf("RecordSummary #%d: %v", i+1, err)
		}
	}

	stats, err := s.GetUserStats(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if stats.TotalSessions != 1 || stats.TotalMinutes != 45 || stats.TotalSets != 12 || stats.TotalWeightMoved != 5400 {
		t.Errorf("stats = %+v, want one session's worth", stats)
	}

	// A second session accumulates.
	sum.SessionID = uuid.New()
	sum.DurationMinutes = 30
	if err := s.RecordSummary(ctx, sum); err != nil {
		t.Fatalf("RecordSummary: %v", err)
	}
	stats, err = s.GetUserStats(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if stats.TotalSessions != 2 || stats.TotalMinutes != 75 {
		t.Errorf("stats = %+v, want 2 sessions / 75 minutes", stats)
	}

	got, err := s.GetSummary(ctx, sum.SessionID)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if got.DurationMinutes != 30 || got.SetsCompleted != 12 {
		t.Errorf("summary = %+v", got)
	}
}

// TestSQLiteGetUserStatsEmpty verifies a user with no finalized sessions
// gets zero totals, not an error.
func TestSQLiteGetUserStatsEmpty(t *testing.T) {
	s := openTestDB(t)
	stats, err := s.GetUserStats(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if stats.TotalSessions != 0 || stats.TotalWeightMoved != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
}

// TestSQLiteListSessions verifies listing returns a user's sessions newest
// first without leaking other users' data.
func TestSQLiteListSessions(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	first := seedSession(t, s)
	second := seedSession(t, s)
	second.StartTime = second.StartTime.Add(24 * time.Hour)
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other, err := session.New(2, nil, []session.ExerciseRef{{ID: uuid.New(), Name: "Row"}}, time.Now())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if err := s.Save(ctx, other); err != nil {
		t.Fatalf("Save: %v", err)
	}

	items, err := s.ListSessions(ctx, 1, 0)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Error("sessions not ordered newest first")
	}
}
