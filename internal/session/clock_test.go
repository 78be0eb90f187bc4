package session

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

// TestElapsedSecondsRunning verifies straight elapsed time with no pauses.
func TestElapsedSecondsRunning(t *testing.T) {
	s := &Session{StartTime: t0}
	if got := ElapsedSeconds(s, t0.Add(90*time.Second)); got != 90 {
		t.Errorf("elapsed = %d, want 90", got)
	}
}

// TestElapsedSecondsAfterPause verifies pause accounting: pause at T0+100s
// for 50s, elapsed at T0+200s while running again must be 150.
func TestElapsedSecondsAfterPause(t *testing.T) {
	s := &Session{StartTime: t0, AccumulatedPauseSeconds: 50}
	if got := ElapsedSeconds(s, t0.Add(200*time.Second)); got != 150 {
		t.Errorf("elapsed = %d, want 150", got)
	}
}

// TestElapsedSecondsWhilePaused verifies the clock holds still during an
// ongoing pause: the open pause interval is subtracted from elapsed time.
func TestElapsedSecondsWhilePaused(t *testing.T) {
	pausedAt := t0.Add(100 * time.Second)
	s := &Session{StartTime: t0, IsPaused: true, PausedAt: &pausedAt}

	for _, offset := range []time.Duration{100, 130, 400} {
		if got := ElapsedSeconds(s, t0.Add(offset*time.Second)); got != 100 {
			t.Errorf("elapsed at +%ds = %d, want 100", offset, got)
		}
	}
}

// TestElapsedSecondsNeverNegative verifies clock skew cannot produce a
// negative elapsed value.
func TestElapsedSecondsNeverNegative(t *testing.T) {
	s := &Session{StartTime: t0, AccumulatedPauseSeconds: 1000}
	if got := ElapsedSeconds(s, t0.Add(10*time.Second)); got != 0 {
		t.Errorf("elapsed = %d, want 0", got)
	}
}
