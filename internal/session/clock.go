package session

import "time"

// ElapsedSeconds returns the active (non-paused) seconds elapsed since the
// session started, as of now. The value is always recomputed from the stored
// timestamps and the pause ledger, never accumulated tick by tick, so missed
// ticks and reconnects cannot drift it.
func ElapsedSeconds(s *Session, now time.Time) int {
	elapsed := int(now.Sub(s.StartTime).Seconds()) - s.AccumulatedPauseSeconds
	if s.IsPaused && s.PausedAt != nil {
		elapsed -= int(now.Sub(*s.PausedAt).Seconds())
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
