package session

// RestTimer is the countdown shown between sets. It is ephemeral UI state
// owned by the controller, never persisted with the session. Ticking is
// gated on the session's paused flag: a paused session's timer holds its
// value and resumes from there.
type RestTimer struct {
	remaining int
	paused    bool
}

// Arm starts the countdown at d seconds. Non-positive durations leave the
// timer disarmed.
func (t *RestTimer) Arm(d int) {
	if d > 0 {
		t.remaining = d
	}
}

// Extend adds delta seconds to the countdown. No upper bound.
func (t *RestTimer) Extend(delta int) {
	if t.remaining > 0 && delta > 0 {
		t.remaining += delta
	}
}

// Skip zeroes the countdown immediately.
func (t *RestTimer) Skip() {
	t.remaining = 0
}

// Tick decrements the countdown by one second unless the timer is paused or
// already disarmed.
func (t *RestTimer) Tick() {
	if t.paused || t.remaining == 0 {
		return
	}
	t.remaining--
}

// Remaining returns the seconds left; zero means disarmed.
func (t *RestTimer) Remaining() int {
	return t.remaining
}

// Armed reports whether the countdown is running.
func (t *RestTimer) Armed() bool {
	return t.remaining > 0
}

func (t *RestTimer) setPaused(paused bool) {
	t.paused = paused
}
