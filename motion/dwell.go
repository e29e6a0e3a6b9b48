package motion

import "grblcore/state"

// Dwell holds with no motion for the given seconds, after all queued
// motion has finished. Cancellable: returns false on abort.
func (c *Controller) Dwell(seconds float64) bool {
	m := c.M

	if m.Mode == state.ModeCheck {
		return true
	}
	if !m.BufferSynchronize() {
		return false
	}

	if m.Clock == nil || seconds <= 0 {
		return !m.Aborted()
	}

	deadline := m.Clock.NowMillis() + uint64(seconds*1000)
	for m.Clock.NowMillis() < deadline {
		if !m.ExecuteRealtime() {
			return false
		}
	}
	return true
}
