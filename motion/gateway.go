package motion

import (
	"grblcore/core"
	"grblcore/state"
)

// Line is the single gateway into the planner. Every straight-line
// motion — program moves, arc segments, canned-cycle moves, jogs —
// passes through here so that soft limits, backlash compensation,
// backpressure and realtime events are handled in exactly one place.
// Returns false once the system is aborted.
func (c *Controller) Line(target []float64, pl *core.PlanLineRequest) bool {
	m := c.M

	// Jogging runs its own travel check and must not trip the alarm path.
	if !pl.Condition.Jog && m.Settings.SoftLimitsEnabled && !c.checkTravelLimits(target) {
		c.softLimitAlarm()
		return false
	}

	// Check mode validates but never plans. The soft-limit check above
	// has already run.
	if m.Mode == state.ModeCheck {
		return true
	}

	// Realtime window between every user-visible point.
	if !m.ExecuteRealtime() {
		return false
	}

	if c.backlash.enabledMask != 0 {
		if !c.injectBacklash(target, pl) {
			return false
		}
	}

	// A full buffer means we are well ahead of the machine. Park here
	// until a slot opens, starting the cycle and servicing events while
	// we wait.
	for m.Planner.IsFull() {
		m.AutoCycleStart()
		if !m.ExecuteRealtime() {
			return false
		}
	}

	if !m.Planner.Push(target, pl) &&
		m.Settings.LaserMode &&
		pl.Spindle.State == core.SpindleCW {
		// A zero-length move in laser mode with the beam on would drop
		// the S-word on the floor; apply the power setpoint directly.
		if m.Spindle != nil {
			m.Spindle.SetState(pl.Spindle.State, pl.Spindle.RPM)
		}
	} else {
		core.RecordTiming(core.EvtSegmentPush, 0, uint32(pl.LineNumber), 0)
	}

	return !m.Aborted()
}

// softLimitAlarm posts the soft-limit violation: kill in-flight motion,
// latch the alarm, and let the checkpoint park in the critical-event
// loop until the operator resets.
func (c *Controller) softLimitAlarm() {
	m := c.M
	m.RT.SetAlarm(core.AlarmSoftLimit)
	m.ResetRequest()
	m.ExecuteRealtime()
}
