package motion

import (
	"grblcore/core"
	"grblcore/state"
)

// JogExecute validates and runs one jog motion. Jogs are teleoperated:
// feed overrides do not apply, soft-limit violations come back as a
// status code instead of an alarm, and the cycle starts immediately
// without the program state machine.
func (c *Controller) JogExecute(target []float64, pl *core.PlanLineRequest) state.Status {
	m := c.M

	pl.Condition.NoFeedOverride = true
	pl.Condition.Jog = true

	if m.Settings.SoftLimitsEnabled && !c.checkTravelLimits(target) {
		return state.StatusTravelExceeded
	}

	c.Line(target, pl)

	if (m.Mode == state.ModeIdle || m.Mode == state.ModeToolChange) && m.Planner.HasCurrentBlock() {
		m.SetMode(state.ModeJog)
		if m.Motion != nil {
			m.Motion.PrepBuffer()
			m.Motion.WakeUp()
		}
	}

	return state.StatusOK
}
