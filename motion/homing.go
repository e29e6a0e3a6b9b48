package motion

import (
	"grblcore/core"
	"grblcore/state"
)

// HomingCycle locates machine zero. A non-zero cycleMask homes that axis
// group alone; zero iterates the configured cycle table in order,
// stopping at the first failing group. On success the parser, planner
// and backlash positions resync to the homed location.
func (c *Controller) HomingCycle(cycleMask uint32) state.Status {
	m := c.M

	// With both travel-end switches wired to one pin, a switch already
	// engaged makes the seek direction ambiguous. Refuse outright.
	if m.Settings.TwoSwitchesOnOnePin && m.Motion.LimitsGetState() != 0 {
		m.RT.SetAlarm(core.AlarmHardLimit)
		m.ResetRequest()
		return state.StatusUnhandled
	}

	// The seek deliberately drives into the switches; the hard-limit
	// interrupt stays off for the duration.
	m.Motion.LimitsEnable(false, true)

	m.SetMode(state.ModeHoming)

	if cycleMask != 0 {
		c.limitSeek(cycleMask)
	} else {
		m.Homed = 0
		for _, group := range m.Settings.HomingCycles {
			if group.AxisMask == 0 {
				continue
			}
			cycleMask = group.AxisMask
			if !c.limitSeek(group.AxisMask) {
				break
			}
		}
	}

	if cycleMask != 0 {
		if !m.ExecuteRealtime() {
			return state.StatusUnhandled // alarm already latched by the reset path
		}

		// Sync every position consumer to the homed location.
		m.SyncPositions()
		c.SyncBacklashPosition()
		m.SetMode(state.ModeIdle)
	}

	m.Report.Homed = true

	// Re-arm hard limits per configuration. Always called so a driver
	// can switch back from homing inputs to limit inputs.
	m.Motion.LimitsEnable(m.Settings.HardLimitsEnabled, false)

	if m.Settings.HardLimitsEnabled && m.Settings.CheckLimitsAtInit && m.Motion.LimitsGetState() != 0 {
		return state.StatusLimitsEngaged
	}
	return state.StatusOK
}

// limitSeek homes one axis group: drive toward the switches until every
// axis in the mask triggers, discard the remainder of the seek, then
// pull off the switches. Returns false on abort.
func (c *Controller) limitSeek(mask uint32) bool {
	m := c.M
	s := m.Settings

	mask &= s.HomingEnabledMask
	if mask == 0 {
		return true
	}

	pl := core.PlanLineRequest{
		FeedRate: s.HomingSeekRate,
		Condition: core.PlanCondition{
			SystemMotion:   true,
			NoFeedOverride: true,
		},
	}

	// Seek 1.5x the axis travel so the switch is reached from anywhere.
	target := cloneVector(m.MachinePosition())
	for i := 0; i < s.AxisCount; i++ {
		bit := uint32(1) << uint(i)
		if mask&bit == 0 {
			continue
		}
		travel := (s.TravelMax[i] - s.TravelMin[i]) * 1.5
		if s.HomingDirectionMask&bit != 0 {
			target[i] -= travel
		} else {
			target[i] += travel
		}
	}

	// Homing motion bypasses the gateway: the seek target is outside the
	// travel extents on purpose, and backlash state resyncs afterwards.
	for m.Planner.IsFull() {
		if !m.ExecuteRealtime() {
			return false
		}
	}
	m.Planner.Push(target, &pl)
	m.RT.SetStateFlag(core.ExecStateCycleStart)

	for m.Motion.LimitsGetState()&mask != mask {
		if !m.ExecuteRealtime() {
			return false
		}
		if m.Mode&(state.ModeAlarm|state.ModeEStop) != 0 {
			return false
		}
	}
	core.RecordTiming(core.EvtHomingTrigger, 0, mask, 0)

	// Drop the rest of the seek move and stand still on the switch.
	m.Motion.ResetSegmentBuffer()
	m.Planner.Reset()
	m.Planner.SyncPositionFromSteps()

	// Pull off the switch so later motion does not start on it.
	pulloff := cloneVector(m.MachinePosition())
	for i := 0; i < s.AxisCount; i++ {
		bit := uint32(1) << uint(i)
		if mask&bit == 0 {
			continue
		}
		if s.HomingDirectionMask&bit != 0 {
			pulloff[i] += s.HomingPulloff
		} else {
			pulloff[i] -= s.HomingPulloff
		}
	}
	m.Planner.Push(pulloff, &pl)
	m.RT.SetStateFlag(core.ExecStateCycleStart)

	for m.Planner.HasCurrentBlock() {
		if !m.ExecuteRealtime() {
			return false
		}
		if m.Mode&(state.ModeAlarm|state.ModeEStop) != 0 {
			return false
		}
		// A stale cycle-complete can drop the mode to idle while the
		// pull-off is still queued; the checkpoint does not top up the
		// segment buffer in IDLE.
		m.SetMode(state.ModeHoming)
	}

	m.SetMode(state.ModeHoming) // a cycle-complete event may have dropped us to idle
	m.Homed |= mask
	return true
}
