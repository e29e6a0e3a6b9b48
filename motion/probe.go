package motion

import (
	"grblcore/core"
	"grblcore/state"
)

// ProbeResult is the typed outcome of a probing cycle.
type ProbeResult uint8

const (
	ProbeFound ProbeResult = iota
	ProbeFailInit
	ProbeFailEnd
	ProbeCheckMode
	ProbeAbort
)

// ProbeFlags carry the parser's probing options.
type ProbeFlags struct {
	Away    bool // probing away from the workpiece: invert the pin sense
	NoError bool // G38.3/G38.5: missing contact is not an alarm
}

// ProbeCycle runs one probing motion: drain queued motion, verify the
// probe is not already contacted, push the probe move, and monitor the
// pin until it triggers or the motion completes. The probe position is
// latched on contact; stepper and planner buffers are always flushed
// afterwards so no remainder of the probe move survives.
func (c *Controller) ProbeCycle(target []float64, pl *core.PlanLineRequest, flags ProbeFlags) ProbeResult {
	m := c.M

	if m.Mode == state.ModeCheck {
		return ProbeCheckMode
	}

	// Finish everything queued before the probe arms.
	if !m.BufferSynchronize() || m.Aborted() {
		return ProbeAbort
	}

	m.ProbeSucceeded = false
	m.Probe.ConfigureInvert(flags.Away)

	// Already contacted at the start: nothing to measure.
	if m.Probe.Triggered() {
		m.RT.SetAlarm(core.AlarmProbeFailInitial)
		m.ExecuteRealtime()
		m.Probe.ConfigureInvert(false)
		return ProbeFailInit
	}

	c.Line(target, pl)

	probeActive := true
	m.RT.SetStateFlag(core.ExecStateCycleStart)

	for {
		if !m.ExecuteRealtime() {
			m.Probe.ConfigureInvert(false)
			return ProbeAbort
		}

		if probeActive && m.Probe.Triggered() {
			// Contact: latch the position and stop the remainder of the
			// probe move.
			probeActive = false
			copy(m.ProbePosition, m.MachinePosition())
			m.Motion.ResetSegmentBuffer()
			m.RT.SetStateFlag(core.ExecStateCycleComplete)
		}

		if m.Mode == state.ModeIdle {
			break
		}
		if m.Mode&(state.ModeAlarm|state.ModeEStop) != 0 {
			m.Probe.ConfigureInvert(false)
			return ProbeAbort
		}
	}

	if probeActive {
		// Motion finished without contact.
		if flags.NoError {
			copy(m.ProbePosition, m.MachinePosition())
		} else {
			m.RT.SetAlarm(core.AlarmProbeFailContact)
		}
	} else {
		m.ProbeSucceeded = true
	}

	m.Probe.ConfigureInvert(false)
	m.ExecuteRealtime()

	// Flush whatever is left of the probe motion and resync.
	m.Motion.ResetSegmentBuffer()
	m.Planner.Reset()
	m.SyncPositions()
	c.SyncBacklashPosition()

	if m.Settings.ProbeReportCoordinates && m.OnProbeReport != nil {
		m.OnProbeReport(m.ProbePosition, m.ProbeSucceeded)
	}

	if m.ProbeSucceeded {
		return ProbeFound
	}
	return ProbeFailEnd
}
