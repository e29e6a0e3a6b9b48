package state

import "grblcore/core"

// execSuspend is the hold/door/sleep service loop. The foreground parks
// here while suspended, servicing overrides, watching for door-closed,
// checking the sleep timer and draining realtime events, until the
// suspend clears or the system aborts.
func (m *Machine) execSuspend() {
	for m.Suspend {
		if m.Aborted() {
			return
		}

		m.suspendManager()

		// With the door closed again, keep requesting cycle start until
		// the resume lands.
		if m.Mode == ModeSafetyDoor && m.Control != nil && !m.Control.GetState().SafetyDoor {
			m.RT.SetStateFlag(core.ExecStateCycleStart)
		}

		m.sleepCheck()

		if !m.execRTSystem() {
			return
		}
		if m.ExecutePerTick != nil {
			m.ExecutePerTick(m.Mode)
		}
	}
}

// suspendManager runs the two-phase spindle-stop override while held.
func (m *Machine) suspendManager() {
	ss := &m.Override.SpindleStop
	switch {
	case ss.Initiate:
		if m.Spindle != nil {
			m.Spindle.SetState(core.SpindleOff, 0)
		}
		ss.Initiate = false
		ss.Enabled = true
		m.Report.Spindle = true

	case ss.Restore:
		if !m.Modal.SpindleOff() && m.Spindle != nil {
			m.Spindle.SetState(m.Modal.Spindle.State, m.Modal.Spindle.RPM*m.Override.SpindlePct/100)
		}
		ss.Enabled = false
		ss.Restore = false
		m.Report.Spindle = true
	}
}
