package state

import "grblcore/core"

// criticalAlarm reports whether an alarm blocks the foreground until a
// fresh reset is observed. Hard/soft limit and e-stop mean position may
// be lost or the machine is physically unsafe; everything short of a
// reset is refused while still servicing status reports.
func criticalAlarm(code core.AlarmCode) bool {
	return code == core.AlarmHardLimit || code == core.AlarmSoftLimit || code == core.AlarmEStop
}

// ResetRequest readies the system for reset: posts the realtime reset
// event and kills any active process. Callable from interrupt context —
// it touches only the event register, HAL outputs and atomic flags.
// Also latches the position-lost alarm when a motion state is interrupted.
func (m *Machine) ResetRequest() {
	// Only the first caller acts; prevents multiple kill passes.
	if m.RT.Test(core.ExecStateReset) {
		return
	}
	m.RT.SetStateFlag(core.ExecStateReset)

	if m.Spindle != nil {
		m.Spindle.SetState(core.SpindleOff, 0)
	}
	if m.Coolant != nil {
		m.Coolant.SetState(0)
	}
	if m.DriverReset != nil {
		m.DriverReset()
	}
	if m.Stream != nil {
		m.Stream.SuspendRead(false)
	}

	// Kill steppers only if in a motion state: cycle, actively holding,
	// homing, jogging, or mid system motion. Position has likely been lost.
	if m.Mode&(ModeCycle|ModeHoming|ModeJog) != 0 || m.StepControl.ExecuteHold || m.StepControl.ExecuteSysMotion {
		if m.Mode != ModeHoming {
			m.RT.SetAlarm(core.AlarmAbortCycle)
		} else if m.RT.PendingAlarm() == core.AlarmNone {
			m.RT.SetAlarm(core.AlarmHomingFailReset)
		}
		if m.Motion != nil {
			m.Motion.GoIdle()
		}
		core.RecordTiming(core.EvtReset, 0, uint32(m.Mode), 0)
	}

	if m.Control != nil && m.Control.GetState().EStop {
		m.RT.SetAlarm(core.AlarmEStop)
	}
}

// ExecuteRealtime is the realtime checkpoint: it drains the event
// register, advances the state machine, runs the override controller and
// the suspend loop. Every busy-wait in the firmware calls this between
// iterations; it is the only legal suspension point. Returns false once
// the system is aborted.
func (m *Machine) ExecuteRealtime() bool {
	if m.execRTSystem() {
		if m.ExecutePerTick != nil {
			m.ExecutePerTick(m.Mode)
		}
		if m.Suspend {
			m.execSuspend()
		}
	}
	return !m.Aborted()
}

// AutoCycleStart requests cycle start when motion is queued and ready.
// Called from the main loop, buffer sync, and the motion gateway's
// backpressure loop.
func (m *Machine) AutoCycleStart() {
	if m.Planner != nil && m.Planner.HasCurrentBlock() {
		m.RT.SetStateFlag(core.ExecStateCycleStart)
	}
}

// BufferSynchronize blocks until all buffered motion has executed,
// honoring feed hold and realtime events while waiting. Returns false
// on abort.
func (m *Machine) BufferSynchronize() bool {
	m.AutoCycleStart()
	for {
		if !m.ExecuteRealtime() {
			return false
		}
		if !m.Planner.HasCurrentBlock() && m.Mode != ModeCycle {
			return true
		}
	}
}

// execRTSystem drains and acts on pending realtime events. Returns false
// if the system aborted.
func (m *Machine) execRTSystem() bool {
	if msg, ok := m.Message.Take(); ok {
		m.feedback(msg)
	}

	if alarm := m.RT.ClearAlarm(); alarm != core.AlarmNone {
		// Something has gone severely wrong; report the source and latch.
		if alarm == core.AlarmEStop {
			m.SetMode(ModeEStop)
		} else {
			m.SetMode(ModeAlarm)
		}
		core.RecordTiming(core.EvtAlarmPosted, 0, uint32(alarm), 0)
		if m.OnAlarm != nil {
			m.OnAlarm(alarm)
		}
		if criticalAlarm(alarm) {
			// Block everything except reset and status reports until the
			// operator acknowledges. A stale reset does not count.
			m.RT.ClearStateFlag(core.ExecStateReset)
			for !m.RT.Test(core.ExecStateReset) {
				if m.RT.ClearStateFlag(core.ExecStateStatusReport)&core.ExecStateStatusReport != 0 && m.OnStatusReport != nil {
					m.OnStatusReport()
				}
				if m.ExecutePerTick != nil {
					m.ExecutePerTick(m.Mode)
				}
			}
		}
	}

	if rt := m.RT.ClearStateFlags(); rt != 0 {

		if rt&core.ExecStateReset != 0 {
			if m.DriverReset != nil {
				m.DriverReset()
			}
			// Abort sticks unless e-stop is holding the machine down;
			// e-stop recovery has its own path.
			eStop := m.Control != nil && m.Control.GetState().EStop
			m.SetAbort(!eStop)
			return !m.Aborted()
		}

		if rt&core.ExecStateStop != 0 {
			m.execStop()
		}

		// Deferred ingest actions: the stream producer may only OR
		// bits, so the actual mutations happen here on the foreground.
		if rt&core.ExecStateDiscardLine != 0 && m.OnDiscardLine != nil {
			m.OnDiscardLine()
		}
		if rt&core.ExecStateOptionalStopToggle != 0 {
			m.OptionalStopDisable = !m.OptionalStopDisable
		}
		if rt&core.ExecStateToolChangeCancel != 0 {
			m.ToolChangePending = false
		}
		if rt&core.ExecStateReportAll != 0 {
			m.Report.All = true
		}

		if rt&core.ExecStateStatusReport != 0 && m.OnStatusReport != nil {
			m.OnStatusReport()
		}
		if rt&core.ExecStateGCodeReport != 0 && m.OnGCodeReport != nil {
			m.OnGCodeReport()
		}
		if rt&core.ExecStatePIDReport != 0 && m.OnPIDReport != nil {
			m.OnPIDReport()
		}

		rt &^= core.ExecStateStop | core.ExecStateStatusReport | core.ExecStateGCodeReport |
			core.ExecStatePIDReport | core.ExecStateDiscardLine | core.ExecStateOptionalStopToggle |
			core.ExecStateToolChangeCancel | core.ExecStateReportAll

		// A deferred feed hold is cancelled by cycle start, otherwise it
		// fires now unless holds are modally disabled.
		if m.FeedHoldPending {
			if rt&core.ExecStateCycleStart != 0 {
				m.FeedHoldPending = false
			} else if !m.Override.Control.FeedHoldDisable {
				rt |= core.ExecStateFeedHold
			}
		}

		if rt != 0 {
			m.updateState(rt)
		}
	}

	if !m.DelayOverrides {
		m.executeOverrides()
	}

	m.sleepCheck()

	// Top up the step segment buffer in any motion-capable state.
	if m.Motion != nil && m.Mode&(ModeCycle|ModeHold|ModeSafetyDoor|ModeHoming|ModeSleep|ModeJog) != 0 {
		m.Motion.PrepBuffer()
	}

	return !m.Aborted()
}

// execStop implements the cycle stop: cancel everything in flight and
// return to a clean IDLE with positions resynced.
func (m *Machine) execStop() {
	m.Cancel = true
	m.StepControl = StepControl{}
	m.FeedHoldPending = false
	m.DelayOverrides = false
	if m.Override.Control.Sync {
		m.Override.Control = m.Modal.OverrideCtrl
	}

	m.ToolChangePending = false
	m.Modal.Coolant = 0
	m.Modal.Spindle = core.SpindleSetpoint{}

	if m.Spindle != nil {
		m.Spindle.SetState(core.SpindleOff, 0)
	}
	if m.Coolant != nil {
		m.Coolant.SetState(0)
	}
	m.Report.Spindle = true
	m.Report.Coolant = true

	if m.DriverReset != nil {
		m.DriverReset()
	}
	if m.Stream != nil {
		m.Stream.SuspendRead(false)
		m.Stream.CancelReadBuffer()
	}

	if m.Planner != nil {
		m.Planner.Reset()
	}
	if m.Motion != nil {
		m.Motion.ResetSegmentBuffer()
	}
	m.SyncPositions()
	m.RT.FlushOverrides()

	m.Suspend = false
	m.SetMode(ModeIdle)
}

// updateState applies the remaining motion-affecting events.
func (m *Machine) updateState(rt uint32) {
	if rt&core.ExecStateSafetyDoor != 0 && m.Mode&(ModeIdle|ModeCycle|ModeHold|ModeJog|ModeHoming) != 0 {
		m.SetMode(ModeSafetyDoor)
		m.StepControl.ExecuteHold = true
		m.Suspend = true
	}

	if rt&core.ExecStateFeedHold != 0 && m.Mode == ModeCycle {
		m.SetMode(ModeHold)
		m.StepControl.ExecuteHold = true
		m.Suspend = true
	}

	if rt&core.ExecStateMotionCancel != 0 && m.Mode == ModeJog {
		if m.Planner != nil {
			m.Planner.Reset()
		}
		if m.Motion != nil {
			m.Motion.ResetSegmentBuffer()
		}
		m.SyncPositions()
		m.Suspend = false
		m.SetMode(ModeIdle)
	}

	if rt&core.ExecStateCycleStart != 0 {
		doorAjar := m.Control != nil && m.Control.GetState().SafetyDoor
		switch {
		case m.Mode == ModeSafetyDoor && doorAjar:
			// Not until the door is closed.
		case m.Mode&(ModeHold|ModeSafetyDoor) != 0:
			m.StepControl.ExecuteHold = false
			m.Suspend = false
			m.SetMode(ModeCycle)
			if m.Motion != nil {
				m.Motion.PrepBuffer()
				m.Motion.WakeUp()
			}
		case m.Mode == ModeIdle && m.Planner != nil && m.Planner.HasCurrentBlock():
			m.SetMode(ModeCycle)
			if m.Motion != nil {
				m.Motion.PrepBuffer()
				m.Motion.WakeUp()
			}
		}
		m.TouchActivity()
	}

	if rt&core.ExecStateCycleComplete != 0 {
		m.StepControl = StepControl{}
		if m.Mode&(ModeCycle|ModeJog|ModeHoming) != 0 {
			m.Suspend = false
			m.SetMode(ModeIdle)
		}
	}

	if rt&core.ExecStateSleep != 0 {
		if m.Spindle != nil {
			m.Spindle.SetState(core.SpindleOff, 0)
		}
		if m.Coolant != nil {
			m.Coolant.SetState(0)
		}
		if m.Motion != nil {
			m.Motion.GoIdle()
		}
		m.Suspend = true
		m.SetMode(ModeSleep)
	}
}

// SyncPositions resyncs the planner and any registered position
// consumers (parser, backlash tracker) to the machine step position.
func (m *Machine) SyncPositions() {
	if m.Planner != nil {
		m.Planner.SyncPositionFromSteps()
	}
	if m.OnSyncPosition != nil {
		m.OnSyncPosition()
	}
}
