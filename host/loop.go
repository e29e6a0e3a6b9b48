package host

import (
	"grblcore/core"
	"grblcore/gcode"
	"grblcore/motion"
	"grblcore/protocol"
	"grblcore/state"
)

// Protocol is the main firmware loop: it drains input bytes, assembles
// and dispatches lines, ticks the realtime layer and gates g-code on
// the machine state.
type Protocol struct {
	M      *state.Machine
	Motion *motion.Controller
	Parser *gcode.Parser
	Exec   *Executor
	Filter *gcode.LineFilter
	Ingest *protocol.Ingest
	Report *Reporter

	// xcommand is the single slot for injected g-code not originating
	// from the input stream (driver macros, UI buttons).
	xcommand string

	lastStatus state.Status
}

// NewProtocol wires the full foreground stack over an assembled machine.
func NewProtocol(m *state.Machine, mc *motion.Controller) *Protocol {
	p := &Protocol{
		M:      m,
		Motion: mc,
		Parser: gcode.NewParser(),
		Filter: gcode.NewLineFilter(),
	}
	p.Exec = NewExecutor(m, mc)
	p.Report = &Reporter{M: m}

	p.Ingest = &protocol.Ingest{
		RT:       m.RT,
		Settings: m.Settings,
		Stream:   m.Stream,
		EStopActive: func() bool {
			return m.Control != nil && m.Control.GetState().EStop
		},
		Reset:        m.ResetRequest,
		Exit:         m.RequestExit,
		KeepVerbatim: p.Filter.Verbatim,
	}

	m.OnStatusReport = p.Report.Realtime
	m.OnAlarm = p.Report.Alarm
	m.OnFeedback = p.Report.Feedback
	m.OnGCodeReport = func() { p.Report.GCodeModes(p.Exec) }
	m.OnProbeReport = p.Report.Probe
	m.OnSyncPosition = func() {
		p.Exec.SyncPosition()
		mc.SyncBacklashPosition()
	}
	m.OnDiscardLine = p.Filter.Reset

	return p
}

// EnqueueGCode places one line in the injected-command slot. Accepted
// only when the slot is free, the machine can take g-code, and no
// motion cancel is pending.
func (p *Protocol) EnqueueGCode(line string) bool {
	ok := p.xcommand == "" &&
		p.M.Mode&(state.ModeIdle|state.ModeJog|state.ModeToolChange) != 0 &&
		!p.M.RT.Test(core.ExecStateMotionCancel)
	if ok {
		p.xcommand = line
	}
	return ok
}

// coldStartGate elevates to ALARM when power-up conditions demand
// operator acknowledgement before anything moves.
func (p *Protocol) coldStartGate() {
	m := p.M
	s := m.Settings

	switch {
	case m.Control != nil && m.Control.GetState().EStop:
		m.SetMode(state.ModeEStop)
		p.Report.Alarm(core.AlarmEStop)

	case s.HomingEnabledMask != 0 && s.HomingInitLock && m.Homed != s.HomingEnabledMask:
		m.SetMode(state.ModeAlarm)
		p.Report.Alarm(core.AlarmHomingRequired)
		p.Report.Feedback("'$H'|'$X' to unlock")

	case s.HardLimitsEnabled && s.CheckLimitsAtInit && m.Motion != nil && m.Motion.LimitsGetState() != 0:
		m.SetMode(state.ModeAlarm)
		p.Report.Alarm(core.AlarmHardLimit)
		p.Report.Feedback("Check limits")

	case s.ForceInitAlarm || (m.Control != nil && m.Control.GetState().Reset):
		m.SetMode(state.ModeAlarm)
		p.Report.Feedback("'$X' to unlock")

	case m.Mode&(state.ModeAlarm|state.ModeSleep) != 0:
		// Position cannot be guaranteed after sleep; hold in ALARM until
		// the operator homes or unlocks.
		m.SetMode(state.ModeAlarm)
		p.Report.Feedback("'$H'|'$X' to unlock")

	default:
		m.SetMode(state.ModeIdle)
		if !s.DoorIgnoreWhenIdle && m.Control != nil && m.Control.GetState().SafetyDoor {
			m.RT.SetStateFlag(core.ExecStateSafetyDoor)
			m.ExecuteRealtime()
		}
		p.runStartupLines()
	}
}

// runStartupLines executes the configured boot lines, each reported
// with its own status.
func (p *Protocol) runStartupLines() {
	for _, line := range p.M.Settings.StartupLines {
		if line == "" {
			continue
		}
		status := p.dispatchLine(line)
		p.Report.write(">" + line + ":")
		p.Report.StatusLine(status)
	}
}

// Run is the primary loop. It exits only on abort (to let the caller
// re-initialize) or an explicit exit request; the return value is true
// for re-initialize, false for shutdown.
func (p *Protocol) Run(coldStart bool) bool {
	m := p.M

	if coldStart {
		p.coldStartGate()
	}
	p.xcommand = ""
	m.TouchActivity()

	for {
		// Drain every available input byte, assembling lines.
		for {
			b, ok := m.Stream.Read()
			if !ok {
				break
			}
			if p.Ingest.Classify(b) {
				continue
			}
			line, ready := p.Filter.Feed(b)
			if !ready {
				continue
			}

			if !m.ExecuteRealtime() {
				return !m.ExitRequested()
			}

			status := p.dispatchLine(line)
			p.lastStatus = status
			p.Report.StatusLine(status)
			m.TouchActivity()
		}

		// Injected command slot. A `$` line here executes without
		// reporting its status back — longstanding quirk, kept as-is.
		if p.xcommand != "" {
			line := p.xcommand
			p.xcommand = ""
			if len(line) > 0 && line[0] == '$' {
				p.ExecuteSystemLine(line)
			} else if m.Mode&(state.ModeAlarm|state.ModeEStop|state.ModeJog) != 0 {
				p.Report.StatusLine(state.StatusSystemGClock)
			} else {
				p.Report.StatusLine(p.executeGCodeLine(line))
			}
		}

		// Streaming has stalled or finished: start anything queued.
		m.AutoCycleStart()

		if !m.ExecuteRealtime() && m.Aborted() {
			return !m.ExitRequested()
		}

		m.Cancel = false
	}
}

// dispatchLine routes one assembled line by its prefix: `$` system
// command, `[` user command, g-code otherwise.
func (p *Protocol) dispatchLine(line string) state.Status {
	m := p.M

	if line == "" {
		return state.StatusOK
	}

	stripped, deleted := gcode.BlockDeleted(line)
	if deleted {
		if !m.BlockDeleteEnabled {
			return state.StatusOK // skipped entirely
		}
		line = stripped
	}

	switch line[0] {
	case '$':
		status := p.ExecuteSystemLine(line)
		if status == state.StatusLimitsEngaged {
			m.SetMode(state.ModeAlarm)
			p.Report.Feedback("Check limits")
		}
		return status
	case '[':
		return p.executeUserLine(line)
	}

	// G-code is locked out in alarm, e-stop and jog states.
	if m.Mode&(state.ModeAlarm|state.ModeEStop|state.ModeJog|state.ModeSleep) != 0 {
		return state.StatusSystemGClock
	}

	return p.executeGCodeLine(line)
}

// executeGCodeLine parses and executes one g-code line.
func (p *Protocol) executeGCodeLine(line string) state.Status {
	cmd := p.Parser.ParseLine(line)

	// A bare parameter line (F100, S2000) updates modal words only.
	if cmd.Type == 0 && len(cmd.Parameters) > 0 {
		if f, ok := cmd.Parameters['F']; ok {
			p.Exec.Feed = f
		}
		if s, ok := cmd.Parameters['S']; ok {
			m := p.M
			m.Modal.Spindle.RPM = s
			if !m.Modal.SpindleOff() && m.Spindle != nil {
				m.Spindle.SetState(m.Modal.Spindle.State, s*m.Override.SpindlePct/100)
			}
		}
		return state.StatusOK
	}

	return p.Exec.Execute(cmd)
}

// executeUserLine handles `[...]` user commands. Only the message echo
// is built in; everything else is unsupported here.
func (p *Protocol) executeUserLine(line string) state.Status {
	if len(line) >= 2 && line[len(line)-1] == ']' {
		p.Report.Feedback(line[1 : len(line)-1])
		return state.StatusOK
	}
	return state.StatusUnsupportedCommand
}
