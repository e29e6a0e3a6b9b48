// Package state owns the machine mode, the sticky system flags, the
// override values, and the foreground drain of the realtime event
// register. Everything here runs on the single foreground loop; the only
// values touched from interrupt-level producers are the register itself
// and the atomic abort/exit flags.
package state

import (
	"sync/atomic"

	"grblcore/core"
)

// Mode is the machine operating state. Bit flags so compound membership
// tests stay one AND.
type Mode uint16

const (
	ModeIdle Mode = 1 << iota
	ModeCycle
	ModeHold
	ModeSafetyDoor
	ModeHoming
	ModeJog
	ModeCheck
	ModeAlarm
	ModeEStop
	ModeSleep
	ModeToolChange
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "Idle"
	case ModeCycle:
		return "Run"
	case ModeHold:
		return "Hold"
	case ModeSafetyDoor:
		return "Door"
	case ModeHoming:
		return "Home"
	case ModeJog:
		return "Jog"
	case ModeCheck:
		return "Check"
	case ModeAlarm:
		return "Alarm"
	case ModeEStop:
		return "EStop"
	case ModeSleep:
		return "Sleep"
	case ModeToolChange:
		return "Tool"
	}
	return "Unknown"
}

// StepControl mirrors the stepper-facing control bits.
type StepControl struct {
	ExecuteHold      bool
	ExecuteSysMotion bool
	EndMotion        bool
}

// SpindleStopOverride is the two-phase spindle-stop toggle, permitted
// only in HOLD with the spindle on.
type SpindleStopOverride struct {
	Initiate bool
	Enabled  bool
	Restore  bool
}

// OverrideControl is the modal override-permission record carried by the
// g-code stream (M48/M49 family).
type OverrideControl struct {
	FeedHoldDisable bool
	Sync            bool
}

// Overrides holds the live override percentages and toggles.
type Overrides struct {
	FeedPct     float64
	RapidPct    float64
	SpindlePct  float64
	SpindleStop SpindleStopOverride
	Control     OverrideControl
}

// Modal is the snapshot of modal g-code state the realtime layer needs:
// enough to kill and restore outputs without consulting the parser.
type Modal struct {
	Spindle             core.SpindleSetpoint
	Coolant             core.CoolantState
	DistanceIncremental bool
	OverrideCtrl        OverrideControl
}

// ReportFlags are pending additions to the next status report.
type ReportFlags struct {
	Spindle bool
	Coolant bool
	Homed   bool
	All     bool
}

// Machine is the process-wide system record. One value owned by the
// foreground, threaded by pointer through the call chain.
type Machine struct {
	Settings *core.Settings
	RT       *core.RealtimeRegister

	Planner core.Planner
	Motion  core.MotionDriver
	Spindle core.SpindleHAL
	Coolant core.CoolantHAL
	Probe   core.ProbeHAL
	Control core.ControlPinHAL
	Stream  core.StreamHAL
	Clock   core.Clock

	Mode Mode

	abort atomic.Bool // settable from interrupt context
	exit  atomic.Bool

	Cancel              bool
	ProbeSucceeded      bool
	BlockDeleteEnabled  bool
	FeedHoldPending     bool
	DelayOverrides      bool
	OptionalStopDisable bool
	ToolChangePending   bool
	Suspend             bool

	StepControl StepControl
	Override    Overrides
	Modal       Modal

	Homed         uint32 // per-axis homed mask
	ProbePosition []float64

	Report  ReportFlags
	Message core.MessageSlot

	lastActivityMS uint64

	// Host-wired hooks. All optional; nil hooks are skipped.
	OnStatusReport func()
	OnGCodeReport  func()
	OnPIDReport    func()
	OnAlarm        func(core.AlarmCode)
	OnFeedback     func(string)
	OnProbeReport  func(position []float64, succeeded bool)
	OnSyncPosition func() // parser/backlash position resync after stop or homing
	OnDiscardLine  func() // drop the partially assembled input line (deferred from ingest)
	DriverReset    func()
	ExecutePerTick func(Mode) // per-checkpoint driver work (status LEDs etc.)
}

// NewMachine wires a Machine from its collaborators and applies the
// configured defaults.
func NewMachine(settings *core.Settings, rt *core.RealtimeRegister) *Machine {
	m := &Machine{
		Settings:      settings,
		RT:            rt,
		Mode:          ModeIdle,
		ProbePosition: make([]float64, settings.AxisCount),
	}
	m.Override.FeedPct = settings.FeedOverrideDefault
	m.Override.RapidPct = 100
	m.Override.SpindlePct = settings.SpindleOverrideDefault
	m.BlockDeleteEnabled = settings.BlockDeleteDefault
	return m
}

// SetMode sets the machine operating state.
func (m *Machine) SetMode(mode Mode) {
	m.Mode = mode
}

// Aborted reports the sticky abort flag.
func (m *Machine) Aborted() bool { return m.abort.Load() }

// SetAbort latches or clears the abort flag. Safe from any goroutine.
func (m *Machine) SetAbort(v bool) { m.abort.Store(v) }

// ExitRequested reports the sticky exit flag.
func (m *Machine) ExitRequested() bool { return m.exit.Load() }

// RequestExit latches the exit flag. Safe from any goroutine.
func (m *Machine) RequestExit() { m.exit.Store(true) }

// MachinePosition returns the current machine position in mm.
func (m *Machine) MachinePosition() []float64 {
	if m.Motion == nil {
		return make([]float64, m.Settings.AxisCount)
	}
	return m.Motion.MachinePosition()
}

// TouchActivity marks the machine as active for the sleep timer.
func (m *Machine) TouchActivity() {
	if m.Clock != nil {
		m.lastActivityMS = m.Clock.NowMillis()
	}
}

// sleepCheck posts the sleep event once the inactivity timeout elapses.
// Valid while idle, held, or suspended with outputs still energized.
func (m *Machine) sleepCheck() {
	if !m.Settings.SleepEnable || m.Clock == nil {
		return
	}
	if m.Mode&(ModeIdle|ModeHold|ModeSafetyDoor) == 0 {
		return
	}
	if m.Modal.SpindleOff() && m.Modal.Coolant == 0 {
		return
	}
	elapsed := m.Clock.NowMillis() - m.lastActivityMS
	if float64(elapsed) >= m.Settings.SleepTimeout*1000 {
		m.RT.SetStateFlag(core.ExecStateSleep)
	}
}

// SpindleOff reports whether the modal spindle program is off.
func (md *Modal) SpindleOff() bool { return md.Spindle.State == core.SpindleOff }

// feedback emits a human-readable advisory through the host hook.
func (m *Machine) feedback(msg string) {
	if m.OnFeedback != nil {
		m.OnFeedback(msg)
	}
}
