// Package host is the protocol front end: the main loop that drains the
// input stream, the g-code executor that maps parsed commands onto the
// motion layer, the `$` system-command handler, and the report
// formatters writing back to the stream.
package host

import (
	"math"

	"grblcore/core"
	"grblcore/gcode"
	"grblcore/motion"
	"grblcore/state"
)

// axisLetters in vector order for up to six axes.
var axisLetters = []byte{'X', 'Y', 'Z', 'A', 'B', 'C'}

// Executor carries the modal parser state between lines and dispatches
// parsed commands into the motion controller.
type Executor struct {
	M      *state.Machine
	Motion *motion.Controller

	Position []float64 // parser work position, machine mm
	Feed     float64   // modal F word, mm/min
	Absolute bool      // G90/G91
	Plane    motion.Plane
	Retract  motion.RetractMode // G98/G99
	LineNum  int32

	drill      motion.DrillParams // sticky canned-cycle words
	drillValid bool
}

// NewExecutor returns an executor synced to the current machine position.
func NewExecutor(m *state.Machine, mc *motion.Controller) *Executor {
	e := &Executor{
		M:        m,
		Motion:   mc,
		Position: make([]float64, m.Settings.AxisCount),
		Absolute: true,
		Plane:    motion.PlaneXY,
	}
	e.SyncPosition()
	return e
}

// SyncPosition re-anchors the parser position to the machine.
func (e *Executor) SyncPosition() {
	copy(e.Position, e.M.MachinePosition())
}

// Execute runs one parsed command and returns its status.
func (e *Executor) Execute(cmd *gcode.Command) state.Status {
	if cmd == nil || cmd.Type == 0 {
		return state.StatusOK
	}
	if f, ok := cmd.Parameters['F']; ok {
		e.Feed = f
	}
	if n, ok := cmd.Parameters['N']; ok {
		e.LineNum = int32(n)
	}

	switch cmd.Type {
	case 'G':
		return e.executeG(cmd)
	case 'M':
		return e.executeM(cmd)
	case 'T':
		e.M.ToolChangePending = true
		return state.StatusOK
	}
	return state.StatusUnsupportedCommand
}

func (e *Executor) executeG(cmd *gcode.Command) state.Status {
	switch cmd.Number {

	case 0, 1:
		target := cmd.AxisParameters(axisLetters, e.Position, e.Absolute)
		pl := e.planRequest(cmd.Number == 0)
		e.Motion.Line(target, &pl)
		copy(e.Position, target)
		return state.StatusOK

	case 2, 3:
		return e.executeArc(cmd, cmd.Number == 2)

	case 4:
		e.Motion.Dwell(cmd.GetParameter('P', 0))
		return state.StatusOK

	case 17:
		e.Plane = motion.Plane{Axis0: 0, Axis1: 1, AxisLinear: 2}
		return state.StatusOK
	case 18:
		e.Plane = motion.Plane{Axis0: 2, Axis1: 0, AxisLinear: 1}
		return state.StatusOK
	case 19:
		e.Plane = motion.Plane{Axis0: 1, Axis1: 2, AxisLinear: 0}
		return state.StatusOK

	case 38:
		return e.executeProbe(cmd)

	case 73:
		return e.executeDrill(cmd, motion.DrillChipBreak)
	case 76:
		return e.executeThread(cmd)
	case 80:
		e.drillValid = false
		return state.StatusOK
	case 81:
		return e.executeDrill(cmd, motion.DrillPlain)
	case 82:
		return e.executeDrill(cmd, motion.DrillDwell)
	case 83:
		return e.executeDrill(cmd, motion.DrillPlain)

	case 90:
		e.Absolute = true
		e.M.Modal.DistanceIncremental = false
		return state.StatusOK
	case 91:
		e.Absolute = false
		e.M.Modal.DistanceIncremental = true
		return state.StatusOK

	case 98:
		e.Retract = motion.RetractPrevious
		return state.StatusOK
	case 99:
		e.Retract = motion.RetractRPlane
		return state.StatusOK
	}
	return state.StatusUnsupportedCommand
}

func (e *Executor) executeM(cmd *gcode.Command) state.Status {
	m := e.M
	switch cmd.Number {

	case 0: // program pause
		m.RT.SetStateFlag(core.ExecStateFeedHold)
		return state.StatusOK

	case 1: // optional stop
		if !m.OptionalStopDisable {
			m.RT.SetStateFlag(core.ExecStateFeedHold)
		}
		return state.StatusOK

	case 2, 30: // program end
		m.BufferSynchronize()
		m.Modal.Spindle = core.SpindleSetpoint{}
		m.Modal.Coolant = 0
		if m.Spindle != nil {
			m.Spindle.SetState(core.SpindleOff, 0)
		}
		if m.Coolant != nil {
			m.Coolant.SetState(0)
		}
		return state.StatusOK

	case 3, 4:
		st := core.SpindleCW
		if cmd.Number == 4 {
			st = core.SpindleCCW
		}
		rpm := cmd.GetParameter('S', m.Modal.Spindle.RPM)
		m.Modal.Spindle = core.SpindleSetpoint{State: st, RPM: rpm}
		if m.Spindle != nil {
			m.Spindle.SetState(st, rpm*m.Override.SpindlePct/100)
		}
		return state.StatusOK

	case 5:
		m.Modal.Spindle.State = core.SpindleOff
		if m.Spindle != nil {
			m.Spindle.SetState(core.SpindleOff, 0)
		}
		return state.StatusOK

	case 7:
		return e.setCoolant(m.Modal.Coolant | core.CoolantMist)
	case 8:
		return e.setCoolant(m.Modal.Coolant | core.CoolantFlood)
	case 9:
		return e.setCoolant(0)

	case 48:
		e.Motion.OverrideCtrlUpdate(state.OverrideControl{})
		return state.StatusOK
	case 49:
		e.Motion.OverrideCtrlUpdate(state.OverrideControl{FeedHoldDisable: true})
		return state.StatusOK
	}
	return state.StatusUnsupportedCommand
}

func (e *Executor) setCoolant(c core.CoolantState) state.Status {
	m := e.M
	if c != m.Modal.Coolant {
		m.BufferSynchronize()
		if m.Coolant != nil {
			m.Coolant.SetState(c)
		}
		m.Modal.Coolant = c
		m.Report.Coolant = true
	}
	return state.StatusOK
}

// planRequest assembles the per-line planner request from modal state.
func (e *Executor) planRequest(rapid bool) core.PlanLineRequest {
	return core.PlanLineRequest{
		FeedRate: e.Feed,
		Condition: core.PlanCondition{
			Rapid: rapid,
		},
		Spindle:         e.M.Modal.Spindle,
		FeedHoldDisable: e.M.Override.Control.FeedHoldDisable,
		LineNumber:      e.LineNum,
	}
}

func (e *Executor) executeArc(cmd *gcode.Command, clockwise bool) state.Status {
	target := cmd.AxisParameters(axisLetters, e.Position, e.Absolute)

	offset := make([]float64, len(e.Position))
	ijk := []byte{'I', 'J', 'K'}
	have := false
	for i, letter := range ijk {
		if i >= len(offset) {
			break
		}
		if v, ok := cmd.Parameters[letter]; ok {
			offset[i] = v
			have = true
		}
	}
	if !have {
		return state.StatusGcodeValueWordMissing
	}

	r0 := offset[e.Plane.Axis0]
	r1 := offset[e.Plane.Axis1]
	radius := math.Hypot(r0, r1)
	if radius == 0 {
		return state.StatusInvalidStatement
	}

	pl := e.planRequest(false)
	e.Motion.Arc(target, &pl, e.Position, offset, radius, e.Plane, clockwise)
	copy(e.Position, target)
	return state.StatusOK
}

func (e *Executor) executeProbe(cmd *gcode.Command) state.Status {
	target := cmd.AxisParameters(axisLetters, e.Position, e.Absolute)
	flags := motion.ProbeFlags{
		Away:    cmd.Sub == 4 || cmd.Sub == 5,
		NoError: cmd.Sub == 3 || cmd.Sub == 5,
	}
	pl := e.planRequest(false)
	pl.Condition.NoFeedOverride = true
	res := e.Motion.ProbeCycle(target, &pl, flags)
	e.SyncPosition()
	switch res {
	case motion.ProbeFound, motion.ProbeCheckMode:
		return state.StatusOK
	case motion.ProbeFailEnd:
		if flags.NoError {
			return state.StatusOK
		}
		return state.StatusUnhandled
	}
	return state.StatusUnhandled
}

func (e *Executor) executeDrill(cmd *gcode.Command, mode motion.DrillMode) state.Status {
	lin := e.Plane.AxisLinear

	target := cmd.AxisParameters(axisLetters, e.Position, e.Absolute)

	p := &e.drill
	if !e.drillValid {
		*p = motion.DrillParams{PrevPosition: e.Position[lin], RapidRetract: true}
		e.drillValid = true
	}
	p.RetractMode = e.Retract
	if r, ok := cmd.Parameters['R']; ok {
		p.RetractPosition = r
	}
	if q, ok := cmd.Parameters['Q']; ok {
		p.Delta = q
	}
	if p.Delta <= 0 {
		p.Delta = p.RetractPosition - target[lin] // single full-depth plunge
	}
	p.Dwell = 0
	if mode == motion.DrillDwell {
		p.Dwell = cmd.GetParameter('P', 0)
	}
	p.HoleBottom = append([]float64(nil), target...)

	repeats := uint32(cmd.GetParameter('L', 1))
	if repeats == 0 {
		repeats = 1
	}

	pl := e.planRequest(false)
	e.Motion.CannedDrill(mode, target, &pl, e.Position, e.Plane, repeats, p)
	copy(e.Position, target)
	return state.StatusOK
}

func (e *Executor) executeThread(cmd *gcode.Command) state.Status {
	th := motion.ThreadParams{
		AxisX:           0,
		AxisZ:           2,
		Pitch:           cmd.GetParameter('P', 0),
		ZFinal:          cmd.GetParameter('Z', e.Position[2]),
		Peak:            cmd.GetParameter('I', 0),
		InitialDepth:    cmd.GetParameter('J', 0),
		Depth:           cmd.GetParameter('K', 0),
		DepthDegression: cmd.GetParameter('R', 1),
		InfeedAngle:     cmd.GetParameter('Q', 0),
		SpringPasses:    uint32(cmd.GetParameter('H', 0)),
		EndTaperLength:  cmd.GetParameter('E', 0),
		MainTaperHeight: cmd.GetParameter('X', 0),
		CutDirection:    1,
	}
	if th.Pitch <= 0 || th.InitialDepth <= 0 || th.Depth <= 0 {
		return state.StatusGcodeValueWordMissing
	}
	switch int(cmd.GetParameter('L', 0)) {
	case 1:
		th.EndTaperType = motion.TaperEntry
	case 2:
		th.EndTaperType = motion.TaperExit
	case 3:
		th.EndTaperType = motion.TaperBoth
	default:
		th.EndTaperType = motion.TaperNone
	}
	if th.Peak < 0 {
		th.Peak = -th.Peak
		th.CutDirection = -1
	}

	pl := e.planRequest(false)
	pl.FeedRate = th.Pitch // distance per spindle revolution under sync
	e.Motion.Thread(&pl, e.Position, &th, e.M.Override.Control.FeedHoldDisable)
	return state.StatusOK
}

