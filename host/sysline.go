package host

import (
	"strings"

	"github.com/google/shlex"

	"grblcore/core"
	"grblcore/state"
)

// ExecuteSystemLine handles a `$`-prefixed line. These are accepted in
// states that lock out g-code: settings access, unlock and homing are
// how the operator recovers from an alarm.
func (p *Protocol) ExecuteSystemLine(line string) state.Status {
	m := p.M
	body := line[1:] // caller guarantees the leading '$'

	// Jog lines carry g-code after the '=' and skip tokenization.
	if strings.HasPrefix(body, "J=") {
		return p.executeJogLine(body[2:])
	}

	// Everything else tokenizes shell-style so quoted arguments — file
	// paths, message text, multi-word values — survive intact.
	tokens, err := shlex.Split(body)
	if err != nil || len(tokens) == 0 {
		return state.StatusInvalidStatement
	}

	switch strings.ToUpper(tokens[0]) {

	case "H": // full homing cycle
		return p.executeHoming(0)

	case "HX", "HY", "HZ", "HA", "HB", "HC": // single-axis group
		axis := strings.IndexByte("XYZABC", tokens[0][1]&^0x20)
		if axis < 0 {
			return state.StatusInvalidStatement
		}
		return p.executeHoming(1 << uint(axis))

	case "X": // unlock
		if m.Mode == state.ModeEStop {
			if m.Control != nil && m.Control.GetState().EStop {
				return state.StatusIdleError
			}
			m.SetMode(state.ModeIdle)
			return state.StatusOK
		}
		if m.Mode == state.ModeAlarm {
			m.SetMode(state.ModeIdle)
			p.Report.Feedback("Caution: Unlocked")
		}
		return state.StatusOK

	case "C": // toggle check mode
		switch m.Mode {
		case state.ModeCheck:
			// Leaving check mode resets the parser state wholesale.
			m.RT.SetStateFlag(core.ExecStateStop)
			m.ExecuteRealtime()
			p.Report.Feedback("Disabled")
		case state.ModeIdle:
			m.SetMode(state.ModeCheck)
			p.Report.Feedback("Enabled")
		default:
			return state.StatusIdleError
		}
		return state.StatusOK

	case "SLP": // sleep immediately
		if m.Mode&(state.ModeIdle|state.ModeAlarm) == 0 {
			return state.StatusIdleError
		}
		m.RT.SetStateFlag(core.ExecStateSleep)
		return state.StatusOK

	case "I":
		p.Report.Feedback("VER:" + Version)
		return state.StatusOK

	case "MSG": // echo a (possibly quoted) message to the operator
		if len(tokens) > 1 {
			m.Message.TryPost(strings.Join(tokens[1:], " "))
		}
		return state.StatusOK
	}

	return state.StatusUnsupportedCommand
}

// executeHoming gates and runs the homing cycle. Allowed from IDLE and
// from ALARM, since homing is the prescribed way out of the
// homing-required alarm.
func (p *Protocol) executeHoming(mask uint32) state.Status {
	m := p.M
	if m.Settings.HomingEnabledMask == 0 {
		return state.StatusSettingDisabled
	}
	if m.Mode&(state.ModeIdle|state.ModeAlarm) == 0 {
		return state.StatusIdleError
	}

	status := p.Motion.HomingCycle(mask)
	if status == state.StatusOK && !m.Aborted() {
		// A successful home clears a homing-required alarm.
		m.SetMode(state.ModeIdle)
	}
	return status
}

// executeJogLine parses the g-code tail of a `$J=` line and runs it as
// a jog.
func (p *Protocol) executeJogLine(body string) state.Status {
	m := p.M
	if m.Mode&(state.ModeIdle|state.ModeJog|state.ModeToolChange) == 0 {
		return state.StatusSystemGClock
	}

	cmd := p.Parser.ParseLine(body)
	feed := cmd.GetParameter('F', 0)
	if feed <= 0 {
		return state.StatusGcodeValueWordMissing
	}

	absolute := p.Exec.Absolute
	if cmd.Type == 'G' {
		switch cmd.Number {
		case 90:
			absolute = true
		case 91:
			absolute = false
		}
	}

	target := cmd.AxisParameters(axisLetters, p.Exec.Position, absolute)
	pl := core.PlanLineRequest{
		FeedRate:   feed,
		LineNumber: p.Exec.LineNum,
	}
	status := p.Motion.JogExecute(target, &pl)
	if status == state.StatusOK {
		copy(p.Exec.Position, target)
	}
	return status
}
