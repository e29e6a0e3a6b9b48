package protocol

import "grblcore/core"

// Realtime control characters. The low set rides in the ASCII control
// range; the extended set uses top-bit values that never occur in a
// g-code program.
const (
	CmdExit               byte = 0x03
	CmdReset              byte = 0x18 // ctrl-x
	CmdStop               byte = 0x19
	CmdStatusReportLegacy byte = '?'
	CmdCycleStartLegacy   byte = '~'
	CmdFeedHoldLegacy     byte = '!'

	CmdStatusReport       byte = 0x80
	CmdCycleStart         byte = 0x81
	CmdFeedHold           byte = 0x82
	CmdGCodeReport        byte = 0x83
	CmdSafetyDoor         byte = 0x84
	CmdJogCancel          byte = 0x85
	CmdStatusReportAll    byte = 0x86
	CmdOptionalStopToggle byte = 0x88
	CmdPIDReport          byte = 0x89

	CmdOverrideFeedReset       byte = 0x90
	CmdOverrideFeedCoarsePlus  byte = 0x91
	CmdOverrideFeedCoarseMinus byte = 0x92
	CmdOverrideFeedFinePlus    byte = 0x93
	CmdOverrideFeedFineMinus   byte = 0x94
	CmdOverrideRapidReset      byte = 0x95
	CmdOverrideRapidMedium     byte = 0x96
	CmdOverrideRapidLow        byte = 0x97

	CmdOverrideSpindleReset       byte = 0x99
	CmdOverrideSpindleCoarsePlus  byte = 0x9A
	CmdOverrideSpindleCoarseMinus byte = 0x9B
	CmdOverrideSpindleFinePlus    byte = 0x9C
	CmdOverrideSpindleFineMinus   byte = 0x9D
	CmdOverrideSpindleStop        byte = 0x9E

	CmdOverrideCoolantFloodToggle byte = 0xA0
	CmdOverrideCoolantMistToggle  byte = 0xA1
)

// Ingest classifies bytes at the input boundary: control characters are
// siphoned into the realtime event register and dropped, everything
// else flows through to the line assembler. Called from the stream
// interrupt path — it never blocks, never allocates, and never writes
// foreground-owned state: everything beyond the atomic register and
// the stream's own guarded buffer (line discard, flag toggles) is
// deferred to the foreground via ExecState bits.
type Ingest struct {
	RT       *core.RealtimeRegister
	Settings *core.Settings
	Stream   core.StreamHAL

	// EStopActive gates reset while the physical e-stop is down.
	EStopActive func() bool

	// Reset invokes the motion-control reset routine.
	Reset func()

	// Exit requests a clean shutdown of the protocol loop.
	Exit func()

	// KeepVerbatim reports whether the line being assembled must keep
	// legacy command characters verbatim (a $-system line or inside a
	// comment).
	KeepVerbatim func() bool
}

// Classify examines one byte. A true return means the byte was consumed
// here and the caller must not buffer it.
func (in *Ingest) Classify(c byte) (drop bool) {
	switch c {

	case '\n', '\r':
		// Line boundary, always passed through.

	case CmdStop:
		in.RT.SetStateFlag(core.ExecStateStop | core.ExecStateDiscardLine)
		if in.Stream != nil {
			in.Stream.CancelReadBuffer()
		}
		drop = true

	case CmdReset:
		// Suppressed while e-stop is active; e-stop has its own path.
		if in.EStopActive == nil || !in.EStopActive() {
			in.Reset()
		}
		drop = true

	case CmdExit:
		in.Reset()
		if in.Exit != nil {
			in.Exit()
		}
		drop = true

	case CmdStatusReportAll:
		in.RT.SetStateFlag(core.ExecStateReportAll | core.ExecStateStatusReport)
		drop = true

	case CmdStatusReport, 0x05:
		in.RT.SetStateFlag(core.ExecStateStatusReport)
		drop = true

	case CmdCycleStart:
		in.RT.SetStateFlag(core.ExecStateCycleStart | core.ExecStateToolChangeCancel)
		drop = true

	case CmdFeedHold:
		in.RT.SetStateFlag(core.ExecStateFeedHold)
		drop = true

	case CmdSafetyDoor:
		in.RT.SetStateFlag(core.ExecStateSafetyDoor)
		drop = true

	case CmdJogCancel:
		// Always posted; the foreground state machine ignores the
		// motion cancel in any state but JOG.
		in.RT.SetStateFlag(core.ExecStateMotionCancel | core.ExecStateDiscardLine)
		if in.Stream != nil {
			in.Stream.CancelReadBuffer()
		}
		drop = true

	case CmdGCodeReport:
		in.RT.SetStateFlag(core.ExecStateGCodeReport)
		drop = true

	case CmdOptionalStopToggle:
		in.RT.SetStateFlag(core.ExecStateOptionalStopToggle)
		drop = true

	case CmdPIDReport:
		in.RT.SetStateFlag(core.ExecStatePIDReport)
		drop = true

	case CmdOverrideFeedReset, CmdOverrideFeedCoarsePlus, CmdOverrideFeedCoarseMinus,
		CmdOverrideFeedFinePlus, CmdOverrideFeedFineMinus,
		CmdOverrideRapidReset, CmdOverrideRapidMedium, CmdOverrideRapidLow:
		in.RT.EnqueueOverride(feedOverrideCommand(c))
		drop = true

	case CmdOverrideSpindleReset, CmdOverrideSpindleCoarsePlus, CmdOverrideSpindleCoarseMinus,
		CmdOverrideSpindleFinePlus, CmdOverrideSpindleFineMinus, CmdOverrideSpindleStop,
		CmdOverrideCoolantFloodToggle, CmdOverrideCoolantMistToggle:
		in.RT.EnqueueOverride(accessoryOverrideCommand(c))
		drop = true

	default:
		if c < ' ' || (c >= 0x7F && c <= 0xBF) {
			drop = true // unassigned control or top-bit garbage
		}
	}

	if drop {
		return true
	}

	// Legacy single-character commands are honored unless the line being
	// assembled must preserve them verbatim and legacy mode is off.
	legacyOK := in.Settings.LegacyRTCommands || in.KeepVerbatim == nil || !in.KeepVerbatim()

	switch c {
	case CmdStatusReportLegacy:
		if legacyOK {
			in.RT.SetStateFlag(core.ExecStateStatusReport)
			drop = true
		}
	case CmdCycleStartLegacy:
		if legacyOK {
			in.RT.SetStateFlag(core.ExecStateCycleStart | core.ExecStateToolChangeCancel)
			drop = true
		}
	case CmdFeedHoldLegacy:
		if legacyOK {
			in.RT.SetStateFlag(core.ExecStateFeedHold)
			drop = true
		}
	}

	return drop
}

func feedOverrideCommand(c byte) core.OverrideCommand {
	switch c {
	case CmdOverrideFeedReset:
		return core.OverrideFeedReset
	case CmdOverrideFeedCoarsePlus:
		return core.OverrideFeedCoarsePlus
	case CmdOverrideFeedCoarseMinus:
		return core.OverrideFeedCoarseMinus
	case CmdOverrideFeedFinePlus:
		return core.OverrideFeedFinePlus
	case CmdOverrideFeedFineMinus:
		return core.OverrideFeedFineMinus
	case CmdOverrideRapidReset:
		return core.OverrideRapidFull
	case CmdOverrideRapidMedium:
		return core.OverrideRapidMedium
	}
	return core.OverrideRapidLow
}

func accessoryOverrideCommand(c byte) core.OverrideCommand {
	switch c {
	case CmdOverrideSpindleReset:
		return core.OverrideSpindleReset
	case CmdOverrideSpindleCoarsePlus:
		return core.OverrideSpindleCoarsePlus
	case CmdOverrideSpindleCoarseMinus:
		return core.OverrideSpindleCoarseMinus
	case CmdOverrideSpindleFinePlus:
		return core.OverrideSpindleFinePlus
	case CmdOverrideSpindleFineMinus:
		return core.OverrideSpindleFineMinus
	case CmdOverrideSpindleStop:
		return core.OverrideSpindleStopToggle
	case CmdOverrideCoolantFloodToggle:
		return core.OverrideCoolantFloodToggle
	}
	return core.OverrideCoolantMistToggle
}
