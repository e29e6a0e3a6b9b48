// Hardware collaborator contracts. The motion core never reaches past
// these interfaces into hardware; platform code under targets/ registers
// concrete implementations the same way gpio_hal.go's GPIODriver
// singleton is registered.
package core

// SpindleState is the commanded spindle direction/state.
type SpindleState uint8

const (
	SpindleOff SpindleState = iota
	SpindleCW
	SpindleCCW
)

// MotionDriver is the stepper/pulse-generation layer. The core never
// generates step pulses itself; this is the boundary to whatever does.
type MotionDriver interface {
	// PrepBuffer lets the driver top up its pulse buffer from pending blocks.
	PrepBuffer()

	// WakeUp resumes stepping after a hold or an empty-buffer stall.
	WakeUp()

	// GoIdle parks the driver (after a reset or cycle stop).
	GoIdle()

	// ResetSegmentBuffer discards any partially prepared step segments.
	ResetSegmentBuffer()

	// ParkingSetupBuffer arms the special single-block parking path used
	// by safety-door and sleep retraction.
	ParkingSetupBuffer()

	// LimitsEnable arms or disarms the hard-limit pin-change interrupt,
	// optionally in probe mode.
	LimitsEnable(hard bool, probeMode bool)

	// LimitsGetState returns a per-axis bitmask of asserted limit switches.
	LimitsGetState() uint32

	// MachinePosition returns the current machine position in mm derived
	// from the step counters.
	MachinePosition() []float64
}

// SpindleHAL drives the physical spindle.
type SpindleHAL interface {
	SetState(state SpindleState, rpm float64) error
	GetRPM() (float64, error)
}

// CoolantState is a bitmask of coolant outputs.
type CoolantState uint8

const (
	CoolantFlood CoolantState = 1 << 0
	CoolantMist  CoolantState = 1 << 1
)

// CoolantHAL drives flood/mist coolant outputs.
type CoolantHAL interface {
	SetState(state CoolantState) error
}

// ProbeHAL reports probe-pin contact state. Implementations may be a
// contact switch on a GPIO pin or a non-contact sensor (see
// targets/rp2040/probe_vl53l1x.go).
type ProbeHAL interface {
	// Triggered reports whether the probe currently reads as contacted.
	Triggered() bool

	// ConfigureInvert flips the sense of Triggered (probing away from
	// the workpiece vs toward it).
	ConfigureInvert(invert bool)
}

// ControlPinState mirrors the physical control-pin inputs.
type ControlPinState struct {
	Reset      bool
	CycleStart bool
	FeedHold   bool
	SafetyDoor bool
	EStop      bool
}

// ControlPinHAL reads the physical control-pin bank.
type ControlPinHAL interface {
	GetState() ControlPinState
}

// StreamHAL is the non-blocking byte stream the main loop reads g-code
// and realtime control characters from. It is satisfied by
// host/serial.Stream, the stdin/stdout stream in host/cmd/cncd, the USB
// CDC stream in targets/rp2040, and test fakes. The telemetry server
// (host/telemetry) is not a stream: it hands received control bytes to
// the ingest classifier.
type StreamHAL interface {
	// Read returns the next byte, or ok=false if none is available (never blocks).
	Read() (b byte, ok bool)

	// Write sends bytes back to the issuer (status reports, "ok"/error lines).
	Write(p []byte) (int, error)

	// SuspendRead pauses/resumes accepting further input (during reset).
	SuspendRead(suspend bool)

	// CancelReadBuffer discards any buffered-but-unprocessed input
	// (jog-cancel, stop).
	CancelReadBuffer()
}

// Clock provides monotonic wall time for dwell and the sleep timeout.
type Clock interface {
	NowMillis() uint64
}
