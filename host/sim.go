package host

import (
	"sync"
	"time"

	"grblcore/core"
	"grblcore/planner"
)

// WallClock is the host-side monotonic clock.
type WallClock struct{ start time.Time }

// NewWallClock anchors the clock at now.
func NewWallClock() *WallClock { return &WallClock{start: time.Now()} }

// NowMillis returns milliseconds since the anchor.
func (c *WallClock) NowMillis() uint64 {
	return uint64(time.Since(c.start) / time.Millisecond)
}

// SimDriver is the host-side stand-in for the stepper layer: it
// consumes planner blocks instantly, tracks the resulting machine
// position, and posts cycle-complete when the queue drains. Limit and
// probe inputs are plain flags a UI or test can flip.
type SimDriver struct {
	RT      *core.RealtimeRegister
	Planner *planner.Planner

	mu        sync.Mutex
	position  []float64
	limits    uint32
	running   bool
	hardArmed bool
}

// NewSimDriver returns a driver parked at the origin.
func NewSimDriver(rt *core.RealtimeRegister, axisCount int) *SimDriver {
	return &SimDriver{
		RT:       rt,
		position: make([]float64, axisCount),
	}
}

// SetLimits sets the simulated limit-switch bitmask.
func (d *SimDriver) SetLimits(mask uint32) {
	d.mu.Lock()
	d.limits = mask
	d.mu.Unlock()
}

// SetPosition teleports the simulated machine.
func (d *SimDriver) SetPosition(pos []float64) {
	d.mu.Lock()
	copy(d.position, pos)
	d.mu.Unlock()
}

// PrepBuffer consumes every queued block while running.
func (d *SimDriver) PrepBuffer() {
	if !d.running || d.Planner == nil {
		return
	}
	drained := false
	for {
		b := d.Planner.CurrentBlock()
		if b == nil {
			break
		}
		d.mu.Lock()
		copy(d.position, b.Target)
		d.mu.Unlock()
		d.Planner.Advance()
		drained = true
	}
	if drained && !d.Planner.HasCurrentBlock() {
		d.running = false
		d.RT.SetStateFlag(core.ExecStateCycleComplete)
	}
}

// WakeUp starts consuming blocks.
func (d *SimDriver) WakeUp() { d.running = true }

// GoIdle halts consumption.
func (d *SimDriver) GoIdle() { d.running = false }

// ResetSegmentBuffer discards prepared motion; nothing buffered here.
func (d *SimDriver) ResetSegmentBuffer() { d.running = false }

// ParkingSetupBuffer arms the single-block parking path.
func (d *SimDriver) ParkingSetupBuffer() {}

// LimitsEnable records the hard-limit arming state.
func (d *SimDriver) LimitsEnable(hard bool, probeMode bool) {
	d.mu.Lock()
	d.hardArmed = hard
	d.mu.Unlock()
}

// LimitsGetState returns the simulated limit bitmask.
func (d *SimDriver) LimitsGetState() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.limits
}

// MachinePosition returns the simulated position.
func (d *SimDriver) MachinePosition() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]float64, len(d.position))
	copy(out, d.position)
	return out
}

// SimSpindle records the last commanded spindle state.
type SimSpindle struct {
	mu    sync.Mutex
	State core.SpindleState
	RPM   float64
}

func (s *SimSpindle) SetState(st core.SpindleState, rpm float64) error {
	s.mu.Lock()
	s.State, s.RPM = st, rpm
	s.mu.Unlock()
	return nil
}

func (s *SimSpindle) GetRPM() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == core.SpindleOff {
		return 0, nil
	}
	return s.RPM, nil
}

// SimCoolant records the last commanded coolant state.
type SimCoolant struct {
	mu    sync.Mutex
	State core.CoolantState
}

func (c *SimCoolant) SetState(st core.CoolantState) error {
	c.mu.Lock()
	c.State = st
	c.mu.Unlock()
	return nil
}

// SimProbe is a flag-driven probe input.
type SimProbe struct {
	mu        sync.Mutex
	Contacted bool
	inverted  bool
}

func (p *SimProbe) Triggered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Contacted != p.inverted
}

func (p *SimProbe) ConfigureInvert(invert bool) {
	p.mu.Lock()
	p.inverted = invert
	p.mu.Unlock()
}

// SetContacted flips the simulated probe input.
func (p *SimProbe) SetContacted(v bool) {
	p.mu.Lock()
	p.Contacted = v
	p.mu.Unlock()
}

// SimControl is a flag-driven control-pin bank.
type SimControl struct {
	mu    sync.Mutex
	State core.ControlPinState
}

func (c *SimControl) GetState() core.ControlPinState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.State
}

// Set replaces the simulated pin state.
func (c *SimControl) Set(st core.ControlPinState) {
	c.mu.Lock()
	c.State = st
	c.mu.Unlock()
}
