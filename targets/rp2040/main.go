//go:build rp2040 || rp2350

package main

import (
	"machine"

	"grblcore/core"
	"grblcore/host"
	"grblcore/motion"
	"grblcore/planner"
	"grblcore/state"
)

// Limit switch inputs, active-low with pull-ups, one per axis.
var limitPins = []machine.Pin{machine.GPIO16, machine.GPIO17, machine.GPIO18}

func main() {
	// Clear any watchdog state left over from a previous reset.
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	core.SetGPIODriver(RP2040GPIODriver{})
	core.SetPWMDriver(NewRP2040PWMDriver())

	for _, p := range limitPins {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	settings := &core.Settings{}
	settings.ApplyDefaults()

	rt := &core.RealtimeRegister{}
	m := state.NewMachine(settings, rt)
	m.Clock = MCUClock{}

	driver := &boardMotion{rt: rt, position: make([]float64, settings.AxisCount)}
	plan := planner.New(settings, driver.MachinePosition)
	driver.planner = plan

	m.Planner = plan
	m.Motion = driver
	if spindle, err := NewPWMSpindle(core.MustPWM(), 24000); err == nil {
		m.Spindle = spindle
	}
	m.Coolant = NewGPIOCoolant()
	m.Probe = NewTOFProbe()
	m.Control = NewControlPins()

	stream := &USBStream{}
	m.Stream = stream

	mc := motion.NewController(m)
	proto := host.NewProtocol(m, mc)
	stream.Siphon = proto.Ingest.Classify

	// Re-initialize after every abort as a warm restart; the cold-start
	// gate runs only on the first pass and after an exit request.
	cold := true
	for {
		if !proto.Run(cold) {
			cold = true
			continue // exit is meaningless on hardware; restart instead
		}
		m.SetAbort(false)
		rt.Drain()
		rt.FlushOverrides()
		plan.Reset()
		m.SyncPositions()
		m.SetMode(state.ModeIdle)
		cold = false
	}
}

// boardMotion hands solved blocks to the motion output stage and tracks
// the commanded machine position. Pulse generation lives downstream of
// this boundary.
type boardMotion struct {
	rt      *core.RealtimeRegister
	planner *planner.Planner

	position []float64
	running  bool
	hard     bool
}

func (d *boardMotion) PrepBuffer() {
	if !d.running || d.planner == nil {
		return
	}
	drained := false
	for {
		b := d.planner.CurrentBlock()
		if b == nil {
			break
		}
		copy(d.position, b.Target)
		d.planner.Advance()
		drained = true
	}
	if drained && !d.planner.HasCurrentBlock() {
		d.running = false
		d.rt.SetStateFlag(core.ExecStateCycleComplete)
	}
}

func (d *boardMotion) WakeUp() { d.running = true }

func (d *boardMotion) GoIdle() { d.running = false }

func (d *boardMotion) ResetSegmentBuffer() { d.running = false }

func (d *boardMotion) ParkingSetupBuffer() {}

func (d *boardMotion) LimitsEnable(hard bool, probeMode bool) { d.hard = hard }

func (d *boardMotion) LimitsGetState() uint32 {
	var mask uint32
	for i, p := range limitPins {
		if !p.Get() { // active low
			mask |= 1 << uint(i)
		}
	}
	return mask
}

func (d *boardMotion) MachinePosition() []float64 {
	out := make([]float64, len(d.position))
	copy(out, d.position)
	return out
}
