package motion

import (
	"grblcore/core"
	"grblcore/state"
)

// recordedPush captures one planner push with its request flags.
type recordedPush struct {
	target []float64
	pl     core.PlanLineRequest
}

type fakePlanner struct {
	pushes  []recordedPush
	pending int
	resets  int
	syncs   int

	fullFor    int  // IsFull returns true this many times, then false
	rejectNext bool // reject the next push, simulating zero length

	onPush func(n int) // called after the nth push (1-based)
}

func (f *fakePlanner) Push(target []float64, pl *core.PlanLineRequest) bool {
	if f.rejectNext {
		f.rejectNext = false
		return false
	}
	cp := make([]float64, len(target))
	copy(cp, target)
	f.pushes = append(f.pushes, recordedPush{target: cp, pl: *pl})
	f.pending++
	if f.onPush != nil {
		f.onPush(len(f.pushes))
	}
	return true
}

func (f *fakePlanner) IsFull() bool {
	if f.fullFor > 0 {
		f.fullFor--
		return true
	}
	return false
}

func (f *fakePlanner) HasCurrentBlock() bool  { return f.pending > 0 }
func (f *fakePlanner) Reset()                 { f.resets++; f.pending = 0 }
func (f *fakePlanner) SyncPositionFromSteps() { f.syncs++ }
func (f *fakePlanner) FeedOverride(float64, float64) {}

type fakeMotion struct {
	rt        *core.RealtimeRegister
	planner   *fakePlanner
	position  []float64
	limits    uint32
	limitsIn  int // LimitsGetState calls before limits asserts limitsVal
	limitsVal uint32
	calls     int

	idleCalls int
	segResets int
	consume   bool // PrepBuffer consumes pending blocks
}

func (f *fakeMotion) PrepBuffer() {
	if f.consume && f.planner != nil && f.planner.pending > 0 {
		f.planner.pending = 0
		if f.rt != nil {
			f.rt.SetStateFlag(core.ExecStateCycleComplete)
		}
	}
}
func (f *fakeMotion) WakeUp()             {}
func (f *fakeMotion) GoIdle()             { f.idleCalls++ }
func (f *fakeMotion) ResetSegmentBuffer() { f.segResets++ }
func (f *fakeMotion) ParkingSetupBuffer() {}
func (f *fakeMotion) LimitsEnable(hard bool, probeMode bool) {}

func (f *fakeMotion) LimitsGetState() uint32 {
	f.calls++
	if f.limitsIn > 0 && f.calls >= f.limitsIn {
		f.limits = f.limitsVal
	}
	return f.limits
}

func (f *fakeMotion) MachinePosition() []float64 {
	out := make([]float64, len(f.position))
	copy(out, f.position)
	return out
}

type fakeSpindle struct {
	state core.SpindleState
	rpm   float64
	calls int
}

func (f *fakeSpindle) SetState(st core.SpindleState, rpm float64) error {
	f.state, f.rpm = st, rpm
	f.calls++
	return nil
}
func (f *fakeSpindle) GetRPM() (float64, error) { return f.rpm, nil }

type fakeCoolant struct{ state core.CoolantState }

func (f *fakeCoolant) SetState(st core.CoolantState) error { f.state = st; return nil }

type fakeProbe struct {
	contacted  bool
	inverted   bool
	triggerIn  int // Triggered calls before contact asserts
	calls      int
}

func (f *fakeProbe) Triggered() bool {
	f.calls++
	if f.triggerIn > 0 && f.calls >= f.triggerIn {
		f.contacted = true
	}
	return f.contacted != f.inverted
}

func (f *fakeProbe) ConfigureInvert(invert bool) { f.inverted = invert }

type fakeControl struct{ pins core.ControlPinState }

func (f *fakeControl) GetState() core.ControlPinState { return f.pins }

// fakeClock advances one millisecond per read so timed waits terminate.
type fakeClock struct{ ms uint64 }

func (c *fakeClock) NowMillis() uint64 {
	c.ms++
	return c.ms
}

type harness struct {
	m       *state.Machine
	c       *Controller
	planner *fakePlanner
	motion  *fakeMotion
	spindle *fakeSpindle
	probe   *fakeProbe
	control *fakeControl
}

func newHarness(mutate func(*core.Settings)) *harness {
	settings := &core.Settings{}
	settings.ApplyDefaults()
	if mutate != nil {
		mutate(settings)
		settings.ApplyDefaults()
	}

	m := state.NewMachine(settings, &core.RealtimeRegister{})
	pl := &fakePlanner{}
	mo := &fakeMotion{rt: m.RT, planner: pl, consume: true, position: make([]float64, settings.AxisCount)}
	sp := &fakeSpindle{}
	pr := &fakeProbe{}
	ct := &fakeControl{}

	m.Planner = pl
	m.Motion = mo
	m.Spindle = sp
	m.Coolant = &fakeCoolant{}
	m.Probe = pr
	m.Control = ct
	m.Clock = &fakeClock{}

	return &harness{
		m:       m,
		c:       NewController(m),
		planner: pl,
		motion:  mo,
		spindle: sp,
		probe:   pr,
		control: ct,
	}
}

func feedRequest(feed float64) core.PlanLineRequest {
	return core.PlanLineRequest{FeedRate: feed}
}
