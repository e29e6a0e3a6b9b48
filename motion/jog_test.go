package motion

import (
	"testing"

	"grblcore/core"
	"grblcore/state"
)

func TestJogExecuteStartsJogState(t *testing.T) {
	h := newHarness(nil)
	h.motion.consume = false // keep the block queued so the state holds

	pl := feedRequest(1000)
	status := h.c.JogExecute([]float64{5, 0, 0}, &pl)

	if status != state.StatusOK {
		t.Fatalf("status = %v", status)
	}
	if h.m.Mode != state.ModeJog {
		t.Errorf("mode = %v, want Jog", h.m.Mode)
	}
	if !pl.Condition.Jog || !pl.Condition.NoFeedOverride {
		t.Errorf("jog condition flags missing: %+v", pl.Condition)
	}
}

func TestJogTravelExceededIsStatusNotAlarm(t *testing.T) {
	h := newHarness(func(s *core.Settings) {
		s.SoftLimitsEnabled = true
		s.TravelMax = []float64{100, 100, 100}
	})

	pl := feedRequest(1000)
	status := h.c.JogExecute([]float64{150, 0, 0}, &pl)

	if status != state.StatusTravelExceeded {
		t.Fatalf("status = %v, want TravelExceeded", status)
	}
	if h.m.Mode == state.ModeAlarm {
		t.Error("jog violation must not latch an alarm")
	}
	if len(h.planner.pushes) != 0 {
		t.Error("violating jog was pushed")
	}
}

func TestDwellWaitsOutTheClock(t *testing.T) {
	h := newHarness(nil)

	if !h.c.Dwell(0.05) {
		t.Fatal("dwell aborted unexpectedly")
	}
}

func TestDwellSkippedInCheckMode(t *testing.T) {
	h := newHarness(nil)
	h.m.Mode = state.ModeCheck
	clk := h.m.Clock.(*fakeClock)
	before := clk.ms

	h.c.Dwell(10)

	if clk.ms != before {
		t.Error("check-mode dwell consulted the clock")
	}
}

func TestDwellAbortedByReset(t *testing.T) {
	h := newHarness(nil)
	ticks := 0
	h.m.ExecutePerTick = func(state.Mode) {
		ticks++
		if ticks == 3 {
			h.m.RT.SetStateFlag(core.ExecStateReset)
		}
	}

	if h.c.Dwell(3600) {
		t.Fatal("dwell must abort on reset")
	}
}

func TestParkingMotionArmsSysMotion(t *testing.T) {
	h := newHarness(nil)

	pl := feedRequest(600)
	pl.Condition.Rapid = true
	if !h.c.ParkingMotion([]float64{0, 0, 10}, &pl) {
		t.Fatal("parking motion rejected")
	}
	if !h.m.StepControl.ExecuteSysMotion {
		t.Error("system-motion flag not armed")
	}
	if !h.planner.pushes[0].pl.Condition.SystemMotion {
		t.Error("parking block not marked as system motion")
	}
}

func TestParkingMotionZeroLengthReportsComplete(t *testing.T) {
	h := newHarness(nil)
	h.planner.rejectNext = true

	pl := feedRequest(600)
	if h.c.ParkingMotion([]float64{0, 0, 0}, &pl) {
		t.Fatal("zero-length park should report false")
	}
	if !h.m.RT.Test(core.ExecStateCycleComplete) {
		t.Error("cycle-complete not flagged")
	}
}

func TestOverrideCtrlUpdateAfterSync(t *testing.T) {
	h := newHarness(nil)

	h.c.OverrideCtrlUpdate(state.OverrideControl{FeedHoldDisable: true})
	if !h.m.Override.Control.FeedHoldDisable {
		t.Error("override control not updated")
	}
}
