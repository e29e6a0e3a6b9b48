package motion

import (
	"testing"

	"grblcore/core"
	"grblcore/state"
)

func homingHarness() *harness {
	return newHarness(func(s *core.Settings) {
		s.HomingEnabledMask = 0x7
		s.HomingCycles = []core.HomingCycleGroup{
			{Name: "z", AxisMask: 0x4},
			{Name: "xy", AxisMask: 0x3},
		}
		s.TravelMax = []float64{200, 200, 100}
	})
}

func TestHomingTwoSwitchRefusal(t *testing.T) {
	h := homingHarness()
	h.m.Settings.TwoSwitchesOnOnePin = true
	h.motion.limits = 0x1 // a switch is already engaged

	status := h.c.HomingCycle(0)

	if status != state.StatusUnhandled {
		t.Fatalf("status = %v, want Unhandled", status)
	}
	if h.m.RT.PendingAlarm() != core.AlarmHardLimit {
		t.Errorf("alarm = %v, want HardLimit", h.m.RT.PendingAlarm())
	}
	if len(h.planner.pushes) != 0 {
		t.Error("homing moved despite the refusal")
	}
}

func TestHomingCycleTableSuccess(t *testing.T) {
	h := homingHarness()
	h.motion.limitsIn = 3
	h.motion.limitsVal = 0x7 // all switches assert once seeking

	status := h.c.HomingCycle(0)

	if status != state.StatusOK {
		t.Fatalf("status = %v, want OK", status)
	}
	if h.m.Homed != 0x7 {
		t.Errorf("homed mask = %#x, want 0x7", h.m.Homed)
	}
	if h.m.Mode != state.ModeIdle {
		t.Errorf("mode = %v, want Idle", h.m.Mode)
	}
	// Seek + pull-off per group.
	if len(h.planner.pushes) != 4 {
		t.Errorf("push count = %d, want 4", len(h.planner.pushes))
	}
	if h.planner.syncs == 0 {
		t.Error("positions never resynced")
	}
}

func TestHomingSeekDirection(t *testing.T) {
	h := newHarness(func(s *core.Settings) {
		s.HomingEnabledMask = 0x1
		s.HomingDirectionMask = 0x1 // X homes negative
		s.HomingCycles = []core.HomingCycleGroup{{Name: "x", AxisMask: 0x1}}
	})
	h.motion.limitsIn = 2
	h.motion.limitsVal = 0x1

	h.c.HomingCycle(0)

	seek := h.planner.pushes[0]
	if seek.target[0] >= 0 {
		t.Errorf("seek X = %v, want negative travel", seek.target[0])
	}
	if !seek.pl.Condition.SystemMotion || !seek.pl.Condition.NoFeedOverride {
		t.Errorf("seek condition = %+v", seek.pl.Condition)
	}

	pulloff := h.planner.pushes[1]
	if pulloff.target[0] != h.m.Settings.HomingPulloff {
		t.Errorf("pull-off X = %v, want +%v off the switch", pulloff.target[0], h.m.Settings.HomingPulloff)
	}
}

func TestHomingMaskRestrictedToEnabledAxes(t *testing.T) {
	h := homingHarness()
	h.m.Settings.HomingEnabledMask = 0x3 // Z not homable
	h.motion.limitsIn = 2
	h.motion.limitsVal = 0xF

	h.c.HomingCycle(0x4)

	if h.m.Homed&0x4 != 0 {
		t.Error("disabled axis reported homed")
	}
	if len(h.planner.pushes) != 0 {
		t.Error("disabled axis group still moved")
	}
}

func TestHomingAbortedByReset(t *testing.T) {
	h := homingHarness()
	// Limits never assert; a reset arrives instead.
	ticks := 0
	h.m.ExecutePerTick = func(state.Mode) {
		ticks++
		if ticks == 3 {
			h.m.ResetRequest()
		}
	}

	status := h.c.HomingCycle(0)

	if status == state.StatusOK {
		t.Fatal("homing should not succeed")
	}
	if !h.m.Aborted() {
		t.Error("abort not latched")
	}
	if h.m.RT.PendingAlarm() != core.AlarmNone && h.m.RT.PendingAlarm() != core.AlarmHomingFailReset {
		t.Errorf("unexpected alarm %v", h.m.RT.PendingAlarm())
	}
}
