package motion

import (
	"testing"

	"grblcore/core"
	"grblcore/state"
)

func TestProbeCheckMode(t *testing.T) {
	h := newHarness(nil)
	h.m.Mode = state.ModeCheck

	pl := feedRequest(100)
	if got := h.c.ProbeCycle([]float64{0, 0, -10}, &pl, ProbeFlags{}); got != ProbeCheckMode {
		t.Fatalf("result = %v, want CheckMode", got)
	}
	if len(h.planner.pushes) != 0 {
		t.Error("check mode pushed motion")
	}
}

func TestProbeAlreadyTriggered(t *testing.T) {
	h := newHarness(nil)
	h.probe.contacted = true

	pl := feedRequest(100)
	if got := h.c.ProbeCycle([]float64{0, 0, -10}, &pl, ProbeFlags{}); got != ProbeFailInit {
		t.Fatalf("result = %v, want FailInit", got)
	}
	if h.m.Mode != state.ModeAlarm {
		t.Errorf("mode = %v, want Alarm", h.m.Mode)
	}
	if len(h.planner.pushes) != 0 {
		t.Error("probe moved despite initial contact")
	}
	if h.probe.inverted {
		t.Error("invert mask not restored")
	}
}

func TestProbeFound(t *testing.T) {
	h := newHarness(nil)
	h.probe.triggerIn = 2
	h.motion.position = []float64{1, 2, -4}

	pl := feedRequest(100)
	got := h.c.ProbeCycle([]float64{0, 0, -10}, &pl, ProbeFlags{})

	if got != ProbeFound {
		t.Fatalf("result = %v, want Found", got)
	}
	if !h.m.ProbeSucceeded {
		t.Error("success flag not set")
	}
	if h.m.ProbePosition[2] != -4 {
		t.Errorf("latched position = %v", h.m.ProbePosition)
	}
	if h.planner.resets == 0 || h.motion.segResets == 0 {
		t.Error("probe remainder not flushed")
	}
	if h.planner.syncs == 0 {
		t.Error("position not resynced")
	}
}

func TestProbeMissWithoutNoError(t *testing.T) {
	h := newHarness(nil)

	pl := feedRequest(100)
	got := h.c.ProbeCycle([]float64{0, 0, -10}, &pl, ProbeFlags{})

	if got != ProbeFailEnd {
		t.Fatalf("result = %v, want FailEnd", got)
	}
	if h.m.Mode != state.ModeAlarm {
		t.Errorf("mode = %v, want Alarm (contact failure)", h.m.Mode)
	}
}

func TestProbeMissWithNoError(t *testing.T) {
	h := newHarness(nil)
	h.motion.position = []float64{0, 0, -10}

	pl := feedRequest(100)
	got := h.c.ProbeCycle([]float64{0, 0, -10}, &pl, ProbeFlags{NoError: true})

	if got != ProbeFailEnd {
		t.Fatalf("result = %v, want FailEnd", got)
	}
	if h.m.Mode == state.ModeAlarm {
		t.Error("no-error miss must not alarm")
	}
	if h.m.ProbePosition[2] != -10 {
		t.Errorf("end position not snapshotted: %v", h.m.ProbePosition)
	}
}

func TestProbeAwayInvertsPin(t *testing.T) {
	h := newHarness(nil)
	// The away probe inverts the sense: an untriggered pin reads as
	// contact, so the initial check must fail.
	pl := feedRequest(100)
	if got := h.c.ProbeCycle([]float64{0, 0, -10}, &pl, ProbeFlags{Away: true}); got != ProbeFailInit {
		t.Fatalf("result = %v, want FailInit via inverted sense", got)
	}
}

func TestProbeReportHook(t *testing.T) {
	h := newHarness(func(s *core.Settings) { s.ProbeReportCoordinates = true })
	h.probe.triggerIn = 2
	h.motion.position = []float64{3, 0, 0}

	var reported []float64
	var reportedOK bool
	h.m.OnProbeReport = func(p []float64, ok bool) {
		reported = append([]float64(nil), p...)
		reportedOK = ok
	}

	pl := feedRequest(100)
	h.c.ProbeCycle([]float64{10, 0, 0}, &pl, ProbeFlags{})

	if reported == nil || !reportedOK {
		t.Fatalf("probe report missing: %v %v", reported, reportedOK)
	}
	if reported[0] != 3 {
		t.Errorf("reported position = %v", reported)
	}
}
