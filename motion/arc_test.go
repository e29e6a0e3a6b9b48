package motion

import (
	"math"
	"testing"

	"grblcore/core"
	"grblcore/state"
)

// quarterArc runs the reference quarter circle: (10,0,0) to (0,10,0)
// around center (0,0), CCW, R=10.
func quarterArc(h *harness, pl *core.PlanLineRequest) {
	position := []float64{10, 0, 0}
	target := []float64{0, 10, 0}
	offset := []float64{-10, 0, 0}
	h.c.Arc(target, pl, position, offset, 10, PlaneXY, false)
}

func TestArcQuarterCircleSegmentation(t *testing.T) {
	h := newHarness(func(s *core.Settings) { s.ArcTolerance = 0.002 })

	pl := feedRequest(600)
	quarterArc(h, &pl)

	// floor((pi/2 * 10 / 2) / sqrt(0.002 * (20 - 0.002))) = 39 segments:
	// 38 intermediate points plus the exact final target.
	if len(h.planner.pushes) != 39 {
		t.Fatalf("push count = %d, want 39", len(h.planner.pushes))
	}

	last := h.planner.pushes[len(h.planner.pushes)-1].target
	if last[0] != 0 || last[1] != 10 || last[2] != 0 {
		t.Errorf("final target = %v, want (0,10,0)", last)
	}
}

func TestArcIntermediatePointsOnCircle(t *testing.T) {
	h := newHarness(func(s *core.Settings) { s.ArcTolerance = 0.002 })

	pl := feedRequest(600)
	quarterArc(h, &pl)

	for i, p := range h.planner.pushes {
		r := math.Hypot(p.target[0], p.target[1])
		if math.Abs(r-10) > h.m.Settings.ArcTolerance {
			t.Errorf("segment %d: |r - R| = %g exceeds tolerance", i, math.Abs(r-10))
		}
	}
}

func TestArcNegligibleTravelSinglePush(t *testing.T) {
	h := newHarness(nil)

	// A CCW arc whose angular travel is microscopic but above the
	// direction-correction epsilon: zero segments, one push straight to
	// the target.
	theta := 1e-5
	position := []float64{10, 0, 0}
	target := []float64{10 * math.Cos(theta), 10 * math.Sin(theta), 0}
	offset := []float64{-10, 0, 0}

	pl := feedRequest(300)
	h.c.Arc(target, &pl, position, offset, 10, PlaneXY, false)

	if len(h.planner.pushes) != 1 {
		t.Fatalf("push count = %d, want 1", len(h.planner.pushes))
	}
	got := h.planner.pushes[0].target
	if got[0] != target[0] || got[1] != target[1] {
		t.Errorf("target = %v, want %v", got, target)
	}
}

func TestArcClockwiseTinyResidualFullCircle(t *testing.T) {
	h := newHarness(nil)

	// Clockwise with a tiny positive residual: the 2π correction turns
	// it into (nearly) a full circle, never a degenerate no-op.
	theta := 1e-8
	position := []float64{10, 0, 0}
	target := []float64{10 * math.Cos(theta), 10 * math.Sin(theta), 0}
	offset := []float64{-10, 0, 0}

	pl := feedRequest(300)
	h.c.Arc(target, &pl, position, offset, 10, PlaneXY, true)

	if len(h.planner.pushes) < 2 {
		t.Fatalf("push count = %d, want a full circle's worth", len(h.planner.pushes))
	}
}

func TestArcInverseTimeFeedDistributed(t *testing.T) {
	h := newHarness(func(s *core.Settings) { s.ArcTolerance = 0.002 })

	pl := feedRequest(2) // complete the arc in half a minute
	pl.Condition.InverseTime = true
	quarterArc(h, &pl)

	// 39 segments: each push carries feed*segments with the flag cleared.
	first := h.planner.pushes[0].pl
	if first.Condition.InverseTime {
		t.Error("inverse-time flag survived decomposition")
	}
	if first.FeedRate != 2*39 {
		t.Errorf("segment feed = %v, want %v", first.FeedRate, 2*39.0)
	}
}

func TestArcHelicalLinearAxisAdvances(t *testing.T) {
	h := newHarness(nil)

	position := []float64{10, 0, 0}
	target := []float64{0, 10, 5}
	offset := []float64{-10, 0, 0}
	pl := feedRequest(600)
	h.c.Arc(target, &pl, position, offset, 10, PlaneXY, false)

	pushes := h.planner.pushes
	for i := 1; i < len(pushes); i++ {
		if pushes[i].target[2] < pushes[i-1].target[2] {
			t.Fatalf("linear axis regressed at segment %d", i)
		}
	}
	if last := pushes[len(pushes)-1].target[2]; last != 5 {
		t.Errorf("final Z = %v, want 5", last)
	}
}

func TestArcAbortMidCircle(t *testing.T) {
	h := newHarness(func(s *core.Settings) { s.ArcTolerance = 0.002 })
	h.m.Mode = state.ModeCycle
	h.motion.consume = false // stay mid-cycle for the whole arc

	// An interrupt-level reset arrives after the tenth segment.
	h.planner.onPush = func(n int) {
		if n == 10 {
			h.m.ResetRequest()
		}
	}

	pl := feedRequest(600)
	quarterArc(h, &pl)

	if len(h.planner.pushes) != 10 {
		t.Fatalf("push count = %d, want exactly 10", len(h.planner.pushes))
	}
	if !h.m.Aborted() {
		t.Error("abort flag not latched")
	}
	if h.m.Mode != state.ModeAlarm {
		t.Errorf("mode = %v, want Alarm", h.m.Mode)
	}

	// The cycle abort is latched for the operator.
	// (The alarm was drained into the mode change; the planner must not
	// have seen anything after the reset.)
	if h.motion.idleCalls == 0 {
		t.Error("steppers not killed on reset")
	}
}
