package motion

import (
	"math"
	"testing"
)

func TestCannedDrillSinglePlunge(t *testing.T) {
	h := newHarness(nil)
	h.motion.position = []float64{0, 0, 5}

	position := []float64{0, 0, 5}
	target := []float64{10, 20, -1}
	p := &DrillParams{
		RetractMode:     RetractRPlane,
		RetractPosition: 2,
		PrevPosition:    5,
		HoleBottom:      []float64{10, 20, -1},
		Delta:           3, // R to bottom in one clamped plunge
		RapidRetract:    true,
	}

	pl := feedRequest(120)
	h.c.CannedDrill(DrillPlain, target, &pl, position, PlaneXY, 1, p)

	pushes := h.planner.pushes
	// rapid XY at prev (5) → rapid down to R (2) → feed to -1 → rapid to R.
	if len(pushes) != 4 {
		t.Fatalf("push count = %d: %v", len(pushes), pushes)
	}
	if pushes[0].target[2] != 5 || pushes[0].target[0] != 10 {
		t.Errorf("pre-position push = %v", pushes[0].target)
	}
	if pushes[1].target[2] != 2 || !pushes[1].pl.Condition.Rapid {
		t.Errorf("rapid-to-R push = %v", pushes[1])
	}
	if pushes[2].target[2] != -1 || pushes[2].pl.Condition.Rapid {
		t.Errorf("drill push must be a feed move to depth: %+v", pushes[2])
	}
	if pushes[3].target[2] != 2 {
		t.Errorf("retract push = %v", pushes[3].target)
	}
}

func TestCannedDrillPecksClampToDepth(t *testing.T) {
	h := newHarness(nil)
	h.motion.position = []float64{0, 0, 2}

	position := []float64{0, 0, 2}
	target := []float64{0, 0, -1}
	p := &DrillParams{
		RetractMode:     RetractRPlane,
		RetractPosition: 2,
		PrevPosition:    2,
		HoleBottom:      []float64{0, 0, -1},
		Delta:           1.25,
		RapidRetract:    true,
	}

	pl := feedRequest(120)
	h.c.CannedDrill(DrillPlain, target, &pl, position, PlaneXY, 1, p)

	var depths []float64
	for _, push := range h.planner.pushes {
		if !push.pl.Condition.Rapid {
			depths = append(depths, push.target[2])
		}
	}
	want := []float64{0.75, -0.5, -1}
	if len(depths) != len(want) {
		t.Fatalf("feed plunges = %v, want %v", depths, want)
	}
	for i := range want {
		if math.Abs(depths[i]-want[i]) > 1e-12 {
			t.Errorf("peck %d: got %v want %v", i, depths[i], want[i])
		}
	}
}

func TestCannedDrillChipBreakRetract(t *testing.T) {
	h := newHarness(nil)
	h.motion.position = []float64{0, 0, 2}

	position := []float64{0, 0, 2}
	target := []float64{0, 0, -2}
	p := &DrillParams{
		RetractMode:     RetractRPlane,
		RetractPosition: 2,
		PrevPosition:    2,
		HoleBottom:      []float64{0, 0, -2},
		Delta:           2,
		RapidRetract:    true,
	}

	pl := feedRequest(120)
	h.c.CannedDrill(DrillChipBreak, target, &pl, position, PlaneXY, 1, p)

	pushes := h.planner.pushes
	// First peck stops at 0 (above depth): retract is the short G73
	// back-off, not a return to R.
	var retracts []float64
	for i := 1; i < len(pushes); i++ {
		if pushes[i].pl.Condition.Rapid && pushes[i-1].target[2] < pushes[i].target[2] {
			retracts = append(retracts, pushes[i].target[2]-pushes[i-1].target[2])
		}
	}
	if len(retracts) < 2 {
		t.Fatalf("retracts = %v", retracts)
	}
	if math.Abs(retracts[0]-h.m.Settings.G73Retract) > 1e-12 {
		t.Errorf("chip-break retract = %v, want %v", retracts[0], h.m.Settings.G73Retract)
	}
	// Final retract returns to the R plane.
	last := pushes[len(pushes)-1]
	if last.target[2] != 2 {
		t.Errorf("final position = %v, want back at R", last.target[2])
	}
}

func TestCannedDrillRetractToPrevious(t *testing.T) {
	h := newHarness(nil)
	h.motion.position = []float64{0, 0, 5}

	position := []float64{0, 0, 5}
	target := []float64{0, 0, -1}
	p := &DrillParams{
		RetractMode:     RetractPrevious,
		RetractPosition: 2,
		PrevPosition:    5,
		HoleBottom:      []float64{0, 0, -1},
		Delta:           10,
		RapidRetract:    true,
	}

	pl := feedRequest(120)
	h.c.CannedDrill(DrillPlain, target, &pl, position, PlaneXY, 1, p)

	last := h.planner.pushes[len(h.planner.pushes)-1]
	if last.target[2] != 5 {
		t.Errorf("final retract = %v, want previous Z 5", last.target[2])
	}
}
