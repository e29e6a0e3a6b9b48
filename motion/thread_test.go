package motion

import (
	"math"
	"testing"
)

func threadParams() *ThreadParams {
	return &ThreadParams{
		AxisX:           0,
		AxisZ:           2,
		Pitch:           1.5,
		ZFinal:          -20,
		Peak:            0.5,
		InitialDepth:    0.2,
		Depth:           1.0,
		DepthDegression: 2.0,
		SpringPasses:    2,
		CutDirection:    1,
	}
}

func TestThreadPassDepthRegression(t *testing.T) {
	h := newHarness(nil)

	position := []float64{5, 0, 0}
	h.motion.position = []float64{5, 0, 0}
	pl := feedRequest(1.5)
	h.c.Thread(&pl, position, threadParams(), false)

	// Infeed X positions carry start + peak + DOC per pass. Collect the
	// rapid X moves that enter each pass.
	var docs []float64
	for _, p := range h.planner.pushes {
		if p.pl.Condition.Rapid && p.target[0] > 5 && p.target[2] == 0 {
			docs = append(docs, p.target[0]-5-0.5)
		}
	}

	// DOC(p) = 0.2·√p reaches full depth at p = 25: 25 regressed passes
	// (the 25th at full depth), then two spring passes at full depth.
	wantPasses := 27
	if len(docs) != wantPasses {
		t.Fatalf("infeed count = %d, want %d", len(docs), wantPasses)
	}

	wantFirst := []float64{0.2, 0.2 * math.Sqrt2, 0.2 * math.Sqrt(3), 0.4}
	for i, want := range wantFirst {
		if math.Abs(docs[i]-want) > 1e-9 {
			t.Errorf("pass %d DOC = %v, want %v", i+1, docs[i], want)
		}
	}
	for i := wantPasses - 3; i < wantPasses; i++ {
		if math.Abs(docs[i]-1.0) > 1e-9 {
			t.Errorf("pass %d DOC = %v, want full depth", i+1, docs[i])
		}
	}
}

func TestThreadSynchronizationBracketing(t *testing.T) {
	h := newHarness(nil)

	position := []float64{5, 0, 0}
	h.motion.position = []float64{5, 0, 0}
	pl := feedRequest(1.5)
	h.c.Thread(&pl, position, threadParams(), false)

	// Every synchronized push is a cut (non-rapid, feed-hold-disabled);
	// every rapid push has sync off.
	syncCount := 0
	for i, p := range h.planner.pushes {
		if p.pl.Condition.SpindleSynchronized {
			syncCount++
			if p.pl.Condition.Rapid {
				t.Errorf("push %d: synchronized rapid", i)
			}
			if !p.pl.FeedHoldDisable {
				t.Errorf("push %d: cut without feed-hold disable", i)
			}
		} else if !p.pl.Condition.Rapid && p.target[2] != 0 {
			// Repositions are rapid; the only non-rapid moves are cuts.
			t.Errorf("push %d: unsynchronized feed move: %+v", i, p)
		}
	}

	// One main cut per pass; no tapers configured.
	if syncCount != 27 {
		t.Errorf("synchronized cuts = %d, want 27", syncCount)
	}
}

func TestThreadEntryExitTapers(t *testing.T) {
	h := newHarness(nil)

	th := threadParams()
	th.SpringPasses = 0
	th.InitialDepth = 0.5
	th.DepthDegression = 1
	th.EndTaperType = TaperBoth
	th.EndTaperLength = 2

	position := []float64{5, 0, 0}
	h.motion.position = []float64{5, 0, 0}
	pl := feedRequest(1.5)
	h.c.Thread(&pl, position, th, false)

	// With both tapers the synchronized stretch is entry, entry ramp,
	// main, exit per pass.
	sync := 0
	for _, p := range h.planner.pushes {
		if p.pl.Condition.SpindleSynchronized {
			sync++
		}
	}
	// DOC 0.5 then full depth: 2 passes, 4 synced moves each (entry
	// approach, entry ramp, main, exit).
	if sync != 8 {
		t.Errorf("synchronized pushes = %d, want 8", sync)
	}
}

func TestThreadTaperOpposesCutDirection(t *testing.T) {
	h := newHarness(nil)

	// Cutting toward +Z flips the taper length sign so tapers still
	// oppose the cut.
	th := threadParams()
	th.ZFinal = 20
	th.EndTaperType = TaperExit
	th.EndTaperLength = 2
	th.SpringPasses = 0
	th.InitialDepth = 1
	th.DepthDegression = 1

	position := []float64{5, 0, 0}
	h.motion.position = []float64{5, 0, 0}
	pl := feedRequest(1.5)
	h.c.Thread(&pl, position, th, false)

	if th.EndTaperLength != -2 {
		t.Errorf("taper length = %v, want sign-flipped -2", th.EndTaperLength)
	}
}

func TestThreadCompoundInfeedOffsetsZ(t *testing.T) {
	h := newHarness(nil)

	th := threadParams()
	th.InfeedAngle = 30
	th.SpringPasses = 0

	position := []float64{5, 0, 0}
	h.motion.position = []float64{5, 0, 0}
	pl := feedRequest(1.5)
	h.c.Thread(&pl, position, th, false)

	// The very first motion is the compound-angle Z offset.
	first := h.planner.pushes[0]
	wantZ := th.Depth * math.Tan(30*math.Pi/180)
	if math.Abs(first.target[2]-wantZ) > 1e-9 {
		t.Errorf("initial Z offset = %v, want %v", first.target[2], wantZ)
	}
}
