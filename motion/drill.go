package motion

import "grblcore/core"

// DrillMode selects the canned drilling variant.
type DrillMode uint8

const (
	DrillPlain     DrillMode = iota // G81
	DrillDwell                      // G82
	DrillChipBreak                  // G73
)

// RetractMode selects where the tool parks between holes.
type RetractMode uint8

const (
	RetractPrevious RetractMode = iota // G98: previous linear-axis position
	RetractRPlane                      // G99: the R plane
)

// DrillParams are the modal canned-drilling parameters.
type DrillParams struct {
	RetractMode     RetractMode
	RetractPosition float64   // R plane, machine mm on the linear axis
	PrevPosition    float64   // linear-axis position before the cycle
	HoleBottom      []float64 // full target vector, linear axis at final depth
	Delta           float64   // depth per peck
	Dwell           float64   // seconds at the bottom of each peck
	SpindleOff      bool      // stop the spindle at the bottom of each peck
	RapidRetract    bool
}

// CannedDrill runs one drilling block: pre-position, peck to depth with
// the configured retract strategy, repeat per the repeat count, and park
// per the retract mode. position is advanced in place; target is left at
// the final location.
func (c *Controller) CannedDrill(mode DrillMode, target []float64, pl *core.PlanLineRequest,
	position []float64, plane Plane, repeats uint32, p *DrillParams) {

	m := c.M
	lin := plane.AxisLinear

	pl.Condition.Rapid = true

	// Below the R plane: rapid straight up to R before traversing.
	if position[lin] < p.RetractPosition {
		position[lin] = p.RetractPosition
		if !c.Line(position, pl) {
			return
		}
	}

	// Rapid in-plane to the hole center, staying at whichever of the
	// previous position and R is higher.
	copy(position, target)
	if p.PrevPosition > p.RetractPosition {
		position[lin] = p.PrevPosition
	} else {
		position[lin] = p.RetractPosition
	}
	if !c.Line(position, pl) {
		return
	}

	// Still above R: rapid down to R.
	if position[lin] > p.RetractPosition {
		position[lin] = p.RetractPosition
		if !c.Line(position, pl) {
			return
		}
	}

	if p.RetractMode == RetractRPlane {
		p.PrevPosition = p.RetractPosition
	}

	for ; repeats > 0; repeats-- {

		currentZ := p.RetractPosition

		for currentZ > p.HoleBottom[lin] {

			currentZ -= p.Delta
			if currentZ < p.HoleBottom[lin] {
				currentZ = p.HoleBottom[lin]
			}

			pl.Condition.Rapid = false
			position[lin] = currentZ
			if !c.Line(position, pl) { // drill
				return
			}

			if p.Dwell > 0 {
				c.Dwell(p.Dwell)
			}

			if p.SpindleOff && m.Spindle != nil {
				m.Spindle.SetState(core.SpindleOff, 0)
			}

			// Retract: chip-break backs off a short distance while above
			// final depth, everything else returns to R.
			if mode == DrillChipBreak && position[lin] != p.HoleBottom[lin] {
				position[lin] += m.Settings.G73Retract
			} else {
				position[lin] = p.RetractPosition
			}

			pl.Condition.Rapid = p.RapidRetract
			if !c.Line(position, pl) {
				return
			}

			if p.SpindleOff {
				c.spindleResync(pl.Spindle.RPM)
			}
		}

		// Incremental mode shifts to the next hole before the next repeat.
		if repeats > 1 && m.Modal.DistanceIncremental {
			position[plane.Axis0] += p.HoleBottom[plane.Axis0]
			position[plane.Axis1] += p.HoleBottom[plane.Axis1]
			position[lin] = p.PrevPosition
			if !c.Line(position, pl) {
				return
			}
		}
	}

	copy(target, position)

	if p.RetractMode == RetractPrevious && mode != DrillChipBreak && target[lin] < p.PrevPosition {
		pl.Condition.Rapid = true
		target[lin] = p.PrevPosition
		if !c.Line(target, pl) {
			return
		}
	}
}

// spindleResync restarts the spindle per the modal program after a
// per-peck stop, with queued motion drained first so the restart lands
// between moves.
func (c *Controller) spindleResync(rpm float64) {
	m := c.M
	if !m.BufferSynchronize() {
		return
	}
	if m.Spindle != nil && !m.Modal.SpindleOff() {
		m.Spindle.SetState(m.Modal.Spindle.State, rpm)
	}
}
