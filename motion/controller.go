// Package motion decomposes compound motion requests — arcs, canned
// drilling and threading cycles, homing, probing, jogs — into straight
// line segments and funnels every one of them through a single gateway
// into the downstream planner.
package motion

import "grblcore/state"

// Plane selects the two in-plane axes of a circular motion and the
// linear (helical) axis.
type Plane struct {
	Axis0      int
	Axis1      int
	AxisLinear int
}

// PlaneXY is the default G17 working plane for a trivial XYZ machine.
var PlaneXY = Plane{Axis0: 0, Axis1: 1, AxisLinear: 2}

// Controller issues motion on behalf of the parser and the system
// command layer. Pure foreground; never called from interrupt context.
type Controller struct {
	M        *state.Machine
	backlash backlashState
}

// NewController wires a Controller to the machine and initializes the
// backlash tracker from the current machine position.
func NewController(m *state.Machine) *Controller {
	c := &Controller{M: m}
	c.BacklashInit()
	return c
}

// checkTravelLimits reports whether target lies inside the configured
// soft-limit extents on every axis.
func (c *Controller) checkTravelLimits(target []float64) bool {
	s := c.M.Settings
	for i := 0; i < s.AxisCount && i < len(target); i++ {
		if i < len(s.TravelMin) && target[i] < s.TravelMin[i] {
			return false
		}
		if i < len(s.TravelMax) && target[i] > s.TravelMax[i] {
			return false
		}
	}
	return true
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
