package motion

import (
	"math"

	"grblcore/core"
)

// arcAngularTravelEpsilon guards the 2π correction below so a near-full
// circle does not flip direction on floating-point noise.
const arcAngularTravelEpsilon = 5e-7

// Arc approximates a circular arc by straight-line segments whose chord
// error never exceeds the configured arc tolerance.
//
// position is the current location and is advanced in place; target is
// the commanded end point; offset is the IJK center offset from the
// start; plane selects the circle plane and the helical axis.
//
// The radius vector is rotated incrementally with a second-order
// small-angle approximation, re-derived exactly every few segments to
// bound drift, and the final segment always lands bit-exactly on target.
func (c *Controller) Arc(target []float64, pl *core.PlanLineRequest, position []float64,
	offset []float64, radius float64, plane Plane, clockwise bool) {

	s := c.M.Settings

	center0 := position[plane.Axis0] + offset[plane.Axis0]
	center1 := position[plane.Axis1] + offset[plane.Axis1]
	rAxis0 := -offset[plane.Axis0] // radius vector from center to current location
	rAxis1 := -offset[plane.Axis1]
	rtAxis0 := target[plane.Axis0] - center0
	rtAxis1 := target[plane.Axis1] - center1

	// CCW angle between position and target from the circle center.
	// One atan2 is all the trig this setup needs.
	angularTravel := math.Atan2(rAxis0*rtAxis1-rAxis1*rtAxis0, rAxis0*rtAxis0+rAxis1*rtAxis1)

	if clockwise {
		if angularTravel >= -arcAngularTravelEpsilon {
			angularTravel -= 2 * math.Pi
		}
	} else {
		if angularTravel <= arcAngularTravelEpsilon {
			angularTravel += 2 * math.Pi
		}
	}

	// Segment end points lie on the arc, so the chord sagitta bounds the
	// normal error at the configured tolerance.
	segments := uint16(math.Floor(math.Abs(0.5*angularTravel*radius) /
		math.Sqrt(s.ArcTolerance*(2*radius-s.ArcTolerance))))

	if segments > 0 {

		// An inverse-time feed describes the whole arc; each segment
		// carries an equivalent absolute feed instead.
		if pl.Condition.InverseTime {
			pl.FeedRate *= float64(segments)
			pl.Condition.InverseTime = false
		}

		thetaPerSegment := angularTravel / float64(segments)
		linearPerSegment := (target[plane.AxisLinear] - position[plane.AxisLinear]) / float64(segments)

		// cos ≈ 1 - θ²/2, sin ≈ θ - θ³/6 (taken from 2 - θ² before it is halved): cheap per-segment rotation.
		cosT := 2 - thetaPerSegment*thetaPerSegment
		sinT := thetaPerSegment * 0.16666667 * (cosT + 4)
		cosT *= 0.5

		count := 0
		for i := 1; i < int(segments); i++ {

			if count < s.ArcCorrectionTicks {
				rAxisi := rAxis0*sinT + rAxis1*cosT
				rAxis0 = rAxis0*cosT - rAxis1*sinT
				rAxis1 = rAxisi
				count++
			} else {
				// Re-derive the radius vector exactly from the initial
				// offset to wipe out accumulated approximation drift.
				cosTi := math.Cos(float64(i) * thetaPerSegment)
				sinTi := math.Sin(float64(i) * thetaPerSegment)
				rAxis0 = -offset[plane.Axis0]*cosTi + offset[plane.Axis1]*sinTi
				rAxis1 = -offset[plane.Axis0]*sinTi - offset[plane.Axis1]*cosTi
				count = 0
				core.RecordTiming(core.EvtArcReanchor, 0, uint32(i), 0)
			}

			position[plane.Axis0] = center0 + rAxis0
			position[plane.Axis1] = center1 + rAxis1
			position[plane.AxisLinear] += linearPerSegment

			// Bail mid-circle on system abort; the realtime check itself
			// happens inside Line.
			if !c.Line(position, pl) {
				return
			}
		}
	}

	// The last segment lands exactly on target to absorb rounding.
	c.Line(target, pl)
}
