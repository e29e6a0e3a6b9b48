package motion

import (
	"math"

	"grblcore/core"
)

// TaperType selects which ends of a thread get a tapered lead.
type TaperType uint8

const (
	TaperNone TaperType = iota
	TaperEntry
	TaperExit
	TaperBoth
)

// ThreadParams are the G76 threading-cycle parameters.
type ThreadParams struct {
	AxisX int // infeed axis
	AxisZ int // cut axis

	Pitch           float64
	ZFinal          float64
	Peak            float64 // thread peak offset from the drive line
	InitialDepth    float64
	Depth           float64 // full thread depth
	DepthDegression float64 // per-pass depth regression exponent
	InfeedAngle     float64 // compound slide angle, degrees
	SpringPasses    uint32
	EndTaperType    TaperType
	EndTaperLength  float64
	MainTaperHeight float64
	CutDirection    float64 // +1 external, -1 internal
}

// threadDOC is the depth of cut for a given pass under the configured
// degression.
func threadDOC(pass uint32, cutDepth, invDegression float64) float64 {
	return cutDepth * math.Pow(float64(pass), invDegression)
}

// Thread runs a multi-pass threading cycle: rapid infeed, a
// spindle-synchronized cut with optional entry/exit tapers, rapid
// retract, and reposition for the next pass, with per-pass depth
// regression, compound infeed offset and trailing spring passes.
// feedHoldDisabled is the caller's modal preference, restored on every
// reposition move.
func (c *Controller) Thread(pl *core.PlanLineRequest, position []float64, th *ThreadParams, feedHoldDisabled bool) {
	var (
		pass   uint32 = 1
		passes uint32 = 0
	)
	doc := th.InitialDepth
	invDegression := 1 / th.DepthDegression
	infeedFactor := math.Tan(th.InfeedAngle * math.Pi / 180)

	endTaperFactor := 0.0
	switch th.EndTaperType {
	case TaperBoth:
		endTaperFactor = 2
	case TaperEntry, TaperExit:
		endTaperFactor = 1
	}

	target := cloneVector(position)

	// Count the regressed passes, then add the spring passes.
	passes++
	for threadDOC(passes, doc, invDegression) < th.Depth {
		passes++
	}
	passes += th.SpringPasses + 1

	// The taper length flips sign when cutting toward +Z so tapers
	// always oppose the cut direction.
	threadLength := th.ZFinal - position[th.AxisZ]
	if threadLength > 0 {
		th.EndTaperLength = -th.EndTaperLength
	}
	threadLength += th.EndTaperLength * endTaperFactor

	// Rescale the main taper so the tapered lead-in/out does not shorten
	// the constant-pitch segment.
	if th.MainTaperHeight != 0 {
		th.MainTaperHeight = th.MainTaperHeight * threadLength / (threadLength - th.EndTaperLength*endTaperFactor)
	}

	pl.Condition.Rapid = true

	// Initial Z offset biases chip load to one flank when a compound
	// angle is commanded.
	if infeedFactor != 0 {
		target[th.AxisZ] += th.Depth * infeedFactor
		if !c.Line(target, pl) {
			return
		}
	}

	for passes--; passes > 0; passes-- {

		passTaperFactor := doc / th.Depth
		endTaperDepth := th.Depth * passTaperFactor
		endTaperLength := th.EndTaperLength * passTaperFactor

		if th.EndTaperType == TaperNone {
			target[th.AxisX] += (th.Peak + doc) * th.CutDirection
			if !c.Line(target, pl) {
				return
			}
		}

		pl.Condition.Rapid = false
		pl.Condition.SpindleSynchronized = true
		pl.FeedHoldDisable = true

		// Brief dwell so the spindle-sync subsystem latches the index
		// pulse before the cut begins.
		c.Dwell(0.01)

		// Entry taper.
		if th.EndTaperType == TaperEntry || th.EndTaperType == TaperBoth {
			target[th.AxisX] += (th.Peak + doc - endTaperDepth) * th.CutDirection
			if !c.Line(target, pl) {
				return
			}

			target[th.AxisX] += endTaperDepth * th.CutDirection
			target[th.AxisZ] -= endTaperLength
			if !c.Line(target, pl) {
				return
			}
		}

		// Main cut.
		if threadLength != 0 {
			target[th.AxisX] += th.MainTaperHeight * th.CutDirection
			target[th.AxisZ] += threadLength
			if !c.Line(target, pl) {
				return
			}
		}

		// Exit taper.
		if th.EndTaperType == TaperExit || th.EndTaperType == TaperBoth {
			target[th.AxisX] += endTaperDepth * th.CutDirection
			target[th.AxisZ] -= endTaperLength
			if !c.Line(target, pl) {
				return
			}
		}

		pl.Condition.Rapid = true
		pl.Condition.SpindleSynchronized = false

		// Retract off the thread.
		target[th.AxisX] = position[th.AxisX]
		if !c.Line(target, pl) {
			return
		}

		if passes > 1 {
			// Next pass depth, clamped at full depth.
			pass++
			doc = threadDOC(pass, th.InitialDepth, invDegression)
			doc = math.Min(doc, th.Depth)

			// The reposition move follows the caller's hold preference
			// again.
			pl.FeedHoldDisable = feedHoldDisabled

			// Back to start Z, offset by the remaining compound infeed.
			target[th.AxisZ] = position[th.AxisZ]
			if infeedFactor != 0 {
				target[th.AxisZ] += (th.Depth - doc) * infeedFactor
			}
			if !c.Line(target, pl) {
				return
			}
		} else {
			doc = th.Depth
		}
	}
}
