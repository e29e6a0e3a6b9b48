// Package planner is the reference trajectory planner: a bounded ring of
// solved kinematic blocks with a simplified trapezoidal velocity profile
// and no junction lookahead. It satisfies the core.Planner contract the
// motion gateway pushes into; a production build may substitute any
// other implementation of that interface.
package planner

import (
	"math"

	"grblcore/core"
)

// BufferSize is the block ring capacity. One slot is kept free so the
// full/empty conditions stay distinguishable.
const BufferSize = 16

const zeroLengthEpsilon = 1e-8

// Block is one fully solved straight-line segment.
type Block struct {
	Target    []float64
	Distance  float64
	Condition core.PlanCondition
	Spindle   core.SpindleSetpoint
	LineNum   int32

	ProgrammedFeed float64 // mm/min as issued, before overrides
	NominalSpeed   float64 // mm/s after clamping and overrides

	// Trapezoid, start and end at rest.
	CruiseVel              float64
	AccelSec, CruiseSec, DecelSec float64
}

// Duration returns the solved block time in seconds.
func (b *Block) Duration() float64 {
	return b.AccelSec + b.CruiseSec + b.DecelSec
}

// Planner owns the block ring and the planned tail position.
type Planner struct {
	settings *core.Settings

	ring [BufferSize]Block
	head int // next slot to fill
	tail int // oldest queued block

	position []float64 // planned position, tail of the last queued block

	feedPct  float64
	rapidPct float64

	// positionSource re-derives the machine position from step counts;
	// wired to the motion driver at startup.
	positionSource func() []float64
}

// New returns an empty planner synced to the given position source.
func New(settings *core.Settings, positionSource func() []float64) *Planner {
	p := &Planner{
		settings:       settings,
		position:       make([]float64, settings.AxisCount),
		feedPct:        100,
		rapidPct:       100,
		positionSource: positionSource,
	}
	p.SyncPositionFromSteps()
	return p
}

// IsFull reports whether the ring has no room for another block.
func (p *Planner) IsFull() bool {
	return (p.head+1)%BufferSize == p.tail
}

// HasCurrentBlock reports whether any block is queued.
func (p *Planner) HasCurrentBlock() bool {
	return p.head != p.tail
}

// CurrentBlock returns the oldest queued block, or nil.
func (p *Planner) CurrentBlock() *Block {
	if p.head == p.tail {
		return nil
	}
	return &p.ring[p.tail]
}

// Advance discards the current block once the downstream driver has
// finished executing it.
func (p *Planner) Advance() {
	if p.head != p.tail {
		p.tail = (p.tail + 1) % BufferSize
	}
}

// QueuedBlocks returns how many blocks are waiting.
func (p *Planner) QueuedBlocks() int {
	return (p.head - p.tail + BufferSize) % BufferSize
}

// Push solves and queues one segment. A zero-length move is rejected
// with false; the caller decides whether that matters.
func (p *Planner) Push(target []float64, pl *core.PlanLineRequest) bool {
	if p.IsFull() {
		return false
	}

	dist := 0.0
	for i := 0; i < p.settings.AxisCount && i < len(target); i++ {
		d := target[i] - p.position[i]
		dist += d * d
	}
	dist = math.Sqrt(dist)
	if dist < zeroLengthEpsilon {
		return false
	}

	b := &p.ring[p.head]
	b.Target = append(b.Target[:0], target...)
	b.Distance = dist
	b.Condition = pl.Condition
	b.Spindle = pl.Spindle
	b.LineNum = pl.LineNumber
	b.ProgrammedFeed = pl.FeedRate

	p.solve(b)

	copy(p.position, target)
	p.head = (p.head + 1) % BufferSize
	return true
}

// solve clamps the block velocity to the per-axis maximums and computes
// the trapezoid, assuming rest-to-rest execution.
func (p *Planner) solve(b *Block) {
	s := p.settings

	// Requested velocity in mm/s.
	var vel float64
	switch {
	case b.Condition.Rapid || b.Condition.SystemMotion:
		vel = math.Inf(1) // clamped by the axis limits below
	case b.Condition.InverseTime:
		// feed is 1/minutes for the whole move
		vel = b.Distance * b.ProgrammedFeed / 60
	default:
		vel = b.ProgrammedFeed / 60
	}

	// Clamp so no axis exceeds its own maximum rate.
	accel := math.Inf(1)
	prev := p.position
	for i := 0; i < s.AxisCount && i < len(b.Target); i++ {
		d := math.Abs(b.Target[i] - prev[i])
		if d == 0 {
			continue
		}
		axisMax := s.MaxRate[i] / 60
		if vel*d/b.Distance > axisMax {
			vel = axisMax * b.Distance / d
		}
		if s.Acceleration[i] < accel {
			accel = s.Acceleration[i]
		}
	}
	if math.IsInf(vel, 1) {
		vel = s.MaxRate[0] / 60
	}
	if math.IsInf(accel, 1) {
		accel = 100
	}

	// Overrides scale the nominal speed; rapids follow the rapid
	// override, feeds the feed override unless pinned.
	switch {
	case b.Condition.Rapid || b.Condition.SystemMotion:
		vel *= p.rapidPct / 100
	case b.Condition.NoFeedOverride:
		// as programmed
	default:
		vel *= p.feedPct / 100
	}
	b.NominalSpeed = vel

	accelDist := vel * vel / (2 * accel)
	if accelDist*2 >= b.Distance {
		// Triangle profile: full speed is out of reach.
		accelDist = b.Distance / 2
		b.CruiseVel = math.Sqrt(accel * accelDist)
		b.AccelSec = b.CruiseVel / accel
		b.CruiseSec = 0
		b.DecelSec = b.AccelSec
	} else {
		b.CruiseVel = vel
		b.AccelSec = vel / accel
		b.CruiseSec = (b.Distance - 2*accelDist) / vel
		b.DecelSec = b.AccelSec
	}
}

// Reset discards every queued block and re-anchors the planned position
// to the machine.
func (p *Planner) Reset() {
	p.head = 0
	p.tail = 0
	p.SyncPositionFromSteps()
}

// SyncPositionFromSteps re-derives the planned position from the step
// counters.
func (p *Planner) SyncPositionFromSteps() {
	if p.positionSource == nil {
		return
	}
	copy(p.position, p.positionSource())
}

// Position returns the planned tail position.
func (p *Planner) Position() []float64 {
	out := make([]float64, len(p.position))
	copy(out, p.position)
	return out
}

// FeedOverride applies new feed and rapid percentages and re-solves the
// queued blocks so the change takes effect on motion not yet executed.
func (p *Planner) FeedOverride(feedPct, rapidPct float64) {
	if feedPct == p.feedPct && rapidPct == p.rapidPct {
		return
	}
	p.feedPct = feedPct
	p.rapidPct = rapidPct

	// Re-solve in ring order against each block's own start position.
	start := p.startPositionOfTail()
	for i := p.tail; i != p.head; i = (i + 1) % BufferSize {
		b := &p.ring[i]
		saved := p.position
		p.position = start
		p.solve(b)
		p.position = saved
		start = b.Target
	}
}

// startPositionOfTail reconstructs where the oldest queued block starts.
func (p *Planner) startPositionOfTail() []float64 {
	if p.positionSource != nil {
		return p.positionSource()
	}
	return p.position
}
