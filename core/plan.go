package core

// PlanCondition carries the per-move flags the planner needs to solve and
// schedule a segment.
type PlanCondition struct {
	Rapid               bool // traverse at rapid rate, feed word ignored
	Jog                 bool // teleoperated move, exempt from soft-limit alarm path
	Backlash            bool // synthetic slack-compensation move, excluded from position reporting
	SystemMotion        bool // parking/homing style motion independent of the program
	InverseTime         bool // FeedRate is 1/duration instead of mm/min
	NoFeedOverride      bool // feed override must not scale this move
	SpindleSynchronized bool // feed locked to spindle angular position (threading)
}

// SpindleSetpoint is the commanded spindle program for a move.
type SpindleSetpoint struct {
	State SpindleState
	RPM   float64
}

// PlanLineRequest is the value conveyed to the planner per straight-line
// segment. The target vector travels alongside it so one request can be
// reused across many segments of a decomposed motion.
type PlanLineRequest struct {
	FeedRate        float64
	Condition       PlanCondition
	Spindle         SpindleSetpoint
	FeedHoldDisable bool
	LineNumber      int32
}

// Planner is the downstream trajectory planner. Only these operations are
// visible from this side of the boundary; block solving and lookahead are
// the planner's own business.
type Planner interface {
	// Push hands one segment to the planner. A false return means the
	// segment was rejected, which for a well-behaved caller only happens
	// on a zero-length move.
	Push(target []float64, pl *PlanLineRequest) bool

	// IsFull reports whether the block ring has no room for another Push.
	IsFull() bool

	// HasCurrentBlock reports whether a block is queued or executing.
	HasCurrentBlock() bool

	// Reset discards every queued block (the in-repo planner also
	// re-anchors its position to the machine).
	Reset()

	// SyncPositionFromSteps re-derives the planner position from the
	// machine step count after homing, probing or a stop.
	SyncPositionFromSteps()

	// FeedOverride applies new feed and rapid override percentages to
	// queued blocks.
	FeedOverride(feedPct, rapidPct float64)
}
