package motion

import "grblcore/core"

// backlashState is the per-axis direction memory behind the compensating
// rapid inserts.
type backlashState struct {
	enabledMask uint32
	dirNegative uint32
	prevTarget  []float64
}

// BacklashInit derives the enabled-axis mask from the settings and seeds
// the direction bits from the homing direction mask: an axis that homes
// negative starts out moving positive (its pull-off direction), so its
// first positive move does not inject compensation.
func (c *Controller) BacklashInit() {
	s := c.M.Settings
	b := &c.backlash

	b.enabledMask = 0
	b.dirNegative = 0
	for i := 0; i < s.AxisCount; i++ {
		if s.BacklashEnabled(i) {
			b.enabledMask |= 1 << uint(i)
		}
		b.dirNegative |= 1 << uint(i)
	}
	b.dirNegative ^= s.HomingDirectionMask

	b.prevTarget = make([]float64, s.AxisCount)
	c.SyncBacklashPosition()
}

// SyncBacklashPosition resets the remembered previous target from the
// current machine position. Called after homing, probing or a stop.
func (c *Controller) SyncBacklashPosition() {
	copy(c.backlash.prevTarget, c.M.MachinePosition())
}

// injectBacklash compares the commanded target against the remembered
// previous target per compensated axis. Any axis reversing direction
// shifts the shadow position by its slack; one rapid to the shadow
// position is then pushed ahead of the user move, flagged so the planner
// excludes it from position reporting. Returns false on abort while
// waiting for buffer space.
func (c *Controller) injectBacklash(target []float64, pl *core.PlanLineRequest) bool {
	m := c.M
	s := m.Settings
	b := &c.backlash

	comp := false
	for i := 0; i < s.AxisCount && i < len(target); i++ {
		bit := uint32(1) << uint(i)
		if b.enabledMask&bit == 0 {
			continue
		}
		if target[i] > b.prevTarget[i] {
			if b.dirNegative&bit != 0 {
				b.dirNegative &^= bit
				b.prevTarget[i] += s.Backlash[i]
				comp = true
			}
		} else if target[i] < b.prevTarget[i] && b.dirNegative&bit == 0 {
			b.dirNegative |= bit
			b.prevTarget[i] -= s.Backlash[i]
			comp = true
		}
	}

	if comp {
		blPl := core.PlanLineRequest{
			Condition: core.PlanCondition{
				Rapid:    true,
				Backlash: true,
			},
			LineNumber: pl.LineNumber,
			Spindle:    core.SpindleSetpoint{State: pl.Spindle.State, RPM: pl.Spindle.RPM},
		}

		for m.Planner.IsFull() {
			m.AutoCycleStart()
			if !m.ExecuteRealtime() {
				return false
			}
		}

		m.Planner.Push(cloneVector(b.prevTarget), &blPl)
	}

	copy(b.prevTarget, target)
	return true
}
