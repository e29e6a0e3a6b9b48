package state

import "grblcore/core"

// executeOverrides drains the override command ring and applies the
// results in two groups: feed/rapid first, then spindle/coolant.
// Skipped entirely while DelayOverrides is set (tool change, threading
// repositions).
func (m *Machine) executeOverrides() {
	// Fixed-size staging; the ring can never hold more than its capacity.
	var feed, accessory [16]core.OverrideCommand
	nFeed, nAcc := 0, 0

	m.RT.DrainOverrides(func(cmd core.OverrideCommand) {
		if cmd <= core.OverrideRapidLow {
			if nFeed < len(feed) {
				feed[nFeed] = cmd
				nFeed++
			}
		} else if nAcc < len(accessory) {
			accessory[nAcc] = cmd
			nAcc++
		}
	})

	if nFeed > 0 {
		m.applyFeedOverrides(feed[:nFeed])
	}
	if nAcc > 0 {
		m.applyAccessoryOverrides(accessory[:nAcc])
	}
}

func (m *Machine) applyFeedOverrides(cmds []core.OverrideCommand) {
	s := m.Settings
	newF := m.Override.FeedPct
	newR := m.Override.RapidPct

	for _, cmd := range cmds {
		switch cmd {
		case core.OverrideFeedReset:
			newF = s.FeedOverrideDefault
		case core.OverrideFeedCoarsePlus:
			newF += s.FeedOverrideCoarseStep
		case core.OverrideFeedCoarseMinus:
			newF -= s.FeedOverrideCoarseStep
		case core.OverrideFeedFinePlus:
			newF += s.FeedOverrideFineStep
		case core.OverrideFeedFineMinus:
			newF -= s.FeedOverrideFineStep
		case core.OverrideRapidFull:
			newR = 100
		case core.OverrideRapidMedium:
			newR = s.RapidOverrideMedium
		case core.OverrideRapidLow:
			newR = s.RapidOverrideLow
		}
	}

	newF = clamp(newF, s.FeedOverrideMin, s.FeedOverrideMax)

	if newF != m.Override.FeedPct || newR != m.Override.RapidPct {
		m.Override.FeedPct = newF
		m.Override.RapidPct = newR
		if m.Planner != nil {
			m.Planner.FeedOverride(newF, newR)
		}
	}
}

func (m *Machine) applyAccessoryOverrides(cmds []core.OverrideCommand) {
	s := m.Settings
	newS := m.Override.SpindlePct
	spindleStop := false
	coolant := m.Modal.Coolant

	for _, cmd := range cmds {
		switch cmd {
		case core.OverrideSpindleReset:
			newS = s.SpindleOverrideDefault
		case core.OverrideSpindleCoarsePlus:
			newS += s.SpindleOverrideCoarseStep
		case core.OverrideSpindleCoarseMinus:
			newS -= s.SpindleOverrideCoarseStep
		case core.OverrideSpindleFinePlus:
			newS += s.SpindleOverrideFineStep
		case core.OverrideSpindleFineMinus:
			newS -= s.SpindleOverrideFineStep
		case core.OverrideSpindleStopToggle:
			spindleStop = !spindleStop
		case core.OverrideCoolantMistToggle:
			if m.Mode&(ModeIdle|ModeCycle|ModeHold) != 0 {
				coolant ^= core.CoolantMist
			}
		case core.OverrideCoolantFloodToggle:
			if m.Mode&(ModeIdle|ModeCycle|ModeHold) != 0 {
				coolant ^= core.CoolantFlood
			}
		}
	}

	newS = clamp(newS, s.SpindleOverrideMin, s.SpindleOverrideMax)
	if newS != m.Override.SpindlePct {
		m.Override.SpindlePct = newS
		if !m.Modal.SpindleOff() && !m.Override.SpindleStop.Enabled && m.Spindle != nil {
			m.Spindle.SetState(m.Modal.Spindle.State, m.Modal.Spindle.RPM*newS/100)
		}
		m.Report.Spindle = true
	}

	// Coolant changes force a buffer sync so the toggle lands between
	// blocks, not inside one.
	if coolant != m.Modal.Coolant {
		m.BufferSynchronize()
		if m.Coolant != nil {
			m.Coolant.SetState(coolant)
		}
		m.Modal.Coolant = coolant
		m.Report.Coolant = true
	}

	// Spindle stop is a two-phase toggle permitted only while holding
	// with the spindle on. The suspend manager performs the phases.
	if spindleStop && m.Mode == ModeHold && !m.Modal.SpindleOff() {
		ss := &m.Override.SpindleStop
		if !ss.Initiate && !ss.Enabled {
			ss.Initiate = true
		} else if ss.Enabled {
			ss.Restore = true
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
