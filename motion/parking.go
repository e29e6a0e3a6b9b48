package motion

import (
	"grblcore/core"
	"grblcore/state"
)

// ParkingMotion plans and executes the single special-case retraction
// used by safety-door and sleep handling. It runs independently of the
// main program: exactly one system block is put in flight and the
// normal consumer stays paused.
func (c *Controller) ParkingMotion(target []float64, pl *core.PlanLineRequest) bool {
	m := c.M

	if m.Aborted() {
		return false
	}

	pl.Condition.SystemMotion = true

	if m.Planner.Push(target, pl) {
		m.StepControl.ExecuteSysMotion = true
		m.StepControl.EndMotion = false
		m.Motion.ParkingSetupBuffer()
		m.Motion.PrepBuffer()
		m.Motion.WakeUp()
		return true
	}

	// Zero-length park: nothing to execute, report the cycle complete.
	m.RT.SetStateFlag(core.ExecStateCycleComplete)
	return false
}

// OverrideCtrlUpdate changes the modal override-permission record after
// all queued commands have finished, so the change cannot land mid-block.
func (c *Controller) OverrideCtrlUpdate(ctrl state.OverrideControl) {
	m := c.M
	m.BufferSynchronize()
	if !m.Aborted() {
		m.Override.Control = ctrl
	}
}
