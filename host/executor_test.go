package host

import (
	"strings"
	"testing"

	"grblcore/core"
	"grblcore/state"
)

func TestExecutorModalFeedAndDistance(t *testing.T) {
	h := newHostHarness(nil)

	h.proto.dispatchLine("G91")
	h.proto.dispatchLine("F600")
	h.proto.dispatchLine("G1 X5")
	h.proto.dispatchLine("G1 X5")

	if h.proto.Exec.Position[0] != 10 {
		t.Errorf("incremental position = %v, want 10", h.proto.Exec.Position[0])
	}
	if h.proto.Exec.Feed != 600 {
		t.Errorf("modal feed = %v", h.proto.Exec.Feed)
	}
}

func TestExecutorSpindleControl(t *testing.T) {
	h := newHostHarness(nil)
	sp := h.m.Spindle.(*SimSpindle)

	h.proto.dispatchLine("M3 S1200")
	if sp.State != core.SpindleCW || sp.RPM != 1200 {
		t.Fatalf("spindle = %v @ %v", sp.State, sp.RPM)
	}
	if h.m.Modal.Spindle.RPM != 1200 {
		t.Error("modal snapshot missed the S word")
	}

	h.proto.dispatchLine("S900")
	if sp.RPM != 900 {
		t.Errorf("bare S word not applied: %v", sp.RPM)
	}

	h.proto.dispatchLine("M5")
	if sp.State != core.SpindleOff {
		t.Error("spindle not stopped")
	}
}

func TestExecutorCoolantControl(t *testing.T) {
	h := newHostHarness(nil)
	co := h.m.Coolant.(*SimCoolant)

	h.proto.dispatchLine("M8")
	if co.State&core.CoolantFlood == 0 {
		t.Error("flood not enabled")
	}
	h.proto.dispatchLine("M7")
	if co.State&core.CoolantMist == 0 {
		t.Error("mist not enabled")
	}
	h.proto.dispatchLine("M9")
	if co.State != 0 {
		t.Error("coolant not cleared")
	}
}

func TestExecutorArcDecomposes(t *testing.T) {
	h := newHostHarness(nil)
	h.driver.SetPosition([]float64{10, 0, 0})
	h.proto.Exec.SyncPosition()

	status := h.proto.dispatchLine("G3 X0 Y10 I-10 F600")
	if status != state.StatusOK {
		t.Fatalf("status = %v", status)
	}
	// The quarter circle decomposes into many segments; at minimum the
	// ring holds several blocks or has already started draining.
	if !h.plan.HasCurrentBlock() {
		t.Error("arc produced no motion")
	}
	if h.proto.Exec.Position[1] != 10 {
		t.Errorf("parser position = %v", h.proto.Exec.Position)
	}
}

func TestExecutorArcRequiresOffset(t *testing.T) {
	h := newHostHarness(nil)
	if status := h.proto.dispatchLine("G2 X5 Y5 F600"); status != state.StatusGcodeValueWordMissing {
		t.Errorf("status = %v, want value-word-missing", status)
	}
}

func TestExecutorProbeCommand(t *testing.T) {
	h := newHostHarness(nil)
	probe := h.m.Probe.(*SimProbe)
	h.driver.SetPosition([]float64{0, 0, 2})
	h.proto.Exec.SyncPosition()

	// Contact happens as soon as the cycle spins: flip the pin from the
	// per-tick hook.
	ticks := 0
	h.m.ExecutePerTick = func(state.Mode) {
		ticks++
		if ticks == 2 {
			probe.SetContacted(true)
		}
	}

	status := h.proto.dispatchLine("G38.2 Z-5 F100")
	if status != state.StatusOK {
		t.Fatalf("status = %v", status)
	}
	if !h.m.ProbeSucceeded {
		t.Error("probe success flag not set")
	}
}

func TestExecutorUnsupportedCommand(t *testing.T) {
	h := newHostHarness(nil)
	if status := h.proto.dispatchLine("G96 S200"); status != state.StatusUnsupportedCommand {
		t.Errorf("status = %v, want unsupported", status)
	}
	if status := h.proto.dispatchLine("M62"); status != state.StatusUnsupportedCommand {
		t.Errorf("status = %v, want unsupported", status)
	}
}

func TestExecutorDrillCycle(t *testing.T) {
	h := newHostHarness(nil)
	h.driver.SetPosition([]float64{0, 0, 5})
	h.proto.Exec.SyncPosition()

	status := h.proto.dispatchLine("G81 X1 Y1 Z-2 R1 F120")
	if status != state.StatusOK {
		t.Fatalf("status = %v", status)
	}
	if !h.plan.HasCurrentBlock() && h.m.MachinePosition()[2] == 5 {
		t.Error("drill cycle produced no motion")
	}
}

func TestReporterGCodeModes(t *testing.T) {
	h := newHostHarness(nil)
	h.proto.dispatchLine("G91")
	h.proto.dispatchLine("M4 S250")

	h.m.RT.SetStateFlag(core.ExecStateGCodeReport)
	h.m.ExecuteRealtime()

	out := h.stream.out
	if !strings.Contains(string(out), "G91") || !strings.Contains(string(out), "M4") {
		t.Errorf("modal report = %q", out)
	}
}
