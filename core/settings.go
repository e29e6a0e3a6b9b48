// Read-only settings snapshot: JSON unmarshalled into a plain struct
// with a defaulting pass, loaded once at startup and never mutated by
// the realtime core.
package core

import "encoding/json"

// HomingCycleGroup is one entry of the ordered homing cycle table.
type HomingCycleGroup struct {
	Name     string `json:"name"`
	AxisMask uint32 `json:"axis_mask"`
}

// Settings is the read-only configuration snapshot every component
// consults.
type Settings struct {
	AxisCount int       `json:"axis_count"`
	AxisNames []string  `json:"axis_names"`

	Backlash []float64 `json:"backlash"` // per-axis, mm; enabled iff > BacklashEpsilon

	MaxRate      []float64 `json:"max_rate"`     // per-axis, mm/min
	Acceleration []float64 `json:"acceleration"` // per-axis, mm/s^2

	TravelMin []float64 `json:"travel_min"` // soft-limit extents, per axis
	TravelMax []float64 `json:"travel_max"`
	SoftLimitsEnabled bool `json:"soft_limits_enabled"`
	HardLimitsEnabled bool `json:"hard_limits_enabled"`
	TwoSwitchesOnOnePin bool `json:"two_switches_on_one_pin"`

	HomingDirectionMask uint32             `json:"homing_direction_mask"` // 1 bit per axis: negative direction
	HomingEnabledMask   uint32             `json:"homing_enabled_mask"`
	HomingInitLock      bool               `json:"homing_init_lock"` // require homing before g-code at power-up
	HomingCycles        []HomingCycleGroup `json:"homing_cycles"`
	HomingPulloff       float64            `json:"homing_pulloff"`   // mm, retract after limit-seek
	HomingSeekRate      float64            `json:"homing_seek_rate"` // mm/min toward the switch
	CheckLimitsAtInit   bool               `json:"check_limits_at_init"`

	G73Retract float64 `json:"g73_retract"` // mm, chip-break partial retract

	ArcTolerance        float64 `json:"arc_tolerance"`
	ArcCorrectionTicks  int     `json:"arc_correction_ticks"` // N_ARC_CORRECTION, clamped to [4,20]

	FeedOverrideDefault    float64 `json:"feed_override_default"`
	FeedOverrideCoarseStep float64 `json:"feed_override_coarse_step"`
	FeedOverrideFineStep   float64 `json:"feed_override_fine_step"`
	FeedOverrideMin        float64 `json:"feed_override_min"`
	FeedOverrideMax        float64 `json:"feed_override_max"`

	SpindleOverrideDefault    float64 `json:"spindle_override_default"`
	SpindleOverrideCoarseStep float64 `json:"spindle_override_coarse_step"`
	SpindleOverrideFineStep   float64 `json:"spindle_override_fine_step"`
	SpindleOverrideMin        float64 `json:"spindle_override_min"`
	SpindleOverrideMax        float64 `json:"spindle_override_max"`

	RapidOverrideMedium float64 `json:"rapid_override_medium"`
	RapidOverrideLow    float64 `json:"rapid_override_low"`

	LaserMode              bool `json:"laser_mode"`
	BlockDeleteDefault     bool `json:"block_delete_default"`
	LegacyRTCommands       bool `json:"legacy_rt_commands"`
	ProbeReportCoordinates bool `json:"probe_report_coordinates"`
	DoorIgnoreWhenIdle     bool `json:"door_ignore_when_idle"`

	SleepEnable  bool    `json:"sleep_enable"`
	SleepTimeout float64 `json:"sleep_timeout_seconds"`

	ForceInitAlarm bool `json:"force_init_alarm"`

	// StartupLines are g-code/system lines run once at boot, in order,
	// before the main loop begins reading the stream.
	StartupLines []string `json:"startup_lines"`
}

// BacklashEpsilon is the threshold below which a configured backlash
// value is treated as "disabled" for that axis.
const BacklashEpsilon = 1e-6

// LoadSettings parses a JSON settings document and applies defaults.
func LoadSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.ApplyDefaults()
	return &s, nil
}

// ApplyDefaults fills in sensible defaults for anything the document omitted.
func (s *Settings) ApplyDefaults() {
	if s.AxisCount == 0 {
		s.AxisCount = 3
	}
	if len(s.AxisNames) == 0 {
		names := []string{"x", "y", "z", "a", "b", "c"}
		s.AxisNames = names[:min(s.AxisCount, len(names))]
	}
	if len(s.Backlash) < s.AxisCount {
		s.Backlash = append(s.Backlash, make([]float64, s.AxisCount-len(s.Backlash))...)
	}
	if s.ArcTolerance == 0 {
		s.ArcTolerance = 0.002
	}
	if s.ArcCorrectionTicks == 0 {
		s.ArcCorrectionTicks = 12
	}
	if s.ArcCorrectionTicks < 4 {
		s.ArcCorrectionTicks = 4
	}
	if s.ArcCorrectionTicks > 20 {
		s.ArcCorrectionTicks = 20
	}
	if s.FeedOverrideDefault == 0 {
		s.FeedOverrideDefault = 100
	}
	if s.FeedOverrideCoarseStep == 0 {
		s.FeedOverrideCoarseStep = 10
	}
	if s.FeedOverrideFineStep == 0 {
		s.FeedOverrideFineStep = 1
	}
	if s.FeedOverrideMin == 0 {
		s.FeedOverrideMin = 10
	}
	if s.FeedOverrideMax == 0 {
		s.FeedOverrideMax = 200
	}
	if s.SpindleOverrideDefault == 0 {
		s.SpindleOverrideDefault = 100
	}
	if s.SpindleOverrideCoarseStep == 0 {
		s.SpindleOverrideCoarseStep = 10
	}
	if s.SpindleOverrideFineStep == 0 {
		s.SpindleOverrideFineStep = 1
	}
	if s.SpindleOverrideMin == 0 {
		s.SpindleOverrideMin = 10
	}
	if s.SpindleOverrideMax == 0 {
		s.SpindleOverrideMax = 200
	}
	if s.RapidOverrideMedium == 0 {
		s.RapidOverrideMedium = 50
	}
	if s.RapidOverrideLow == 0 {
		s.RapidOverrideLow = 25
	}
	if s.SleepTimeout == 0 {
		s.SleepTimeout = 5 * 60
	}
	for len(s.MaxRate) < s.AxisCount {
		s.MaxRate = append(s.MaxRate, 5000)
	}
	for len(s.Acceleration) < s.AxisCount {
		s.Acceleration = append(s.Acceleration, 100)
	}
	if s.HomingPulloff == 0 {
		s.HomingPulloff = 1
	}
	if s.HomingSeekRate == 0 {
		s.HomingSeekRate = 500
	}
	if s.G73Retract == 0 {
		s.G73Retract = 0.5
	}
	if len(s.TravelMin) < s.AxisCount {
		s.TravelMin = append(s.TravelMin, make([]float64, s.AxisCount-len(s.TravelMin))...)
	}
	for len(s.TravelMax) < s.AxisCount {
		s.TravelMax = append(s.TravelMax, 200)
	}
}

// BacklashEnabled reports whether axis i has non-negligible backlash compensation configured.
func (s *Settings) BacklashEnabled(axis int) bool {
	if axis < 0 || axis >= len(s.Backlash) {
		return false
	}
	return s.Backlash[axis] > BacklashEpsilon
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
