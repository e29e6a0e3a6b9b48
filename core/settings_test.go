package core

import "testing"

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.AxisCount != 3 {
		t.Errorf("axis count = %d", s.AxisCount)
	}
	if s.ArcTolerance != 0.002 {
		t.Errorf("arc tolerance = %v", s.ArcTolerance)
	}
	if len(s.Backlash) != 3 || len(s.MaxRate) != 3 {
		t.Errorf("per-axis slices not padded: %v %v", s.Backlash, s.MaxRate)
	}
	if s.FeedOverrideDefault != 100 || s.RapidOverrideMedium != 50 {
		t.Errorf("override defaults wrong")
	}
}

func TestLoadSettingsArcCorrectionClamped(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{`{"arc_correction_ticks": 1}`, 4},
		{`{"arc_correction_ticks": 100}`, 20},
		{`{"arc_correction_ticks": 8}`, 8},
	}
	for _, c := range cases {
		s, err := LoadSettings([]byte(c.in))
		if err != nil {
			t.Fatal(err)
		}
		if s.ArcCorrectionTicks != c.want {
			t.Errorf("%s: got %d want %d", c.in, s.ArcCorrectionTicks, c.want)
		}
	}
}

func TestBacklashEnabled(t *testing.T) {
	s, err := LoadSettings([]byte(`{"axis_count": 3, "backlash": [0.1, 0, 0.0000001]}`))
	if err != nil {
		t.Fatal(err)
	}
	if !s.BacklashEnabled(0) {
		t.Errorf("axis 0 should be enabled")
	}
	if s.BacklashEnabled(1) || s.BacklashEnabled(2) {
		t.Errorf("zero/epsilon axes should be disabled")
	}
	if s.BacklashEnabled(7) {
		t.Errorf("out-of-range axis should be disabled")
	}
}

func TestLoadSettingsBadJSON(t *testing.T) {
	if _, err := LoadSettings([]byte(`{`)); err == nil {
		t.Fatal("expected parse error")
	}
}
