//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers/vl53l1x"
)

// Probe trigger threshold: a reading at or below this distance counts as
// contact.
const probeTriggerMM = 5

// TOFProbe is a non-contact probe built on a VL53L1X time-of-flight
// sensor on I2C0 (SDA GPIO4, SCL GPIO5).
type TOFProbe struct {
	sensor    vl53l1x.Device
	thresh    int32
	inverted  bool
	available bool
}

// NewTOFProbe brings up the sensor in continuous ranging mode. A sensor
// that fails to configure leaves the probe permanently untriggered
// rather than blocking startup.
func NewTOFProbe() *TOFProbe {
	machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400000,
		SDA:       machine.GPIO4,
		SCL:       machine.GPIO5,
	})

	p := &TOFProbe{thresh: probeTriggerMM}
	p.sensor = vl53l1x.New(machine.I2C0)
	if !p.sensor.Configure(true) {
		return p
	}
	p.sensor.SetMeasurementTimingBudget(50000)
	p.sensor.StartContinuous(50)
	p.available = true
	return p
}

func (p *TOFProbe) Triggered() bool {
	if !p.available {
		return false
	}
	distance := p.sensor.Read(false)
	if distance == 0 {
		return false // no fresh sample yet
	}
	contact := distance <= p.thresh
	return contact != p.inverted
}

func (p *TOFProbe) ConfigureInvert(invert bool) {
	p.inverted = invert
}
