//go:build rp2040 || rp2350

package main

import (
	"machine"

	"grblcore/core"
)

// Pin assignments for the reference board.
const (
	pinSpindlePWM   = machine.GPIO15
	pinSpindleDir   = machine.GPIO14
	pinCoolantFlood = machine.GPIO13
	pinCoolantMist  = machine.GPIO12

	pinReset      = machine.GPIO6
	pinCycleStart = machine.GPIO7
	pinFeedHold   = machine.GPIO8
	pinSafetyDoor = machine.GPIO9
	pinEStop      = machine.GPIO10
)

// RP2040GPIODriver implements the GPIO contract over machine pins.
type RP2040GPIODriver struct{}

func (RP2040GPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (RP2040GPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (RP2040GPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return nil
}

func (RP2040GPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machine.Pin(pin).Set(value)
	return nil
}

func (RP2040GPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return machine.Pin(pin).Get(), nil
}

func (RP2040GPIODriver) ReadPin(pin core.GPIOPin) bool {
	return machine.Pin(pin).Get()
}

// PWMSpindle drives a PWM-controlled spindle with a direction pin.
type PWMSpindle struct {
	pwm       core.PWMDriver
	maxRPM    float64
	state     core.SpindleState
	rpm       float64
	cycleTick uint32
}

// NewPWMSpindle configures the spindle output pins.
func NewPWMSpindle(pwm core.PWMDriver, maxRPM float64) (*PWMSpindle, error) {
	cycle, err := pwm.ConfigureHardwarePWM(core.PWMPin(pinSpindlePWM), 255)
	if err != nil {
		return nil, err
	}
	pinSpindleDir.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &PWMSpindle{pwm: pwm, maxRPM: maxRPM, cycleTick: cycle}, nil
}

func (s *PWMSpindle) SetState(st core.SpindleState, rpm float64) error {
	s.state = st
	s.rpm = rpm

	if st == core.SpindleOff || rpm <= 0 {
		return s.pwm.SetDutyCycle(core.PWMPin(pinSpindlePWM), 0)
	}

	pinSpindleDir.Set(st == core.SpindleCCW)

	duty := rpm / s.maxRPM
	if duty > 1 {
		duty = 1
	}
	value := core.PWMValue(duty * float64(s.pwm.GetMaxValue()))
	return s.pwm.SetDutyCycle(core.PWMPin(pinSpindlePWM), value)
}

func (s *PWMSpindle) GetRPM() (float64, error) {
	if s.state == core.SpindleOff {
		return 0, nil
	}
	return s.rpm, nil
}

// GPIOCoolant switches the flood and mist outputs.
type GPIOCoolant struct{}

// NewGPIOCoolant configures the coolant pins.
func NewGPIOCoolant() *GPIOCoolant {
	pinCoolantFlood.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinCoolantMist.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &GPIOCoolant{}
}

func (GPIOCoolant) SetState(st core.CoolantState) error {
	pinCoolantFlood.Set(st&core.CoolantFlood != 0)
	pinCoolantMist.Set(st&core.CoolantMist != 0)
	return nil
}

// ControlPins reads the operator input bank. All inputs are active-low
// with pull-ups.
type ControlPins struct{}

// NewControlPins configures the control inputs.
func NewControlPins() *ControlPins {
	for _, p := range []machine.Pin{pinReset, pinCycleStart, pinFeedHold, pinSafetyDoor, pinEStop} {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	return &ControlPins{}
}

func (ControlPins) GetState() core.ControlPinState {
	return core.ControlPinState{
		Reset:      !pinReset.Get(),
		CycleStart: !pinCycleStart.Get(),
		FeedHold:   !pinFeedHold.Get(),
		SafetyDoor: !pinSafetyDoor.Get(),
		EStop:      !pinEStop.Get(),
	}
}
