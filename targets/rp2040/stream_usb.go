//go:build rp2040 || rp2350

package main

import "machine"

// USBStream adapts the USB CDC serial to the firmware stream contract.
// Realtime control characters are siphoned off at read time so they act
// even while the foreground is parked in a busy-wait.
type USBStream struct {
	// Siphon sees every incoming byte first; a true return consumes it.
	Siphon func(byte) bool

	suspended bool
}

func (s *USBStream) Read() (byte, bool) {
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return 0, false
		}
		if s.Siphon != nil && s.Siphon(b) {
			continue
		}
		if s.suspended {
			continue
		}
		return b, true
	}
	return 0, false
}

func (s *USBStream) Write(p []byte) (int, error) {
	return machine.Serial.Write(p)
}

func (s *USBStream) SuspendRead(suspend bool) {
	s.suspended = suspend
}

func (s *USBStream) CancelReadBuffer() {
	for machine.Serial.Buffered() > 0 {
		machine.Serial.ReadByte()
	}
}
