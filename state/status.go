package state

// Status is the recoverable per-line result code returned to the issuer
// of a command.
type Status uint8

const (
	StatusOK                    Status = 0
	StatusExpectedCommandLetter Status = 1
	StatusBadNumberFormat       Status = 2
	StatusInvalidStatement      Status = 3
	StatusNegativeValue         Status = 4
	StatusSettingDisabled       Status = 5
	StatusIdleError             Status = 8
	StatusSystemGClock          Status = 9
	StatusSoftLimitError        Status = 10
	StatusOverflow              Status = 14
	StatusTravelExceeded        Status = 15
	StatusUnsupportedCommand    Status = 20
	StatusGcodeValueWordMissing Status = 22
	StatusLimitsEngaged         Status = 40
	StatusUnhandled             Status = 41
)
