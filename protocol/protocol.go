// Package protocol sits at the input/output boundary of the firmware:
// it classifies realtime control characters arriving on the byte stream
// and frames outgoing telemetry snapshots for transport. The buffer,
// VLQ and CRC16 helpers carry the wire format.
package protocol

// Version identifies this protocol's wire format for telemetry frames.
const Version = "1"

// Telemetry frame sizing.
const (
	TelemetryFrameMax     = 256
	TelemetryFrameHeader  = 1 // frame kind byte
	TelemetryFrameTrailer = 2 // CRC16
)
