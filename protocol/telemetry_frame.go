package protocol

import "errors"

// Frame kinds.
const (
	FrameStatus byte = 0x01
)

var (
	ErrFrameTooShort = errors.New("telemetry frame too short")
	ErrFrameKind     = errors.New("unexpected telemetry frame kind")
	ErrFrameCRC      = errors.New("telemetry frame CRC mismatch")
)

// StatusFrame is the binary status snapshot pushed over the telemetry
// transport. Positions travel as micrometers so every field fits the
// integer wire encoding.
type StatusFrame struct {
	Mode       uint8
	Alarm      uint8
	FeedPct    uint8
	RapidPct   uint8
	SpindlePct uint8
	LineNumber int32
	PositionUM []int32
}

// EncodeStatusFrame writes kind byte, VLQ-encoded fields, and a CRC16
// trailer over everything before it.
func EncodeStatusFrame(out *ScratchOutput, f *StatusFrame) []byte {
	out.Reset()
	out.Output([]byte{FrameStatus})
	EncodeVLQUint(out, uint32(f.Mode))
	EncodeVLQUint(out, uint32(f.Alarm))
	EncodeVLQUint(out, uint32(f.FeedPct))
	EncodeVLQUint(out, uint32(f.RapidPct))
	EncodeVLQUint(out, uint32(f.SpindlePct))
	EncodeVLQInt(out, f.LineNumber)
	EncodeVLQUint(out, uint32(len(f.PositionUM)))
	for _, p := range f.PositionUM {
		EncodeVLQInt(out, p)
	}
	crc := CRC16(out.Result())
	out.Output([]byte{byte(crc >> 8), byte(crc)})
	return out.Result()
}

// DecodeStatusFrame parses and CRC-checks one status frame.
func DecodeStatusFrame(frame []byte) (*StatusFrame, error) {
	if len(frame) < TelemetryFrameHeader+TelemetryFrameTrailer {
		return nil, ErrFrameTooShort
	}
	payload := frame[:len(frame)-TelemetryFrameTrailer]
	want := uint16(frame[len(frame)-2])<<8 | uint16(frame[len(frame)-1])
	if CRC16(payload) != want {
		return nil, ErrFrameCRC
	}
	if payload[0] != FrameStatus {
		return nil, ErrFrameKind
	}

	data := payload[1:]
	f := &StatusFrame{}

	fields := []*uint8{&f.Mode, &f.Alarm, &f.FeedPct, &f.RapidPct, &f.SpindlePct}
	for _, dst := range fields {
		v, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		*dst = uint8(v)
	}

	ln, err := DecodeVLQInt(&data)
	if err != nil {
		return nil, err
	}
	f.LineNumber = ln

	n, err := DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}
	f.PositionUM = make([]int32, 0, n)
	for i := uint32(0); i < n; i++ {
		p, err := DecodeVLQInt(&data)
		if err != nil {
			return nil, err
		}
		f.PositionUM = append(f.PositionUM, p)
	}

	return f, nil
}
