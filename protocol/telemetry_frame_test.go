package protocol

import "testing"

func TestStatusFrameRoundTrip(t *testing.T) {
	in := StatusFrame{
		Mode:       3,
		Alarm:      2,
		FeedPct:    120,
		RapidPct:   50,
		SpindlePct: 90,
		LineNumber: -42,
		PositionUM: []int32{10500, -2000, 0},
	}

	var scratch ScratchOutput
	frame := EncodeStatusFrame(&scratch, &in)

	out, err := DecodeStatusFrame(frame)
	if err != nil {
		t.Fatal(err)
	}
	if out.Mode != in.Mode || out.Alarm != in.Alarm || out.LineNumber != in.LineNumber {
		t.Errorf("header mismatch: %+v", out)
	}
	if out.FeedPct != in.FeedPct || out.RapidPct != in.RapidPct || out.SpindlePct != in.SpindlePct {
		t.Errorf("override mismatch: %+v", out)
	}
	if len(out.PositionUM) != len(in.PositionUM) {
		t.Fatalf("position count = %d", len(out.PositionUM))
	}
	for i := range in.PositionUM {
		if out.PositionUM[i] != in.PositionUM[i] {
			t.Errorf("axis %d: got %d want %d", i, out.PositionUM[i], in.PositionUM[i])
		}
	}
}

func TestStatusFrameCRCRejected(t *testing.T) {
	var scratch ScratchOutput
	frame := EncodeStatusFrame(&scratch, &StatusFrame{Mode: 1})

	corrupted := make([]byte, len(frame))
	copy(corrupted, frame)
	corrupted[1] ^= 0x40

	if _, err := DecodeStatusFrame(corrupted); err != ErrFrameCRC {
		t.Errorf("got %v, want ErrFrameCRC", err)
	}
}

func TestStatusFrameTooShort(t *testing.T) {
	if _, err := DecodeStatusFrame([]byte{FrameStatus}); err != ErrFrameTooShort {
		t.Errorf("got %v, want ErrFrameTooShort", err)
	}
}
