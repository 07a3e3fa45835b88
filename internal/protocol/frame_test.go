package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeFrameRoundTrip(t *testing.T) {
	payload := []byte{0x65, 'h', 'i', 0x00}
	frame, err := EncodeFrame(payload, 3)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	wantLen := len(payload) + FrameOverhead
	if int(frame[0])|int(frame[1]&0x0F)<<8 != wantLen {
		t.Fatalf("length field = %d, want %d", int(frame[0])|int(frame[1]&0x0F)<<8, wantLen)
	}
	if frame[1]>>4 != 3 {
		t.Fatalf("counter nibble = %d, want 3", frame[1]>>4)
	}
	if frame[len(frame)-1] != 0x00 {
		t.Fatalf("missing trailing terminator")
	}

	dec := NewDecoder()
	frames, err := dec.Feed(frame)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Counter != 3 {
		t.Errorf("decoded counter = %d, want 3", frames[0].Counter)
	}
	if !bytes.Equal(frames[0].Body, payload) {
		t.Errorf("decoded body = %v, want %v", frames[0].Body, payload)
	}
}

func TestEncodeFrameOverlong(t *testing.T) {
	payload := make([]byte, MaxPacketLength)
	if _, err := EncodeFrame(payload, 0); err == nil {
		t.Fatal("expected OverlongPacketError, got nil")
	}
}

func TestNextCounterWraps(t *testing.T) {
	if NextCounter(15) != 0 {
		t.Errorf("NextCounter(15) = %d, want 0", NextCounter(15))
	}
	if NextCounter(4) != 5 {
		t.Errorf("NextCounter(4) = %d, want 5", NextCounter(4))
	}
}

// TestDecoderFragmentation covers §8 S6: a frame split across multiple Feed
// calls is only emitted once all its bytes have arrived, and multiple
// frames delivered in a single chunk are all drained.
func TestDecoderFragmentation(t *testing.T) {
	frame1, _ := EncodeFrame([]byte{0x71}, 0)
	frame2, _ := EncodeFrame([]byte{0x65, 'y', 'o', 0x00}, 1)

	dec := NewDecoder()

	frames, err := dec.Feed(frame1[:2])
	if err != nil {
		t.Fatalf("Feed partial: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("got %d frames from a partial header+no-payload chunk, want 0", len(frames))
	}

	rest := append(append([]byte{}, frame1[2:]...), frame2...)
	frames, err = dec.Feed(rest)
	if err != nil {
		t.Fatalf("Feed rest: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Body[0] != 0x71 {
		t.Errorf("first frame opcode = 0x%x, want 0x71", frames[0].Body[0])
	}
	if !bytes.Equal(frames[1].Body, []byte{0x65, 'y', 'o', 0x00}) {
		t.Errorf("second frame body = %v", frames[1].Body)
	}
}

func TestDecoderRejectsImpossibleLength(t *testing.T) {
	dec := NewDecoder()
	if _, err := dec.Feed([]byte{0x01, 0x00}); err == nil {
		t.Fatal("expected FramingError for a length shorter than the frame overhead")
	}
}
