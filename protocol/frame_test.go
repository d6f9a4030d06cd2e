package protocol

import (
	"testing"
)

func TestEncodeDecodeStepFrame(t *testing.T) {
	enc := NewEncoder()

	frame, err := enc.Encode(CmdStep, []int32{1})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if int(frame[MessagePositionLen]) != len(frame) {
		t.Errorf("length byte %d does not match frame length %d", frame[MessagePositionLen], len(frame))
	}
	if frame[MessagePositionSeq] != MessageDest {
		t.Errorf("expected first sequence 0x%02x, got 0x%02x", MessageDest, frame[MessagePositionSeq])
	}
	if frame[len(frame)-1] != MessageValueSync {
		t.Errorf("missing trailing sync byte")
	}

	f, n, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n != len(frame) {
		t.Errorf("expected %d bytes consumed, got %d", len(frame), n)
	}
	if f.Cmd != CmdStep || len(f.Args) != 1 || f.Args[0] != 1 || f.Seq != 0 {
		t.Errorf("unexpected frame: %v", f)
	}
}

func TestEncoderSequenceWraps(t *testing.T) {
	enc := NewEncoder()
	for i := 0; i < 20; i++ {
		frame, err := enc.Encode(CmdStep, nil)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		expected := MessageDest | uint8(i&MessageSeqMask)
		if frame[MessagePositionSeq] != expected {
			t.Fatalf("frame %d: expected seq 0x%02x, got 0x%02x", i, expected, frame[MessagePositionSeq])
		}
	}
	if enc.Sequence() != 20&MessageSeqMask {
		t.Errorf("expected next sequence %d, got %d", 20&MessageSeqMask, enc.Sequence())
	}
}

func TestEncodeTooLong(t *testing.T) {
	enc := NewEncoder()
	args := make([]int32, 20)
	for i := range args {
		args[i] = 1 << 30
	}
	if _, err := enc.Encode(CmdStep, args); err != ErrFrameTooLong {
		t.Errorf("expected ErrFrameTooLong, got %v", err)
	}
}

func TestDecodeStream(t *testing.T) {
	enc := NewEncoder()

	var stream []byte
	stream = append(stream, MessageValueSync, MessageValueSync)
	for _, cmd := range []uint32{CmdReset, CmdStep, CmdStep, CmdStop} {
		frame, err := enc.Encode(cmd, []int32{0})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		stream = append(stream, frame...)
	}

	var cmds []uint32
	for len(stream) > 0 {
		f, n, err := Decode(stream)
		if err != nil {
			t.Fatalf("Decode failed after %d frames: %v", len(cmds), err)
		}
		cmds = append(cmds, f.Cmd)
		stream = stream[n:]
	}

	expected := []uint32{CmdReset, CmdStep, CmdStep, CmdStop}
	if len(cmds) != len(expected) {
		t.Fatalf("expected %d frames, got %d", len(expected), len(cmds))
	}
	for i := range expected {
		if cmds[i] != expected[i] {
			t.Errorf("frame %d: expected cmd %d, got %d", i, expected[i], cmds[i])
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	enc := NewEncoder()
	good, err := enc.Encode(CmdStep, []int32{0})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	frame := append([]byte(nil), good...)

	badCRC := append([]byte(nil), frame...)
	badCRC[MessageHeaderSize] ^= 0x01

	badSync := append([]byte(nil), frame...)
	badSync[len(badSync)-1] = 0x00

	badLen := append([]byte(nil), frame...)
	badLen[MessagePositionLen] = 2

	testCases := []struct {
		name string
		data []byte
		err  error
	}{
		{"short", frame[:3], ErrShortFrame},
		{"truncated", frame[:len(frame)-1], ErrShortFrame},
		{"crc", badCRC, ErrBadCRC},
		{"sync", badSync, ErrBadSync},
		{"length", badLen, ErrBadLength},
	}

	for _, tc := range testCases {
		if _, _, err := Decode(tc.data); err != tc.err {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
	}
}
