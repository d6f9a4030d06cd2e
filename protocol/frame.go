package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrFrameTooLong = errors.New("frame exceeds maximum length")
	ErrShortFrame   = errors.New("incomplete frame")
	ErrBadLength    = errors.New("invalid frame length")
	ErrBadSync      = errors.New("missing sync byte")
	ErrBadCRC       = errors.New("frame CRC mismatch")
)

// Encoder builds frames in a fixed buffer. The returned slice is only valid
// until the next call. Not safe for concurrent use.
type Encoder struct {
	seq uint8
	buf [MessageLengthMax]byte
}

// NewEncoder returns an encoder starting at sequence 0
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode builds one frame carrying cmd and args and advances the sequence
func (e *Encoder) Encode(cmd uint32, args []int32) ([]byte, error) {
	out := e.buf[:MessageHeaderSize]
	out = AppendVLQUint(out, cmd)
	for _, a := range args {
		if len(out)+5+MessageTrailerSize > MessageLengthMax {
			return nil, ErrFrameTooLong
		}
		out = AppendVLQInt(out, a)
	}

	msgLen := len(out) + MessageTrailerSize
	out[MessagePositionLen] = uint8(msgLen)
	out[MessagePositionSeq] = MessageDest | (e.seq & MessageSeqMask)

	crc := CRC16(out)
	out = append(out, byte(crc>>8), byte(crc), MessageValueSync)

	e.seq = (e.seq + 1) & MessageSeqMask
	return out, nil
}

// Sequence returns the sequence number of the next frame
func (e *Encoder) Sequence() uint8 {
	return e.seq
}

// Frame is a decoded message block
type Frame struct {
	Seq  uint8
	Cmd  uint32
	Args []int32
}

func (f Frame) String() string {
	return fmt.Sprintf("seq=%d cmd=%d args=%v", f.Seq, f.Cmd, f.Args)
}

// Decode parses the first frame in data and returns it with the number of
// bytes consumed. Leading sync bytes are skipped.
func Decode(data []byte) (Frame, int, error) {
	skipped := 0
	for len(data) > 0 && data[0] == MessageValueSync {
		data = data[1:]
		skipped++
	}

	if len(data) < MessageLengthMin {
		return Frame{}, 0, ErrShortFrame
	}

	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return Frame{}, 0, ErrBadLength
	}
	if len(data) < msgLen {
		return Frame{}, 0, ErrShortFrame
	}
	if data[msgLen-1] != MessageValueSync {
		return Frame{}, 0, ErrBadSync
	}

	bodyLen := msgLen - MessageTrailerSize
	crc := uint16(data[bodyLen])<<8 | uint16(data[bodyLen+1])
	if crc != CRC16(data[:bodyLen]) {
		return Frame{}, 0, ErrBadCRC
	}

	f := Frame{Seq: data[MessagePositionSeq] & MessageSeqMask}
	payload := data[MessageHeaderSize:bodyLen]

	cmd, err := DecodeVLQUint(&payload)
	if err != nil {
		return Frame{}, 0, fmt.Errorf("decode command: %w", err)
	}
	f.Cmd = cmd

	for len(payload) > 0 {
		v, err := DecodeVLQInt(&payload)
		if err != nil {
			return Frame{}, 0, fmt.Errorf("decode argument %d: %w", len(f.Args), err)
		}
		f.Args = append(f.Args, v)
	}

	return f, skipped + msgLen, nil
}
