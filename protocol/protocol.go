// Package protocol implements the step-frame wire format used to forward
// pulses to a microcontroller. Frames follow the Klipper message block layout:
// length, sequence, VLQ payload, CRC16 and a sync byte.
package protocol

// Version of the step-frame protocol
const Version = "1"

// Frame layout constants
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Sequence numbers occupy the low nibble
	MessageSeqMask = 0x0F
)

// Command IDs carried in the first VLQ of a payload
const (
	CmdReset uint32 = 0 // Zero the remote step position
	CmdStep  uint32 = 1 // One step; arg: direction (0=cw, 1=ccw)
	CmdStop  uint32 = 2 // Stop pulsing and release outputs
)
