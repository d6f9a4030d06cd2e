// Package status publishes run progress as a block of Modbus holding
// registers. It runs at normal priority and only reads counters the
// real-time thread owns.
package status

import "time"

// Snapshot is what gets delivered on each publish
type Snapshot struct {
	State     uint16
	ExitCode  int16
	Steps     uint32
	Requested uint32
	Overruns  uint64
	MaxLate   time.Duration
}

// Encode converts a Snapshot into a full status block.
// No IO. No side effects.
func Encode(s Snapshot, heartbeat uint16, name []uint16) []uint16 {
	regs := make([]uint16, BlockSize)

	regs[SlotState] = s.State
	regs[SlotExitCode] = uint16(s.ExitCode)
	regs[SlotStepsHi] = uint16(s.Steps >> 16)
	regs[SlotStepsLo] = uint16(s.Steps)
	regs[SlotRequestedHi] = uint16(s.Requested >> 16)
	regs[SlotRequestedLo] = uint16(s.Requested)
	regs[SlotOverruns] = saturate(s.Overruns)
	regs[SlotMaxLateUs] = saturate(uint64(s.MaxLate / time.Microsecond))
	regs[SlotHeartbeat] = heartbeat

	copy(regs[SlotDeviceNameStart:SlotDeviceNameStart+SlotDeviceNameSlots], name)
	return regs
}

func saturate(v uint64) uint16 {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// EncodeDeviceName packs up to 16 ASCII characters into 8 registers,
// two bytes per register, big-endian
func EncodeDeviceName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}
	return out
}
