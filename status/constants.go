package status

// Run status block layout. These values define the register protocol and
// are not configurable.

// BlockSize is the fixed number of holding registers in the block
const BlockSize = 20

// ---- SLOT INDICES ----

// SlotState holds the lifecycle state code
const SlotState = 0

// SlotExitCode holds the exit code once terminated (two's complement)
const SlotExitCode = 1

// SlotStepsHi and SlotStepsLo hold the emitted step count
const SlotStepsHi = 2
const SlotStepsLo = 3

// SlotRequestedHi and SlotRequestedLo hold the requested step count
const SlotRequestedHi = 4
const SlotRequestedLo = 5

// SlotOverruns holds the number of late wake-ups, saturated at 65535
const SlotOverruns = 6

// SlotMaxLateUs holds the worst lateness in microseconds, saturated
const SlotMaxLateUs = 7

// SlotHeartbeat increments on every publish
const SlotHeartbeat = 8

// Slots 9-11 are reserved.

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot of the device name, which always
// sits at the end of the block
const SlotDeviceNameStart = 12

// SlotDeviceNameSlots is the number of slots reserved for the device name
const SlotDeviceNameSlots = 8

// DeviceNameMaxChars is the maximum number of ASCII characters stored
const DeviceNameMaxChars = 16
