// Package cancodec is the pure byte<->struct codec for the two CAN frames
// the control core exchanges: the 8-byte control TX payload and the 8-byte
// AutoDataFeedback RX payload. Byte/shift/mask layout is reproduced from
// the source firmware's can_parser.h; it never touches a transport.
package cancodec

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/feedback"
)

// ControlFrameID is the standard CAN identifier for the control TX frame.
const ControlFrameID = 0x183

// FrameLen is the fixed DLC for both control and feedback frames.
const FrameLen = 8

// ErrShortFrame is returned when a frame shorter than FrameLen is decoded.
var ErrShortFrame = errors.New("cancodec: short frame")

// TX byte offsets and bit layout, from can_parser.h.
const (
	speedLowByte    = 0
	brakingLowByte  = 2
	steeringLowByte = 4
	gearModeByte    = 6
	flagByte        = 7

	gearShiftShift    = 0
	gearShiftMask     = 0x0F
	modeSelectShift   = 4
	modeSelectMask    = 0x0F

	leftLightShift    = 0
	stateControlShift = 1
	rightLightShift   = 2
	ebpShift          = 3
	frontLightShift   = 4
	advancedModeShift = 5
	speedModeShift    = 6
	selfDrivingShift  = 7
)

// ControlData is the outgoing AutoControlData command snapshot (§3).
type ControlData struct {
	Speed         uint16 // 0..1024
	Braking       uint16 // 0..1024
	Steering      int16  // -1024..1024
	GearShift     byte   // 4 bits
	ModeSelection byte   // 4 bits

	EBP           bool
	FrontLight    bool
	LeftLight     bool
	RightLight    bool
	SpeedMode     bool
	StateControl  bool
	AdvancedMode  bool
	SelfDriving   bool
}

// Encode packs d into an 8-byte little-endian control frame per §4.8.
// Encoding zeros the mask bits before OR-ing in new bits, so stale high
// bits in the nibble/flag bytes never leak through.
func Encode(d ControlData) [FrameLen]byte {
	var f [FrameLen]byte
	binary.LittleEndian.PutUint16(f[speedLowByte:speedLowByte+2], d.Speed)
	binary.LittleEndian.PutUint16(f[brakingLowByte:brakingLowByte+2], d.Braking)
	binary.LittleEndian.PutUint16(f[steeringLowByte:steeringLowByte+2], uint16(d.Steering))

	var gearMode byte
	gearMode |= (d.GearShift & gearShiftMask) << gearShiftShift
	gearMode |= (d.ModeSelection & modeSelectMask) << modeSelectShift
	f[gearModeByte] = gearMode

	var flags byte
	flags |= boolBit(d.LeftLight, leftLightShift)
	flags |= boolBit(d.StateControl, stateControlShift)
	flags |= boolBit(d.RightLight, rightLightShift)
	flags |= boolBit(d.EBP, ebpShift)
	flags |= boolBit(d.FrontLight, frontLightShift)
	flags |= boolBit(d.AdvancedMode, advancedModeShift)
	flags |= boolBit(d.SpeedMode, speedModeShift)
	flags |= boolBit(d.SelfDriving, selfDrivingShift)
	f[flagByte] = flags

	return f
}

// Decode unpacks an 8-byte control frame back into a ControlData. Provided
// mainly for round-trip testing of Encode; production code only encodes TX.
func Decode(f [FrameLen]byte) ControlData {
	var d ControlData
	d.Speed = binary.LittleEndian.Uint16(f[speedLowByte : speedLowByte+2])
	d.Braking = binary.LittleEndian.Uint16(f[brakingLowByte : brakingLowByte+2])
	d.Steering = int16(binary.LittleEndian.Uint16(f[steeringLowByte : steeringLowByte+2]))

	gearMode := f[gearModeByte]
	d.GearShift = (gearMode >> gearShiftShift) & gearShiftMask
	d.ModeSelection = (gearMode >> modeSelectShift) & modeSelectMask

	flags := f[flagByte]
	d.LeftLight = bitSet(flags, leftLightShift)
	d.StateControl = bitSet(flags, stateControlShift)
	d.RightLight = bitSet(flags, rightLightShift)
	d.EBP = bitSet(flags, ebpShift)
	d.FrontLight = bitSet(flags, frontLightShift)
	d.AdvancedMode = bitSet(flags, advancedModeShift)
	d.SpeedMode = bitSet(flags, speedModeShift)
	d.SelfDriving = bitSet(flags, selfDrivingShift)
	return d
}

// RX byte offsets and bit layout for the AutoDataFeedback frame.
const (
	fbSpeedLowByte   = 0
	fbSteerLowByte   = 2
	fbBrakingLowByte = 4
	fbGearModeByte   = 6
	fbFlagByte       = 7

	fbGearShift  = 0
	fbGearMask   = 0x03
	fbModeShift  = 4
	fbModeMask   = 0x03

	fbLeftSteerShift  = 0
	fbRightSteerShift = 1
	fbTailShift       = 2
	fbBrakingShift    = 3
	fbVehicleShift    = 4
	fbEmergencyShift  = 6
)

// DecodeFeedback unpacks the 8-byte AutoDataFeedback RX frame.
func DecodeFeedback(f []byte) (feedback.State, error) {
	if len(f) < FrameLen {
		return feedback.State{}, ErrShortFrame
	}
	var s feedback.State
	s.Speed = int16(binary.LittleEndian.Uint16(f[fbSpeedLowByte : fbSpeedLowByte+2]))
	s.Steer = int16(binary.LittleEndian.Uint16(f[fbSteerLowByte : fbSteerLowByte+2]))
	s.Braking = binary.LittleEndian.Uint16(f[fbBrakingLowByte : fbBrakingLowByte+2])

	gearMode := f[fbGearModeByte]
	s.Gear = feedback.Gear((gearMode >> fbGearShift) & fbGearMask)
	s.Mode = feedback.Mode((gearMode >> fbModeShift) & fbModeMask)

	flags := f[fbFlagByte]
	s.LeftSteerLight = bitSet(flags, fbLeftSteerShift)
	s.RightSteerLight = bitSet(flags, fbRightSteerShift)
	s.TailLight = bitSet(flags, fbTailShift)
	s.BrakingLight = bitSet(flags, fbBrakingShift)
	s.VehicleStatus = bitSet(flags, fbVehicleShift)
	s.EmergencyStop = bitSet(flags, fbEmergencyShift)
	return s, nil
}

func boolBit(v bool, shift uint) byte {
	if !v {
		return 0
	}
	return 1 << shift
}

func bitSet(b byte, shift uint) bool {
	return b&(1<<shift) != 0
}
