// Package ffmanager builds the fixed 64-byte USB interrupt-OUT packets that
// drive the T818's force-feedback engine: the init sequence, gain, and the
// upload/play/stop templates for spring and constant-force effects. It never
// touches USB itself; callers hand the built packets to internal/urb.
package ffmanager

import "encoding/binary"

// Pipe is the USB interrupt-OUT pipe index FF packets are always tagged
// with, per §4.4/§6.
const Pipe = 3

// EffectID identifies one of the two effect slots this manager drives.
type EffectID byte

const (
	EffectSpring   EffectID = 0x01 // SPRING_ID in the source firmware
	EffectConstant EffectID = 0x02 // COSTANT_ID in the source firmware
)

const packetSize = 64

func blank() [packetSize]byte {
	return [packetSize]byte{}
}

// InitSequence returns the four packets sent once at wheel bring-up:
// configuration pack 1, configuration pack 2, a range pack, and a
// gain-to-max pack, in send order.
func InitSequence() [][packetSize]byte {
	cfg1 := blank()
	cfg1[0] = 0x01

	cfg2 := blank()
	cfg2[0] = 0x02

	rng := blank()
	rng[0] = 0x03

	return [][packetSize]byte{cfg1, cfg2, rng, SetGain(0xFF)}
}

// SetGain builds the set-gain packet for the given 0-255 gain value.
func SetGain(gain byte) [packetSize]byte {
	p := blank()
	p[0] = 0x04
	p[1] = gain
	return p
}

// UploadSpring fills the two 16-bit spring coefficients (little-endian) into
// the upload template.
func UploadSpring(coeffLow, coeffHigh int16) [packetSize]byte {
	p := blank()
	p[0] = 0x05
	p[2] = byte(EffectSpring)
	binary.LittleEndian.PutUint16(p[4:6], uint16(coeffLow))
	binary.LittleEndian.PutUint16(p[6:8], uint16(coeffHigh))
	return p
}

// UploadConstant fills the signed i16 constant-force value (little-endian)
// at offsets 4/5 of the upload template.
func UploadConstant(force int16) [packetSize]byte {
	p := blank()
	p[0] = 0x05
	p[2] = byte(EffectConstant)
	binary.LittleEndian.PutUint16(p[4:6], uint16(force))
	return p
}

// Play builds a "play effect" packet for the given effect, with the effect
// id at offset 2 per §4.4.
func Play(effect EffectID) [packetSize]byte {
	p := blank()
	p[0] = 0x06
	p[2] = byte(effect)
	return p
}

// Stop builds a "stop effect" packet for the given effect, with the effect
// id at offset 2 per §4.4.
func Stop(effect EffectID) [packetSize]byte {
	p := blank()
	p[0] = 0x07
	p[2] = byte(effect)
	return p
}
