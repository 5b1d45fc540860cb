package ffmanager

import (
	"encoding/binary"
	"testing"

	"go.viam.com/test"
)

func TestInitSequenceOrderAndGain(t *testing.T) {
	seq := InitSequence()
	test.That(t, len(seq), test.ShouldEqual, 4)
	test.That(t, seq[3][1], test.ShouldEqual, byte(0xFF))
}

func TestUploadConstantLittleEndian(t *testing.T) {
	p := UploadConstant(-100)
	got := int16(binary.LittleEndian.Uint16(p[4:6]))
	test.That(t, got, test.ShouldEqual, int16(-100))
	test.That(t, p[2], test.ShouldEqual, byte(EffectConstant))
}

func TestPlayAndStopCarryEffectID(t *testing.T) {
	play := Play(EffectSpring)
	test.That(t, play[2], test.ShouldEqual, byte(EffectSpring))
	stop := Stop(EffectConstant)
	test.That(t, stop[2], test.ShouldEqual, byte(EffectConstant))
}
