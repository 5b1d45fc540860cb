package cancodec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/feedback"
)

// gearShiftDrive mirrors gear.GearShiftDrive (1); duplicated as a literal
// here to avoid cancodec_test importing internal/gear, which itself
// imports cancodec.
const gearShiftDrive = 1

func TestPedalCANBytes(t *testing.T) {
	d := ControlData{
		Speed:     0,
		Braking:   512,
		GearShift: gearShiftDrive,
	}
	f := Encode(d)
	test.That(t, f[0], test.ShouldEqual, byte(0x00))
	test.That(t, f[1], test.ShouldEqual, byte(0x00))
	test.That(t, f[2], test.ShouldEqual, byte(0x00))
	test.That(t, f[3], test.ShouldEqual, byte(0x02))
	test.That(t, f[6]&0x0F, test.ShouldEqual, byte(gearShiftDrive))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := ControlData{
		Speed:         1024,
		Braking:       512,
		Steering:      -1024,
		GearShift:     3,
		ModeSelection: 2,
		EBP:           true,
		FrontLight:    true,
		LeftLight:     true,
		RightLight:    false,
		SpeedMode:     false,
		StateControl:  true,
		AdvancedMode:  false,
		SelfDriving:   true,
	}
	got := Decode(Encode(d))
	if diff := cmp.Diff(d, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFeedbackFields(t *testing.T) {
	frame := make([]byte, 8)
	frame[0] = 0x64 // speed low byte = 100
	frame[2] = 0x32 // steer low byte = 50
	frame[6] = 0b00010010

	fb, err := DecodeFeedback(frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fb.Speed, test.ShouldEqual, int16(100))
	test.That(t, fb.Steer, test.ShouldEqual, int16(50))
	test.That(t, fb.Gear, test.ShouldEqual, feedback.Gear(2))
}

func TestDecodeFeedbackShort(t *testing.T) {
	_, err := DecodeFeedback(make([]byte, 4))
	test.That(t, err, test.ShouldEqual, ErrShortFrame)
}
