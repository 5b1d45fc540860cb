package gear

import (
	"testing"

	"go.viam.com/test"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/cancodec"
)

func TestParkingGuardFromDrive(t *testing.T) {
	m := New(nil)
	m.state = Drive
	m.Step(Inputs{FeedbackSpeed: 20}, Buttons{Parking: true})
	test.That(t, m.State(), test.ShouldEqual, Drive)

	m2 := New(nil)
	m2.state = Drive
	m2.Step(Inputs{FeedbackSpeed: 5}, Buttons{Parking: true})
	test.That(t, m2.State(), test.ShouldEqual, Parking)
}

func TestPedalCANRoundTrip(t *testing.T) {
	m := New(nil)
	m.state = Drive
	out := m.Step(Inputs{BrakeModule: 0.5, ThrottleModule: 0}, Buttons{})
	frame := cancodec.Decode(cancodec.Encode(out))
	test.That(t, frame.Speed, test.ShouldEqual, uint16(0))
	test.That(t, frame.Braking, test.ShouldEqual, uint16(512))
	test.That(t, frame.GearShift, test.ShouldEqual, GearShiftDrive)
}

func TestSteeringMap(t *testing.T) {
	m := New(nil)
	out := m.Step(Inputs{WheelDeg: 30}, Buttons{})
	test.That(t, out.Steering, test.ShouldEqual, int16(1024))
	out = m.Step(Inputs{WheelDeg: -30}, Buttons{})
	test.That(t, out.Steering, test.ShouldEqual, int16(-1024))
	out = m.Step(Inputs{WheelDeg: 0}, Buttons{})
	test.That(t, out.Steering, test.ShouldEqual, int16(0))
}

func TestSlewLimitNeverOvershoots(t *testing.T) {
	m := New(nil)
	m.state = Drive
	var out = m.Step(Inputs{ThrottleModule: 1.0}, Buttons{})
	for i := 1; i < 12; i++ {
		out = m.Step(Inputs{ThrottleModule: 1.0}, Buttons{})
		want := 100 * (i + 1)
		if want > 1024 {
			want = 1024
		}
		test.That(t, out.Speed, test.ShouldEqual, uint16(want))
	}
}

func TestBrakingRoundsRatherThanTruncates(t *testing.T) {
	m := New(nil)
	m.state = Drive
	out := m.Step(Inputs{BrakeModule: 0.7}, Buttons{})
	test.That(t, out.Braking, test.ShouldEqual, uint16(717))
}

func TestGearUpFromParking(t *testing.T) {
	m := New(nil)
	test.That(t, m.State(), test.ShouldEqual, Parking)
	m.Step(Inputs{}, Buttons{GearUp: true})
	test.That(t, m.State(), test.ShouldEqual, Retro)
}
