package rotation

import (
	"testing"

	"go.viam.com/test"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/pid"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/urb"
)

func TestWheelDegreesRange(t *testing.T) {
	test.That(t, WheelDegrees(0), test.ShouldAlmostEqual, -30.0)
	test.That(t, WheelDegrees(65535), test.ShouldAlmostEqual, 30.0)
}

func TestStepEnqueuesConstantThenPlay(t *testing.T) {
	p := pid.New(5.5, 0, 4000, -32767, 32766)
	q := urb.NewQueue()
	m := New(p, q)

	test.That(t, m.Step(100, 0), test.ShouldBeNil)
	test.That(t, q.Len(), test.ShouldEqual, 2)
}
