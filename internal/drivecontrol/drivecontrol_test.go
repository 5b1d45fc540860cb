package drivecontrol

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/button"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/hid"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/pid"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/rotation"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/urb"
)

type fakeSource struct {
	linked bool
	report [hid.ReportSize]byte
}

func (f *fakeSource) Linked() bool { return f.linked }
func (f *fakeSource) WithCriticalSection(fn func()) { fn() }
func (f *fakeSource) Snapshot() []byte {
	b := make([]byte, hid.ReportSize)
	copy(b, f.report[:])
	return b
}

func newTestController(src *fakeSource) *Controller {
	var kinds [hid.NumButtons]button.Kind
	q := urb.NewQueue()
	p := pid.New(5.5, 0, 4000, -32767, 32766)
	rot := rotation.New(p, q)
	return New(src, q, rot, kinds, nil)
}

func TestWheelReadyGateMonotonicBraking(t *testing.T) {
	src := &fakeSource{linked: true}
	c := newTestController(src)

	var last float64 = -1
	for i := 0; i < 50; i++ {
		cmd, err := c.Step(0)
		test.That(t, err, test.ShouldBeNil)
		if c.State() != WaitingWheelConfiguration {
			break
		}
		test.That(t, cmd.Brake >= last, test.ShouldBeTrue)
		last = cmd.Brake
	}
	test.That(t, last, test.ShouldBeLessThanOrEqualTo, 1.0)
}

func TestThreePedalFloorEntersReadingWheel(t *testing.T) {
	src := &fakeSource{linked: true}
	src.report[3] = 0xFF
	src.report[4] = 0x03
	src.report[5] = 0xFF
	src.report[6] = 0x03
	src.report[7] = 0xFF
	src.report[8] = 0x03

	c := newTestController(src)
	_, err := c.Step(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.State(), test.ShouldEqual, ReadingWheel)
}

func TestUnlinkedWheelFallsBackAfterDebounceSettles(t *testing.T) {
	src := &fakeSource{linked: true}
	src.report[3] = 0xFF
	src.report[4] = 0x03
	src.report[5] = 0xFF
	src.report[6] = 0x03
	src.report[7] = 0xFF
	src.report[8] = 0x03
	c := newTestController(src)
	_, err := c.Step(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.State(), test.ShouldEqual, ReadingWheel)

	src.linked = false
	for i := 0; i < 5; i++ {
		_, _ = c.Step(0)
	}
	time.Sleep(80 * time.Millisecond)
	_, err = c.Step(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.State(), test.ShouldEqual, WaitingWheelConfiguration)
}
