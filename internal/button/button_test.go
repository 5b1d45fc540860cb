package button

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestEdge(t *testing.T) {
	c := New(Edge, nil)
	raws := []bool{false, true, true, true, false}
	want := []bool{false, true, false, false, false}
	for i, raw := range raws {
		test.That(t, c.Update(raw), test.ShouldEqual, want[i])
	}
}

func TestLevel(t *testing.T) {
	c := New(Level, nil)
	raws := []bool{false, true, true, false, true, false}
	want := []bool{false, true, true, true, false, false}
	for i, raw := range raws {
		test.That(t, c.Update(raw), test.ShouldEqual, want[i])
	}
}

func TestLongHeldUnderThreshold(t *testing.T) {
	mock := clock.NewMock()
	c := New(Long, mock)
	test.That(t, c.Update(true), test.ShouldBeFalse)
	mock.Add(500 * time.Millisecond)
	test.That(t, c.Update(true), test.ShouldBeFalse)
}

func TestLongHeldOverThresholdLatches(t *testing.T) {
	mock := clock.NewMock()
	c := New(Long, mock)
	test.That(t, c.Update(true), test.ShouldBeFalse)
	mock.Add(1100 * time.Millisecond)
	test.That(t, c.Update(true), test.ShouldBeTrue)
	test.That(t, c.LongState(), test.ShouldEqual, StateChanged)
	// still held: stays latched, does not toggle again.
	test.That(t, c.Update(true), test.ShouldBeTrue)
	// release: returns to NotPressed, state remains latched.
	test.That(t, c.Update(false), test.ShouldBeTrue)
	test.That(t, c.LongState(), test.ShouldEqual, NotPressed)
}
