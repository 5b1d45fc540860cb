package cantx

import (
	"testing"

	"go.viam.com/test"
)

func TestSendWhenMailboxFree(t *testing.T) {
	ft := &FakeTransport{}
	m := New(ft, 0x183, nil)
	test.That(t, m.Send([8]byte{1}), test.ShouldBeNil)
	test.That(t, len(ft.Posted), test.ShouldEqual, 1)
	test.That(t, ft.AbortCalls, test.ShouldEqual, 0)
}

func TestSendWhenMailboxPendingClearsAfterAbort(t *testing.T) {
	ft := &FakeTransport{PendingFlag: true, ClearOnAbort: true}
	m := New(ft, 0x183, nil)
	test.That(t, m.Send([8]byte{2}), test.ShouldBeNil)
	test.That(t, ft.AbortCalls, test.ShouldEqual, 1)
	test.That(t, len(ft.Posted), test.ShouldEqual, 1)
}

func TestSendFailsBusStuckWhenAbortNeverClears(t *testing.T) {
	ft := &FakeTransport{PendingFlag: true, ClearOnAbort: false}
	m := New(ft, 0x183, nil)
	err := m.Send([8]byte{3})
	test.That(t, err, test.ShouldEqual, ErrBusStuck)
	test.That(t, m.OccupancyHighWater(), test.ShouldEqual, 1)
}
