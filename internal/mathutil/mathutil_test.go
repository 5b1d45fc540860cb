package mathutil

import (
	"testing"

	"go.viam.com/test"
)

func TestClamp(t *testing.T) {
	test.That(t, Clamp(5, 0, 10), test.ShouldEqual, 5.0)
	test.That(t, Clamp(-5, 0, 10), test.ShouldEqual, 0.0)
	test.That(t, Clamp(15, 0, 10), test.ShouldEqual, 10.0)
}

func TestMap(t *testing.T) {
	test.That(t, Map(30, -30, 30, -1024, 1024), test.ShouldEqual, 1024.0)
	test.That(t, Map(-30, -30, 30, -1024, 1024), test.ShouldEqual, -1024.0)
	test.That(t, Map(0, -30, 30, -1024, 1024), test.ShouldEqual, 0.0)
}

func TestSlewLimiterNeverOvershoots(t *testing.T) {
	sl := NewSlewLimiter(0, 100)
	var got float64
	for i := 0; i < 20; i++ {
		got = sl.Step(1024)
		want := 100.0 * float64(i+1)
		if want > 1024 {
			want = 1024
		}
		test.That(t, got, test.ShouldEqual, want)
	}
	test.That(t, sl.Current(), test.ShouldEqual, 1024.0)
}

func TestSlewLimiterDescends(t *testing.T) {
	sl := NewSlewLimiter(1024, 100)
	got := sl.Step(0)
	test.That(t, got, test.ShouldEqual, 924.0)
}
