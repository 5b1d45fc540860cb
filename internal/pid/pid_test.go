package pid

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestClampingSaturatesAndBoundsIntegrator(t *testing.T) {
	p := New(5.5, 1.0, 0, -100, 100)
	var u float64
	for i := 0; i < 10000; i++ {
		u = p.Step(50)
	}
	test.That(t, u, test.ShouldEqual, 100.0)
	test.That(t, math.Abs(p.Integral()), test.ShouldBeLessThanOrEqualTo, 200.0)
}

func TestReset(t *testing.T) {
	p := New(1, 1, 0, -10, 10)
	p.Step(5)
	p.Reset()
	test.That(t, p.Integral(), test.ShouldEqual, 0.0)
	test.That(t, p.Step(0), test.ShouldEqual, 0.0)
}
