// Package rotation implements the rotation manager (C8): it wraps a PID
// whose error is target-minus-feedback on a shared signed-1024 scale, and
// turns the controller's output into a constant-force command for the FF
// effect manager.
package rotation

import (
	"github.com/pixmoving-robotics/t818-dbw-core/internal/ffmanager"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/mathutil"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/pid"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/urb"
)

// WheelDegreeRange is the physical half-range of the wheel's measured
// rotation, used to map the raw 0..65535 encoder value to degrees.
const WheelDegreeRange = 30

// Manager drives the constant-force effect from a target/feedback pair
// mapped onto the ±1024 scale shared with the CAN steering field.
type Manager struct {
	PID   *pid.PID
	Queue *urb.Queue
}

// New returns a Manager driving the given PID and enqueuing FF packets onto
// queue.
func New(p *pid.PID, queue *urb.Queue) *Manager {
	return &Manager{PID: p, Queue: queue}
}

// WheelDegrees maps the wheel's raw 0..65535 rotation encoder value to
// degrees in [-30, 30].
func WheelDegrees(raw uint16) float64 {
	return mathutil.Map(float64(raw), 0, 65535, 0, 60) - WheelDegreeRange
}

// ToSigned1024 maps a degree value in [-30, 30] to the shared ±1024 scale.
func ToSigned1024(deg float64) float64 {
	return mathutil.Clamp(mathutil.Map(deg, -WheelDegreeRange, WheelDegreeRange, -1024, 1024), -1024, 1024)
}

// FeedbackToSigned1024 maps the vehicle's reported steer feedback (nominally
// ±300 full scale) to the shared ±1024 scale.
func FeedbackToSigned1024(steer int16) float64 {
	return mathutil.Clamp(mathutil.Map(float64(steer), -300, 300, -1024, 1024), -1024, 1024)
}

// Step runs one tick: forms e = target - feedback (both already mapped to
// ±1024), steps the PID, and enqueues a constant-force command followed by
// a play command.
func (m *Manager) Step(target, feedback float64) error {
	e := target - feedback
	u := m.PID.Step(e)
	force := int16(mathutil.Clamp(u, -32767, 32766))

	if err := m.Queue.Enqueue(ffmanager.Pipe, ffmanager.UploadConstant(force)); err != nil {
		return err
	}
	return m.Queue.Enqueue(ffmanager.Pipe, ffmanager.Play(ffmanager.EffectConstant))
}
