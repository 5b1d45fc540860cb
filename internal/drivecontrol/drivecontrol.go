// Package drivecontrol implements the drive-control input state machine
// (C7): WaitingWheelConfiguration / ReadingWheel / AutonomousDriving, pedal
// normalization, the 25-button array update, and the per-tick invocation of
// the rotation manager's force-feedback loop.
package drivecontrol

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/button"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/ffmanager"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/hid"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/mathutil"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/rotation"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/urb"
)

// State is the drive-control input state machine's current phase.
type State int

const (
	WaitingWheelConfiguration State = iota
	ReadingWheel
	AutonomousDriving
)

// BrakingSlewPerTick is the maximum per-tick increase in synthetic braking
// while waiting for the three-pedal-floor handshake (§4.6).
const BrakingSlewPerTick = 0.01

// rawFull is the HID report's full-scale raw pedal value (10 LSB used).
const rawFull = 1023

// DrivingCommands is the per-tick decoded-and-normalized snapshot consumed
// by the gear state machine, per §3.
type DrivingCommands struct {
	SteeringDeg float64
	Brake       float64
	Throttle    float64
	Clutch      float64
	Buttons     [hid.NumButtons]bool
	DPad        hid.DPad
}

// wheelLinkDebouncer absorbs transient USB re-enumeration blips in the
// host-reported link state. Only the unlink (fallback) edge is debounced: a
// true->false transition must hold quiet for 50 ms before it settles, so a
// brief dropout doesn't kick the controller out of ReadingWheel. The link
// edge (false->true, and the first sample observed) settles immediately —
// there is no reason to delay recognizing a wheel that is actually there.
type wheelLinkDebouncer struct {
	debounced func(func())

	mu      sync.Mutex
	raw     bool
	settled bool
	primed  bool
}

func newWheelLinkDebouncer() *wheelLinkDebouncer {
	return &wheelLinkDebouncer{
		debounced: debounce.New(50 * time.Millisecond),
	}
}

func (w *wheelLinkDebouncer) update(raw bool) bool {
	w.mu.Lock()
	unlinkEdge := false
	switch {
	case !w.primed:
		w.primed = true
		w.raw = raw
		w.settled = raw
	case raw != w.raw:
		w.raw = raw
		if raw {
			w.settled = true
		} else {
			unlinkEdge = true
		}
	}
	settled := w.settled
	w.mu.Unlock()

	if unlinkEdge {
		w.debounced(func() {
			w.mu.Lock()
			if !w.raw {
				w.settled = false
			}
			w.mu.Unlock()
		})
	}
	return settled
}

// Controller owns the drive-control state machine's substate.
type Controller struct {
	HIDSource hid.Source
	USB       *urb.Queue
	Rotation  *rotation.Manager
	Logger    golog.Logger

	state        State
	brakingSlew  *mathutil.SlewLimiter
	buttons      [hid.NumButtons]*button.Classifier
	linkDebounce *wheelLinkDebouncer
}

// New returns a Controller starting in WaitingWheelConfiguration. kinds
// supplies each of the 25 buttons' classifier Kind, in report-bit order.
func New(src hid.Source, usb *urb.Queue, rot *rotation.Manager, kinds [hid.NumButtons]button.Kind, logger golog.Logger) *Controller {
	var classifiers [hid.NumButtons]*button.Classifier
	for i, k := range kinds {
		classifiers[i] = button.New(k, nil)
	}
	return &Controller{
		HIDSource:    src,
		USB:          usb,
		Rotation:     rot,
		Logger:       logger,
		state:        WaitingWheelConfiguration,
		brakingSlew:  mathutil.NewSlewLimiter(0, BrakingSlewPerTick),
		buttons:      classifiers,
		linkDebounce: newWheelLinkDebouncer(),
	}
}

// State returns the controller's current phase.
func (c *Controller) State() State {
	return c.state
}

// ButtonState reports the logical state of button i, after the last Step.
func (c *Controller) ButtonState(i int) bool {
	return c.buttons[i].State()
}

// Step runs one 20 ms tick. vehicleSteerFeedback is the vehicle's reported
// steer angle (feedback.State.Steer), used as the rotation-manager target
// while in AutonomousDriving.
func (c *Controller) Step(vehicleSteerFeedback int16) (DrivingCommands, error) {
	linked := c.linkDebounce.update(c.HIDSource.Linked())

	switch c.state {
	case WaitingWheelConfiguration:
		return c.stepWaiting(linked)
	case ReadingWheel, AutonomousDriving:
		if !linked {
			c.state = WaitingWheelConfiguration
			c.brakingSlew.Reset(0)
			if c.Logger != nil {
				c.Logger.Warnw("wheel unlinked, falling back to waiting state")
			}
			return c.stepWaiting(linked)
		}
		return c.stepReading(vehicleSteerFeedback)
	default:
		return DrivingCommands{}, errors.New("drivecontrol: invalid state")
	}
}

// SetAutonomous switches from ReadingWheel to AutonomousDriving (and back),
// leaving WaitingWheelConfiguration untouched until the wheel re-links.
func (c *Controller) SetAutonomous(autonomous bool) {
	switch c.state {
	case ReadingWheel:
		if autonomous {
			c.state = AutonomousDriving
		}
	case AutonomousDriving:
		if !autonomous {
			c.state = ReadingWheel
		}
	}
}

func (c *Controller) stepWaiting(linked bool) (DrivingCommands, error) {
	var report hid.Report
	var snapErr error
	if linked {
		c.HIDSource.WithCriticalSection(func() {
			r, err := hid.Decode(c.HIDSource.Snapshot())
			report, snapErr = r, err
		})
	}

	floored := linked && snapErr == nil &&
		report.RawBrake >= rawFull && report.RawThrottle >= rawFull && report.RawClutch >= rawFull

	if floored {
		if err := c.runInit(); err != nil {
			return DrivingCommands{}, err
		}
		c.state = ReadingWheel
		c.brakingSlew.Reset(0)
		if c.Logger != nil {
			c.Logger.Infow("wheel configured, entering ReadingWheel")
		}
		return DrivingCommands{}, nil
	}

	brake := c.brakingSlew.Step(1.0)
	return DrivingCommands{Brake: brake, Throttle: 0}, nil
}

func (c *Controller) runInit() error {
	for _, pkt := range ffmanager.InitSequence() {
		if err := c.USB.Enqueue(ffmanager.Pipe, pkt); err != nil {
			return errors.Wrap(err, "ff init enqueue")
		}
	}
	return nil
}

func (c *Controller) stepReading(vehicleSteerFeedback int16) (DrivingCommands, error) {
	var report hid.Report
	var err error
	c.HIDSource.WithCriticalSection(func() {
		report, err = hid.Decode(c.HIDSource.Snapshot())
	})
	if err != nil {
		return DrivingCommands{}, errors.Wrap(err, "hid decode")
	}

	cmd := DrivingCommands{
		SteeringDeg: (float64(report.RawRotation) * 60 / 65535) - 30,
		Brake:       1 - float64(report.RawBrake)/rawFull,
		Throttle:    1 - float64(report.RawThrottle)/rawFull,
		Clutch:      1 - float64(report.RawClutch)/rawFull,
		DPad:        report.DPad,
	}
	for i := range c.buttons {
		cmd.Buttons[i] = c.buttons[i].Update(report.Buttons[i])
	}

	wheelSigned := rotation.ToSigned1024(cmd.SteeringDeg)
	var target float64
	if c.state == AutonomousDriving {
		target = rotation.FeedbackToSigned1024(vehicleSteerFeedback)
	} else {
		target = 0 // neutral centering set-point
	}
	if err := c.Rotation.Step(target, wheelSigned); err != nil {
		return DrivingCommands{}, errors.Wrap(err, "rotation step")
	}

	return cmd, nil
}
