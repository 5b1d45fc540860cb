// Package gear implements the PARKING/RETRO/NEUTRAL/DRIVE state machine and
// its per-state CAN output rules (§4.7). Wire-level gear_shift/mode
// constants are carried over from the source firmware's auto_control.h,
// including its disagreement between PARK and NEUTRAL sharing the value 2
// on the later revision spec.md directs this package to follow (§9).
package gear

import (
	"math"

	"github.com/edaniels/golog"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/cancodec"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/mathutil"
)

// State is one of the four gear states.
type State int

const (
	Parking State = iota
	Retro
	Neutral
	Drive
)

func (s State) String() string {
	switch s {
	case Parking:
		return "PARKING"
	case Retro:
		return "RETRO"
	case Neutral:
		return "NEUTRAL"
	case Drive:
		return "DRIVE"
	default:
		return "UNKNOWN"
	}
}

// Wire-level gear_shift / mode_selection values, per auto_control.h as
// resolved by spec.md §9 (the later, more-documented revision).
const (
	GearShiftPark    byte = 2
	GearShiftDrive   byte = 1
	GearShiftRetro   byte = 3
	GearShiftNeutral byte = 2
	ModeSelectField  byte = 2
)

// ParkingEnableThreshold is the |speed| below which a transition into
// PARKING from a moving state is permitted.
const ParkingEnableThreshold = 10

// Buttons is the per-tick button state the transition function consults,
// read in GearUp, GearDown/Neutral, Parking priority order when more than
// one is pressed in the same tick (§4.7 "ties").
type Buttons struct {
	GearUp   bool
	GearDown bool
	Neutral  bool
	Parking  bool
}

// Inputs bundles the per-tick values the output rules need beyond the
// current gear state.
type Inputs struct {
	BrakeModule    float64 // 0..1
	ThrottleModule float64 // 0..1
	WheelDeg       float64 // -30..30
	FeedbackSpeed  int16   // from feedback.State.Speed

	RightLight bool
	LeftLight  bool
	FrontLight bool
}

// Machine owns the current gear state and the speed slew limiter shared by
// RETRO/DRIVE's output rule.
type Machine struct {
	state       State
	speedSlew   *mathutil.SlewLimiter
	logger      golog.Logger
}

// New returns a Machine starting in PARKING.
func New(logger golog.Logger) *Machine {
	return &Machine{
		state:     Parking,
		speedSlew: mathutil.NewSlewLimiter(0, 100),
		logger:    logger,
	}
}

// State returns the current gear state.
func (m *Machine) State() State {
	return m.state
}

// parkingEnabled is the P predicate from §4.7's transition table.
func parkingEnabled(feedbackSpeed int16) bool {
	s := feedbackSpeed
	if s < 0 {
		s = -s
	}
	return s < ParkingEnableThreshold
}

// Step runs one 20 ms tick: output rules for the current state, then the
// transition function, per §4.7 ("output rules execute first, then the
// transition function runs").
func (m *Machine) Step(in Inputs, b Buttons) cancodec.ControlData {
	out := m.output(in)
	next := m.transition(b, in.FeedbackSpeed)
	if next != m.state {
		if m.logger != nil {
			m.logger.Debugw("gear transition", "from", m.state.String(), "to", next.String())
		}
		m.state = next
	}
	return out
}

func (m *Machine) output(in Inputs) cancodec.ControlData {
	d := cancodec.ControlData{
		SelfDriving:   true,
		AdvancedMode:  false,
		StateControl:  false,
		SpeedMode:     false,
		LeftLight:     in.LeftLight,
		RightLight:    in.RightLight,
		FrontLight:    in.FrontLight,
		ModeSelection: ModeSelectField,
		Steering:      int16(math.Round(mathutil.Clamp(mathutil.Map(in.WheelDeg, -30, 30, -1024, 1024), -1024, 1024))),
	}

	switch m.state {
	case Parking:
		d.EBP = true
		d.GearShift = GearShiftPark
		d.Braking = 1024
		d.Speed = 0
	case Neutral:
		d.EBP = false
		d.GearShift = GearShiftNeutral
		d.Braking = uint16(math.Round(mathutil.Clamp(in.BrakeModule*1024, 0, 1024)))
		d.Speed = 0
	case Retro, Drive:
		d.EBP = false
		if m.state == Retro {
			d.GearShift = GearShiftRetro
		} else {
			d.GearShift = GearShiftDrive
		}
		d.Braking = uint16(math.Round(mathutil.Clamp(in.BrakeModule*1024, 0, 1024)))
		if d.Braking > 0 {
			d.Speed = 0
			m.speedSlew.Reset(0)
		} else {
			target := mathutil.Clamp(in.ThrottleModule*1024, 0, 1024)
			d.Speed = uint16(math.Round(mathutil.Clamp(m.speedSlew.Step(target), 0, 1024)))
		}
	}
	return d
}

func (m *Machine) transition(b Buttons, feedbackSpeed int16) State {
	p := parkingEnabled(feedbackSpeed)
	switch m.state {
	case Parking:
		switch {
		case b.GearUp:
			return Retro
		case b.GearDown:
			return Parking
		case b.Neutral:
			return Neutral
		case b.Parking:
			return Parking
		}
		return Parking
	case Retro:
		switch {
		case b.GearUp:
			return Neutral
		case b.GearDown:
			if p {
				return Parking
			}
			return Retro
		case b.Neutral:
			return Neutral
		case b.Parking:
			if p {
				return Parking
			}
			return Retro
		}
		return Retro
	case Neutral:
		switch {
		case b.GearUp:
			return Drive
		case b.GearDown:
			return Retro
		case b.Neutral:
			return Neutral
		case b.Parking:
			if p {
				return Parking
			}
			return Neutral
		}
		return Neutral
	case Drive:
		switch {
		case b.GearUp:
			return Drive
		case b.GearDown:
			return Neutral
		case b.Neutral:
			return Neutral
		case b.Parking:
			if p {
				return Parking
			}
			return Drive
		}
		return Drive
	}
	return m.state
}
