// Package button classifies a raw, debounced digital input into one of four
// press kinds: a plain level mirror, a rising-edge pulse, a toggle-on-press,
// or a long-press toggle latched until release.
package button

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Kind selects how a Classifier turns raw presses into logical state. The
// source modeled this with a function-pointer per button; a tagged kind is
// the same dispatch without the indirection.
type Kind int

const (
	// Base mirrors the raw input directly: state == raw.
	Base Kind = iota
	// Edge pulses state to 1 for exactly one tick on a 0->1 transition.
	Edge
	// Level toggles state on every 0->1 transition.
	Level
	// Long toggles state only once the raw input has been held for at
	// least LongPressThreshold, and latches the toggle until release.
	Long
)

// LongPressThreshold is the minimum hold duration for a Long button to
// register a press, matching BUTTON_LONG_PRESSING_WAITING_TIME in the
// source firmware.
const LongPressThreshold = 1000 * time.Millisecond

// LongState is the long-press sub-state machine's current phase.
type LongState int

const (
	NotPressed LongState = iota
	Pressing
	StateChanged
)

// Classifier holds one physical button's debounced state. The zero value is
// a usable Base classifier at rest; construct with New for other kinds.
type Classifier struct {
	kind  Kind
	clock clock.Clock

	rawCurrent  bool
	rawPrevious bool
	state       bool

	longState   LongState
	pressStart  time.Time
}

// New returns a Classifier of the given kind. clk may be nil, in which case
// the real wall clock is used; tests pass a clock.NewMock() for determinism.
func New(kind Kind, clk clock.Clock) *Classifier {
	if clk == nil {
		clk = clock.New()
	}
	return &Classifier{kind: kind, clock: clk}
}

// State reports the classifier's current logical state.
func (c *Classifier) State() bool {
	return c.state
}

// LongState reports the long-press sub-state; meaningful only for Kind Long.
func (c *Classifier) LongState() LongState {
	return c.longState
}

// Update feeds one tick's raw sample through the classifier and returns the
// resulting logical state.
func (c *Classifier) Update(raw bool) bool {
	c.rawPrevious = c.rawCurrent
	c.rawCurrent = raw

	switch c.kind {
	case Base:
		c.state = raw
	case Edge:
		c.state = raw && !c.rawPrevious
	case Level:
		if raw && !c.rawPrevious {
			c.state = !c.state
		}
	case Long:
		c.updateLong(raw)
	}
	return c.state
}

func (c *Classifier) updateLong(raw bool) {
	switch c.longState {
	case NotPressed:
		if raw {
			c.pressStart = c.clock.Now()
			c.longState = Pressing
		}
	case Pressing:
		if !raw {
			c.longState = NotPressed
			return
		}
		if c.clock.Now().Sub(c.pressStart) >= LongPressThreshold {
			c.state = !c.state
			c.longState = StateChanged
		}
	case StateChanged:
		if !raw {
			c.longState = NotPressed
		}
	}
}
