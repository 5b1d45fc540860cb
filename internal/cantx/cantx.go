// Package cantx implements the CAN transmit manager (C12): single-mailbox
// reservation, abort-and-repost on a pending frame, and a bus-occupancy
// high-water mark for diagnostics. The transport boundary is
// CANBusTransport; SocketCANTransport binds it to a real SocketCAN
// interface the way the teacher's newBase bound "can0".
package cantx

import (
	"time"

	"github.com/edaniels/golog"
	"github.com/go-daq/canbus"
	"github.com/pkg/errors"
)

// AbortPollTimeout bounds how long Send waits for a pending frame's abort to
// clear before failing with ErrBusStuck, per §4.9.
const AbortPollTimeout = 2 * time.Millisecond

// MaxConsecutiveFailures is the upper bound callers may use to declare the
// bus non-functional (§4.9).
const MaxConsecutiveFailures = 3

// ErrBusStuck is returned when a pending frame's abort does not complete
// within AbortPollTimeout.
var ErrBusStuck = errors.New("cantx: bus stuck")

// CANBusTransport is the boundary to the (out of scope) CAN peripheral
// driver: posting a frame to the single reserved mailbox, checking whether
// it is still pending, and requesting its abort.
type CANBusTransport interface {
	// Post submits payload to the reserved mailbox.
	Post(id uint32, payload [8]byte) error
	// Pending reports whether the mailbox still holds an unsent frame.
	Pending() bool
	// Abort requests cancellation of the pending frame.
	Abort()
}

// Manager holds the reserved control-frame mailbox and occupancy counters.
type Manager struct {
	Transport CANBusTransport
	FrameID   uint32
	logger    golog.Logger

	occupancyCount   int
	occupancyHighWater int
}

// New returns a Manager posting frames with the given CAN identifier.
func New(transport CANBusTransport, frameID uint32, logger golog.Logger) *Manager {
	return &Manager{Transport: transport, FrameID: frameID, logger: logger}
}

// Send implements §4.9's post/abort-retry algorithm.
func (m *Manager) Send(payload [8]byte) error {
	if !m.Transport.Pending() {
		m.occupancyCount = 0
		return m.Transport.Post(m.FrameID, payload)
	}

	m.occupancyCount++
	if m.occupancyCount > m.occupancyHighWater {
		m.occupancyHighWater = m.occupancyCount
	}

	m.Transport.Abort()
	deadline := time.Now().Add(AbortPollTimeout)
	for time.Now().Before(deadline) {
		if !m.Transport.Pending() {
			return m.Transport.Post(m.FrameID, payload)
		}
	}
	if !m.Transport.Pending() {
		return m.Transport.Post(m.FrameID, payload)
	}
	if m.logger != nil {
		m.logger.Errorw("can tx bus stuck", "occupancy", m.occupancyCount)
	}
	return ErrBusStuck
}

// OccupancyHighWater reports the largest consecutive-occupancy streak seen.
func (m *Manager) OccupancyHighWater() int {
	return m.occupancyHighWater
}

// SocketCANTransport binds CANBusTransport to a real SocketCAN interface,
// mirroring the teacher's newBase (canbus.New / socket.Bind / socket.Send).
type SocketCANTransport struct {
	socket  *canbus.Socket
	pending bool
}

// NewSocketCANTransport opens and binds a SocketCAN interface (e.g. "can0").
func NewSocketCANTransport(channel string) (*SocketCANTransport, error) {
	socket, err := canbus.New()
	if err != nil {
		return nil, errors.Wrap(err, "canbus.New")
	}
	if err := socket.Bind(channel); err != nil {
		return nil, errors.Wrapf(err, "bind %s", channel)
	}
	return &SocketCANTransport{socket: socket}, nil
}

// Post sends payload as a standard-frame, DLC-8 CAN frame.
func (t *SocketCANTransport) Post(id uint32, payload [8]byte) error {
	t.pending = true
	frame := canbus.Frame{
		ID:   id,
		Data: payload[:],
		Kind: canbus.SFF,
	}
	_, err := t.socket.Send(frame)
	t.pending = false
	if err != nil {
		return errors.Wrap(err, "canbus send")
	}
	return nil
}

// Pending reports whether a post is still in flight. The SocketCAN send
// call is synchronous, so this transport never reports a pending frame
// across calls to Send; Abort is a no-op to match.
func (t *SocketCANTransport) Pending() bool {
	return t.pending
}

// Abort is a no-op: the underlying SocketCAN send is synchronous, so there
// is never an outstanding frame to cancel.
func (t *SocketCANTransport) Abort() {}

// Close releases the underlying socket.
func (t *SocketCANTransport) Close() error {
	return t.socket.Close()
}

// FakeTransport is an in-memory CANBusTransport for tests.
type FakeTransport struct {
	PendingFlag bool
	Posted      [][8]byte
	AbortCalls  int
	ClearOnAbort bool
}

func (f *FakeTransport) Post(id uint32, payload [8]byte) error {
	f.Posted = append(f.Posted, payload)
	return nil
}

func (f *FakeTransport) Pending() bool {
	return f.PendingFlag
}

func (f *FakeTransport) Abort() {
	f.AbortCalls++
	if f.ClearOnAbort {
		f.PendingFlag = false
	}
}
