// Package urb implements the bounded FIFO of outbound USB interrupt
// transfers to the T818's force-feedback engine, and the 2 ms drain loop
// that serializes them against the host stack's per-pipe transfer state.
package urb

import (
	"sync"

	"github.com/pkg/errors"
)

// Capacity is the maximum number of queued-but-unsent messages, matching the
// source's statically sized queue.
const Capacity = 40

// MessageSize is the fixed USB interrupt packet size.
const MessageSize = 64

// ErrQueueFull is returned by Enqueue when the FIFO is at Capacity.
var ErrQueueFull = errors.New("urb queue full")

// TransferState is the host stack's reported state for a pipe's in-flight
// transfer.
type TransferState int

const (
	StateIdle TransferState = iota
	StateBusy
	StateDone
)

// USBTransport is the boundary to the (out of scope) USB host stack: it
// reports per-pipe transfer state and performs the actual interrupt-OUT
// submission. Production code binds this to the real host stack; tests and
// `-fake` runs use FakeUSBTransport.
type USBTransport interface {
	// Linked reports whether the wheel's HID class is attached and polling.
	Linked() bool
	// PipeState reports the current transfer state of the given pipe.
	PipeState(pipe int) TransferState
	// Submit issues the interrupt-OUT transfer; it must not block past the
	// submission call itself.
	Submit(pipe int, msg [MessageSize]byte) error
}

type entry struct {
	pipe int
	msg  [MessageSize]byte
}

// Queue is a single-producer, single-consumer bounded FIFO of pending URB
// messages, protected by a mutex held only across slice mutation.
type Queue struct {
	mu    sync.Mutex
	items []entry
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{items: make([]entry, 0, Capacity)}
}

// Enqueue appends msg for pipe. It fails with ErrQueueFull once Capacity
// messages are pending; the caller discards on failure per §4.5.
func (q *Queue) Enqueue(pipe int, msg [MessageSize]byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= Capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, entry{pipe: pipe, msg: msg})
	return nil
}

// Len reports the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) peek() (entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return entry{}, false
	}
	return q.items[0], true
}

func (q *Queue) dequeue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	q.items = q.items[1:]
}

// Sender drains Queue at the URB task's rate, one entry per tick, honoring
// pipe busy/idle state and wheel-link status.
type Sender struct {
	Queue     *Queue
	Transport USBTransport
}

// NewSender returns a Sender draining q against transport.
func NewSender(q *Queue, transport USBTransport) *Sender {
	return &Sender{Queue: q, Transport: transport}
}

// Tick runs one 2 ms step of §4.5's drain algorithm.
func (s *Sender) Tick() error {
	head, ok := s.Queue.peek()
	if !ok {
		return nil
	}
	if !s.Transport.Linked() {
		return nil
	}
	switch s.Transport.PipeState(head.pipe) {
	case StateDone, StateIdle:
		if err := s.Transport.Submit(head.pipe, head.msg); err != nil {
			return errors.Wrap(err, "urb submit")
		}
		s.Queue.dequeue()
	default:
		// pipe busy: leave the head in place, retry next tick.
	}
	return nil
}
