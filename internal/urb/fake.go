package urb

// FakeUSBTransport is a USBTransport that immediately accepts every
// submission, used by tests and by cmd/dbwmodule's -fake mode.
type FakeUSBTransport struct {
	LinkedFlag bool
	Submitted  [][MessageSize]byte
}

func (f *FakeUSBTransport) Linked() bool { return f.LinkedFlag }

func (f *FakeUSBTransport) PipeState(pipe int) TransferState {
	return StateDone
}

func (f *FakeUSBTransport) Submit(pipe int, msg [MessageSize]byte) error {
	f.Submitted = append(f.Submitted, msg)
	return nil
}
