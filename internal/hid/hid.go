// Package hid decodes the Thrustmaster T818's 64-byte USB HID IN report
// into a typed snapshot of its raw values: wheel rotation, pedal positions,
// the 25 button bits, and the D-pad. Normalization is left to the caller.
package hid

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// VendorID and ProductID identify the T818 on the USB bus, per §6.
const (
	VendorID  = 1103
	ProductID = 46742
)

// ReportSize is the fixed HID IN report length.
const ReportSize = 64

// ErrShortReport is returned when a report shorter than ReportSize is
// presented to Decode.
var ErrShortReport = errors.New("hid: short report")

// DPad is the 8-way D-pad position decoded from the report's low nibble at
// byte 19.
type DPad byte

const (
	DPadUp DPad = iota
	DPadUpRight
	DPadRight
	DPadDownRight
	DPadDown
	DPadDownLeft
	DPadLeft
	DPadUpLeft
	DPadNone DPad = 15
)

// NumButtons is the number of physical button bits packed into bytes 15-18.
const NumButtons = 25

// Report is the decoded, still-raw contents of one HID IN report: callers
// (internal/drivecontrol) apply the §4.6 normalization and feed Buttons
// through internal/button classifiers.
type Report struct {
	RawRotation uint16
	RawBrake    uint16
	RawThrottle uint16
	RawClutch   uint16
	Buttons     [NumButtons]bool
	DPad        DPad
}

// Source is the boundary to the (out of scope) USB host stack and HID
// parser: it supplies the latest raw report, snapshotted under a critical
// section to avoid tearing against the transfer-complete callback.
type Source interface {
	// Linked reports whether the wheel's HID class is currently attached
	// and polling (host class state in {POLL, GET_DATA}).
	Linked() bool
	// WithCriticalSection runs f with the report-producing interrupt
	// briefly disabled, guaranteeing f sees a non-torn snapshot.
	WithCriticalSection(f func())
	// Snapshot returns the most recently received raw report bytes. Must
	// only be called from within WithCriticalSection.
	Snapshot() []byte
}

// Decode parses a raw HID report per the §6 field layout. Reports shorter
// than ReportSize fail with ErrShortReport.
func Decode(raw []byte) (Report, error) {
	if len(raw) < ReportSize {
		return Report{}, ErrShortReport
	}
	var r Report
	r.RawRotation = binary.LittleEndian.Uint16(raw[1:3])
	r.RawBrake = binary.LittleEndian.Uint16(raw[3:5]) & 0x03FF
	r.RawThrottle = binary.LittleEndian.Uint16(raw[5:7]) & 0x03FF
	r.RawClutch = binary.LittleEndian.Uint16(raw[7:9]) & 0x03FF

	bits := raw[15:19]
	for i := 0; i < NumButtons; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		r.Buttons[i] = bits[byteIdx]&(1<<bitIdx) != 0
	}

	r.DPad = DPad(raw[19] & 0x0F)
	return r, nil
}
