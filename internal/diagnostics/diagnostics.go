// Package diagnostics builds the point-in-time, JSON-serializable snapshot
// exposed through the module's "status" DoCommand (§4.11, new relative to
// the original firmware, which only exposed state via a debugger probe).
package diagnostics

import "github.com/pixmoving-robotics/t818-dbw-core/internal/gear"

// Snapshot is a read-only view of the bridge's current state, safe to
// marshal to JSON and return to a DoCommand caller.
type Snapshot struct {
	SessionID string `json:"session_id"`

	GearState        string `json:"gear_state"`
	DriveControlState string `json:"drive_control_state"`

	FeedbackSpeed   int16 `json:"feedback_speed"`
	FeedbackSteer   int16 `json:"feedback_steer"`
	FeedbackBraking uint16 `json:"feedback_braking"`

	URBQueueDepth int `json:"urb_queue_depth"`

	CANOccupancyHighWater int `json:"can_occupancy_high_water"`

	FFError  float64 `json:"ff_error"`
	FFOutput float64 `json:"ff_output"`
}

// GearStateName renders a gear.State the way the snapshot serializes it.
func GearStateName(s gear.State) string {
	return s.String()
}
