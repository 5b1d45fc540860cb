package diagnostics

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/gear"
)

func TestSnapshotMarshalsToJSON(t *testing.T) {
	s := Snapshot{
		SessionID:  "abc-123",
		GearState:  GearStateName(gear.Drive),
		URBQueueDepth: 3,
	}
	b, err := json.Marshal(s)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(b) > 0, test.ShouldBeTrue)
}

func TestGearStateName(t *testing.T) {
	test.That(t, GearStateName(gear.Parking), test.ShouldEqual, "PARKING")
}
