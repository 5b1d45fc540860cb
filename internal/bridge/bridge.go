// Package bridge wires components C1-C12 into the two periodic tasks
// described by §5 (a 20 ms state tick and a 2 ms URB tick) and exposes the
// result as a DoCommand-only resource, generalizing the teacher's single
// newBase/publishThread CAN publisher to the full control core.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/button"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/cancodec"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/cantx"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/diagnostics"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/drivecontrol"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/feedback"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/gear"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/hid"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/pid"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/rotation"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/urb"
)

// StateTickPeriod is the 20 ms state-task period (§5).
const StateTickPeriod = 20 * time.Millisecond

// URBTickPeriod is the 2 ms URB-task period (§5).
const URBTickPeriod = 2 * time.Millisecond

// ErrBusFaulted is returned once the count of consecutive BusStuck sends
// exceeds cantx.MaxConsecutiveFailures; the outer scheduler is responsible for
// reporting it externally (§7).
var ErrBusFaulted = errors.New("bridge: can bus declared non-functional")

// defaultButtonKinds assigns each of the 25 HID buttons a classifier Kind.
// The four gear buttons are edge-triggered (one action per press), the three
// light buttons toggle on each press (Level), the autonomous button is a
// long press (Long), and the rest default to Base.
func defaultButtonKinds() [hid.NumButtons]button.Kind {
	var kinds [hid.NumButtons]button.Kind
	kinds[ButtonGearUp] = button.Edge
	kinds[ButtonGearDown] = button.Edge
	kinds[ButtonNeutral] = button.Edge
	kinds[ButtonParking] = button.Edge
	kinds[ButtonLeftLight] = button.Level
	kinds[ButtonRightLight] = button.Level
	kinds[ButtonFrontLight] = button.Level
	kinds[ButtonAutonomous] = button.Long
	return kinds
}

// Button indices into the 25-bit report, per the source firmware's button
// table (§4.1).
const (
	ButtonGearUp = iota
	ButtonGearDown
	ButtonNeutral
	ButtonParking
	ButtonLeftLight
	ButtonRightLight
	ButtonFrontLight
	ButtonAutonomous
)

// Bridge owns every subcomponent and the two periodic tasks that drive
// them.
type Bridge struct {
	name      string
	logger    golog.Logger
	sessionID string

	cfg Config

	gearMachine  *gear.Machine
	driveControl *drivecontrol.Controller
	canManager   *cantx.Manager
	feedbackBox  *feedback.Box
	urbQueue     *urb.Queue
	urbSender    *urb.Sender
	pidCtrl      *pid.PID

	hidSource hid.Source
	usbTrans  urb.USBTransport
	canTrans  cantx.CANBusTransport

	clock clock.Clock

	mu                    sync.Mutex
	lastConsecutiveStuck  int

	cancel                  func()
	activeBackgroundWorkers sync.WaitGroup
}

// New builds a Bridge from cfg, wiring C1-C12. hidSource/usbTransport are
// the USB host-stack boundary (§6); canTransport is the CAN boundary.
// cmd/dbwmodule passes hid.FakeSource/urb.FakeUSBTransport for the USB side
// in every run (reported unlinked unless cfg.Fake is set), and a SocketCAN
// adapter for CAN unless cfg.Fake is set.
func New(
	name string,
	cfg Config,
	hidSource hid.Source,
	usbTransport urb.USBTransport,
	canTransport cantx.CANBusTransport,
	logger golog.Logger,
) (*Bridge, error) {
	if hidSource == nil || usbTransport == nil || canTransport == nil {
		return nil, errors.New("bridge: nil dependency")
	}

	sessionID := uuid.NewString()
	logger = logger.With("session_id", sessionID)

	queue := urb.NewQueue()
	p := pid.New(cfg.Kp, cfg.Ki, cfg.Kd, cfg.OutMin, cfg.OutMax)
	rot := rotation.New(p, queue)
	dc := drivecontrol.New(hidSource, queue, rot, defaultButtonKinds(), logger)

	b := &Bridge{
		name:         name,
		logger:       logger,
		sessionID:    sessionID,
		cfg:          cfg,
		gearMachine:  gear.New(logger),
		driveControl: dc,
		canManager:   cantx.New(canTransport, cancodec.ControlFrameID, logger),
		feedbackBox:  feedback.NewBox(),
		urbQueue:     queue,
		urbSender:    urb.NewSender(queue, usbTransport),
		pidCtrl:      p,
		hidSource:    hidSource,
		usbTrans:     usbTransport,
		canTrans:     canTransport,
		clock:        clock.New(),
	}
	return b, nil
}

// Start launches the state task and URB task as goutils.ManagedGo workers,
// the same idiom the teacher used for its single publishThread.
func (b *Bridge) Start(ctx context.Context) {
	cancelCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() {
		b.stateTaskLoop(cancelCtx)
	}, b.activeBackgroundWorkers.Done)

	b.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() {
		b.urbTaskLoop(cancelCtx)
	}, b.activeBackgroundWorkers.Done)
}

func (b *Bridge) stateTaskLoop(ctx context.Context) {
	ticker := b.clock.Ticker(StateTickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.stateTick(); err != nil {
				b.logger.Errorw("state tick error", "error", err)
			}
		}
	}
}

func (b *Bridge) urbTaskLoop(ctx context.Context) {
	ticker := b.clock.Ticker(URBTickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.urbSender.Tick(); err != nil {
				b.logger.Errorw("urb tick error", "error", err)
			}
		}
	}
}

// stateTick runs one 20 ms cycle: C11-decode(RX) is assumed already applied
// to feedbackBox by the CAN RX path, then C7-step -> C10-step -> C11-encode
// -> C12-send.
func (b *Bridge) stateTick() error {
	fb := b.feedbackBox.Load()

	cmds, err := b.driveControl.Step(fb.Steer)
	if err != nil {
		return errors.Wrap(err, "drive control step")
	}
	b.driveControl.SetAutonomous(cmds.Buttons[ButtonAutonomous])

	in := gearInputsFrom(cmds, fb)
	buttons := gearButtonsFrom(cmds)

	out := b.gearMachine.Step(in, buttons)
	frame := cancodec.Encode(out)

	if err := b.canManager.Send(frame); err != nil {
		if errors.Is(err, cantx.ErrBusStuck) {
			b.mu.Lock()
			b.lastConsecutiveStuck++
			stuck := b.lastConsecutiveStuck
			b.mu.Unlock()
			if stuck > cantx.MaxConsecutiveFailures {
				return ErrBusFaulted
			}
			return nil
		}
		return errors.Wrap(err, "can send")
	}
	b.mu.Lock()
	b.lastConsecutiveStuck = 0
	b.mu.Unlock()
	return nil
}

func gearInputsFrom(cmds drivecontrol.DrivingCommands, fb feedback.State) gear.Inputs {
	return gear.Inputs{
		BrakeModule:    cmds.Brake,
		ThrottleModule: cmds.Throttle,
		WheelDeg:       cmds.SteeringDeg,
		FeedbackSpeed:  fb.Speed,
		RightLight:     cmds.Buttons[ButtonRightLight],
		LeftLight:      cmds.Buttons[ButtonLeftLight],
		FrontLight:     cmds.Buttons[ButtonFrontLight],
	}
}

func gearButtonsFrom(cmds drivecontrol.DrivingCommands) gear.Buttons {
	return gear.Buttons{
		GearUp:   cmds.Buttons[ButtonGearUp],
		GearDown: cmds.Buttons[ButtonGearDown],
		Neutral:  cmds.Buttons[ButtonNeutral],
		Parking:  cmds.Buttons[ButtonParking],
	}
}

// OnCANFrame feeds a received AutoDataFeedback frame into the shared
// feedback box; called from the CAN RX interrupt context (§5).
func (b *Bridge) OnCANFrame(payload []byte) error {
	s, err := cancodec.DecodeFeedback(payload)
	if err != nil {
		return err
	}
	b.feedbackBox.Store(s)
	return nil
}

// DoCommand implements the free-form command surface. Supported commands:
// {"command":"status"} returns a diagnostics.Snapshot; {"command":
// "set_autonomous","value":bool} toggles AutonomousDriving, the same
// transition the cockpit's long-press autonomous button drives. The button's
// toggled state is applied again on every state tick, so a set_autonomous
// value that differs from it holds only until the next tick.
func (b *Bridge) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	name, ok := cmd["command"]
	if !ok {
		return nil, errors.New("missing 'command' value")
	}
	switch name {
	case "status":
		return b.statusCommand()
	case "set_autonomous":
		v, _ := cmd["value"].(bool)
		b.driveControl.SetAutonomous(v)
		return map[string]interface{}{"ok": true}, nil
	default:
		return nil, errors.Errorf("no such command: %v", name)
	}
}

func (b *Bridge) statusCommand() (map[string]interface{}, error) {
	fb := b.feedbackBox.Load()
	snap := diagnostics.Snapshot{
		SessionID:             b.sessionID,
		GearState:             diagnostics.GearStateName(b.gearMachine.State()),
		DriveControlState:     driveControlStateName(b.driveControl.State()),
		FeedbackSpeed:         fb.Speed,
		FeedbackSteer:         fb.Steer,
		FeedbackBraking:       fb.Braking,
		URBQueueDepth:         b.urbQueue.Len(),
		CANOccupancyHighWater: b.canManager.OccupancyHighWater(),
		FFError:               b.pidCtrl.LastError(),
		FFOutput:              b.pidCtrl.LastOutput(),
	}
	return map[string]interface{}{
		"session_id":               snap.SessionID,
		"gear_state":               snap.GearState,
		"drive_control_state":      snap.DriveControlState,
		"feedback_speed":           snap.FeedbackSpeed,
		"feedback_steer":           snap.FeedbackSteer,
		"feedback_braking":         snap.FeedbackBraking,
		"urb_queue_depth":          snap.URBQueueDepth,
		"can_occupancy_high_water": snap.CANOccupancyHighWater,
		"ff_error":                 snap.FFError,
		"ff_output":                snap.FFOutput,
	}, nil
}

func driveControlStateName(s drivecontrol.State) string {
	switch s {
	case drivecontrol.WaitingWheelConfiguration:
		return "WaitingWheelConfiguration"
	case drivecontrol.ReadingWheel:
		return "ReadingWheel"
	case drivecontrol.AutonomousDriving:
		return "AutonomousDriving"
	default:
		return "Unknown"
	}
}

// Close cancels both background tasks and waits for them to exit, matching
// the teacher's Close.
func (b *Bridge) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	b.activeBackgroundWorkers.Wait()
}

