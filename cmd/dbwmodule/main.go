// Command dbwmodule is the Viam custom-module server for the T818 DBW
// bridge control core: it registers a generic.Generic resource backed by
// internal/bridge and serves it over the module protocol, the same
// boilerplate shape as the teacher's intermode base module.
package main

import (
	"context"
	"flag"

	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	"go.viam.com/rdk/components/generic"
	"go.viam.com/rdk/config"
	"go.viam.com/rdk/module"
	"go.viam.com/rdk/registry"
	"go.viam.com/rdk/resource"

	"github.com/pixmoving-robotics/t818-dbw-core/internal/bridge"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/cantx"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/hid"
	"github.com/pixmoving-robotics/t818-dbw-core/internal/urb"
)

var model = resource.NewModel("pixmoving", "dbw", "t818-bridge")

// boilerplate to make this exist as a component.
func init() {
	registry.RegisterComponent(
		generic.Subtype,
		model,
		registry.Component{Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			cfg config.Component,
			logger golog.Logger,
		) (interface{}, error) {
			return newResource(ctx, cfg.Name, cfg.Attributes, logger)
		}})
}

// fakeFlag forces every external boundary to its Fake implementation, for
// development without a wheel or CAN bus attached.
var fakeFlag = flag.Bool("fake", false, "run against fake USB/CAN transports")

func main() {
	goutils.ContextualMain(mainWithArgs, golog.NewDevelopmentLogger("dbwmodule"))
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) (err error) {
	flag.CommandLine.Parse(args[1:])

	dbwModule, err := module.NewModuleFromArgs(ctx, logger)
	if err != nil {
		return err
	}
	dbwModule.AddModelFromRegistry(ctx, generic.Subtype, model)

	err = dbwModule.Start(ctx)
	defer dbwModule.Close(ctx)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// newResource builds and starts a bridge.Bridge, wiring the USB/CAN
// boundary interfaces to fakes when attrs requests it (or the process-wide
// -fake flag is set). Otherwise CAN gets the SocketCAN adapter and the USB
// side still gets the fakes, reported unlinked.
func newResource(ctx context.Context, name string, attrs config.AttributeMap, logger golog.Logger) (generic.Generic, error) {
	cfg := bridge.ConfigFromAttributes(attrs)
	if *fakeFlag {
		cfg.Fake = true
	}

	var hidSource hid.Source
	var usbTransport urb.USBTransport
	var canTransport cantx.CANBusTransport

	if cfg.Fake {
		hidSource = &hid.FakeSource{LinkedFlag: true}
		usbTransport = &urb.FakeUSBTransport{LinkedFlag: true}
		canTransport = &cantx.FakeTransport{}
	} else {
		socketCAN, err := cantx.NewSocketCANTransport(cfg.CANChannel)
		if err != nil {
			return nil, err
		}
		canTransport = socketCAN
		// The USB host stack and HID report parser are external
		// collaborators out of scope for this repository (spec.md §1);
		// without a hardware adapter shipped here, non-fake runs still
		// need a boundary implementation, so fall back to the fakes with
		// the wheel reported unlinked until one is wired in.
		hidSource = &hid.FakeSource{LinkedFlag: false}
		usbTransport = &urb.FakeUSBTransport{LinkedFlag: false}
	}

	b, err := bridge.New(name, cfg, hidSource, usbTransport, canTransport, logger)
	if err != nil {
		return nil, err
	}
	b.Start(ctx)
	return b, nil
}
