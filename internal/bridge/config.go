package bridge

import (
	"github.com/pkg/errors"
	"go.viam.com/rdk/config"
)

// Config is the component's tunable configuration, populated from
// config.Component.Attributes the way the rest of the go.viam.com/rdk
// component tree (e.g. components/motor/gpio) does for its tunables.
type Config struct {
	// CANChannel is the SocketCAN interface name, e.g. "can0".
	CANChannel string `json:"can_channel"`

	// Kp, Ki, Kd are the rotation-manager PID gains.
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
	// OutMin, OutMax clamp the PID output, fed to FF as a constant-force
	// command.
	OutMin float64 `json:"out_min"`
	OutMax float64 `json:"out_max"`

	// Fake runs the bridge against cantx.FakeTransport/hid.FakeSource/
	// urb.FakeUSBTransport instead of real hardware, for development without a
	// wheel or CAN bus attached.
	Fake bool `json:"fake"`
}

// DefaultConfig returns the tuned constants the source firmware ships with
// (kp≈5.5, ki=0, kd≈4000, saturation ±32766, per §4.2).
func DefaultConfig() Config {
	return Config{
		CANChannel: "can0",
		Kp:         5.5,
		Ki:         0,
		Kd:         4000,
		OutMin:     -32766,
		OutMax:     32766,
	}
}

// Validate checks the config, matching the Config.Validate(path) ([]string,
// error) shape used across rdk components. It does not fill in defaults;
// ConfigFromAttributes does that.
func (c *Config) Validate(path string) ([]string, error) {
	if c.CANChannel == "" && !c.Fake {
		return nil, errors.Errorf("%s: can_channel is required unless fake is set", path)
	}
	if c.OutMin >= c.OutMax {
		return nil, errors.Errorf("%s: out_min must be less than out_max", path)
	}
	return nil, nil
}

// ConfigFromAttributes populates a Config from a component's raw
// AttributeMap, starting from DefaultConfig for any field left unset.
func ConfigFromAttributes(attrs config.AttributeMap) Config {
	c := DefaultConfig()
	if attrs == nil {
		return c
	}
	c.CANChannel = attrs.String("can_channel")
	if c.CANChannel == "" {
		c.CANChannel = "can0"
	}
	c.Fake = attrs.Bool("fake", false)
	c.Kp = attrs.Float64("kp", c.Kp)
	c.Ki = attrs.Float64("ki", c.Ki)
	c.Kd = attrs.Float64("kd", c.Kd)
	c.OutMin = attrs.Float64("out_min", c.OutMin)
	c.OutMax = attrs.Float64("out_max", c.OutMax)
	return c
}
