package config

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/jypelle/ledmatrix/internal/matrix"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

const (
	PeriphBackend   = "periph"
	GpiocdevBackend = "gpiocdev"
)

type ServerParam struct {
	Gpio        GpioParam        `yaml:"gpio"`
	Displays    []DisplayParam   `yaml:"displays"`
	Serial      SerialParam      `yaml:"serial"`
	Interpreter InterpreterParam `yaml:"interpreter"`
	ApiParam    ApiParam         `yaml:"api"`
	Status      StatusParam      `yaml:"status"`
	Buttons     []ButtonParam    `yaml:"buttons"`
}

type GpioParam struct {
	Backend string `yaml:"backend"`
	Chip    string `yaml:"chip"`
}

// DisplayParam names the three lines of one panel.
type DisplayParam struct {
	Clock  string `yaml:"clock"`
	Data   string `yaml:"data"`
	Strobe string `yaml:"strobe"`
	Height int    `yaml:"height"`
	Width  int    `yaml:"width"`
}

type SerialParam struct {
	Port             string `yaml:"port"`
	BaudRate         int    `yaml:"baud_rate"`
	PacketSize       int    `yaml:"packet_size"`
	PacketIntervalMs int64  `yaml:"packet_interval_ms"`
	ReadTimeoutMs    int64  `yaml:"read_timeout_ms"`
}

type InterpreterParam struct {
	InstantStrobe bool `yaml:"instant_strobe"`
	Quiet         bool `yaml:"quiet"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

type StatusParam struct {
	Enabled   bool   `yaml:"enabled"`
	I2cBus    string `yaml:"i2c_bus"`
	RefreshMs int64  `yaml:"refresh_ms"`
}

// ButtonParam binds a push button to the command bytes it injects.
type ButtonParam struct {
	Pin  string `yaml:"pin"`
	Send string `yaml:"send"`
}

// Validate checks the parameters that would otherwise surface as hardware
// faults once the lines are driven.
func (p *ServerParam) Validate() error {
	switch p.Gpio.Backend {
	case PeriphBackend:
	case GpiocdevBackend:
		if p.Gpio.Chip == "" {
			return errors.New("gpio: chip is required by the gpiocdev backend")
		}
	default:
		return fmt.Errorf("gpio: unknown backend %q", p.Gpio.Backend)
	}

	if len(p.Displays) < 1 || len(p.Displays) > 2 {
		return fmt.Errorf("displays: expected 1 or 2 panels, got %d", len(p.Displays))
	}
	owner := make(map[string]string)
	for i, d := range p.Displays {
		if d.Height <= 0 || d.Width <= 0 {
			return fmt.Errorf("displays[%d]: invalid dimensions %dx%d", i, d.Width, d.Height)
		}
		if d.Height > matrix.MaxPixels/d.Width {
			return fmt.Errorf("displays[%d]: %dx%d exceeds %d pixels", i, d.Width, d.Height, matrix.MaxPixels)
		}
		for _, l := range []struct{ role, line string }{{"clock", d.Clock}, {"data", d.Data}, {"strobe", d.Strobe}} {
			role, line := l.role, l.line
			if line == "" {
				return fmt.Errorf("displays[%d]: missing %s line", i, role)
			}
			name := fmt.Sprintf("displays[%d].%s", i, role)
			if other, ok := owner[line]; ok {
				return fmt.Errorf("%s: line %s already used by %s", name, line, other)
			}
			owner[line] = name
		}
	}

	if p.Serial.Port == "" {
		return errors.New("serial: port is required")
	}
	if p.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial: invalid baud rate %d", p.Serial.BaudRate)
	}
	if p.Serial.PacketSize <= 0 {
		return fmt.Errorf("serial: invalid packet size %d", p.Serial.PacketSize)
	}

	for i, b := range p.Buttons {
		if b.Pin == "" || b.Send == "" {
			return fmt.Errorf("buttons[%d]: pin and send are required", i)
		}
		name := fmt.Sprintf("buttons[%d]", i)
		if other, ok := owner[b.Pin]; ok {
			return fmt.Errorf("%s: line %s already used by %s", name, b.Pin, other)
		}
		owner[b.Pin] = name
	}

	if p.Status.Enabled && p.Status.RefreshMs <= 0 {
		return fmt.Errorf("status: invalid refresh period %d", p.Status.RefreshMs)
	}

	if p.ApiParam.Enabled {
		if p.ApiParam.SslPort <= 0 || p.ApiParam.SslPort > 65535 {
			return fmt.Errorf("api: invalid ssl port %d", p.ApiParam.SslPort)
		}
		if p.ApiParam.ApiKey == "" {
			return errors.New("api: api key is required")
		}
	}
	return nil
}
