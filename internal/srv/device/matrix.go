package device

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jypelle/ledmatrix/internal/matrix"
	"github.com/jypelle/ledmatrix/internal/protocol"
	"github.com/jypelle/ledmatrix/internal/srv/config"
	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrNotSimulated is returned for frame requests on real hardware.
var ErrNotSimulated = errors.New("frames are only available in simulation mode")

// Matrix owns the output lines of the panels and their drivers.
type Matrix struct {
	serverConfig *config.ServerConfig

	displays   []*matrix.LedMatrix
	simulators []*matrix.Simulator
	chip       *gpiocdev.Chip
	lines      []io.Closer
}

func NewMatrix(serverConfig *config.ServerConfig) *Matrix {
	if !serverConfig.SimulationMode && serverConfig.Gpio.Backend == config.PeriphBackend {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize periph host: %v", err)
		}
	}

	return &Matrix{
		serverConfig: serverConfig,
	}
}

func (d *Matrix) Start() {
	logrus.Infof("Start matrix device")

	for i, param := range d.serverConfig.Displays {
		var clock, data, strobe matrix.Pin
		if d.serverConfig.SimulationMode {
			sim := matrix.NewSimulator(param.Height, param.Width)
			d.simulators = append(d.simulators, sim)
			clock, data, strobe = sim.Clock(), sim.Data(), sim.Strobe()
		} else {
			clock = d.openLine(param.Clock)
			data = d.openLine(param.Data)
			strobe = d.openLine(param.Strobe)
		}

		display, err := matrix.New(clock, data, strobe, param.Height, param.Width)
		if err != nil {
			logrus.Fatalf("Unable to create display %d: %v", i, err)
		}
		logrus.Infof("Display %d: %d columns of %d rows (clock %s, data %s, strobe %s)", i, display.Width(), display.Height(), param.Clock, param.Data, param.Strobe)

		// Start from a known blank panel
		display.Clear()
		display.Show()
		d.displays = append(d.displays, display)
	}
}

func (d *Matrix) Stop() {
	logrus.Infof("Stop matrix device")

	for _, display := range d.displays {
		display.Clear()
		display.Show()
	}
	for _, line := range d.lines {
		if err := line.Close(); err != nil {
			logrus.Warnf("Unable to release line: %v", err)
		}
	}
	d.lines = nil
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			logrus.Warnf("Unable to close %s: %v", d.serverConfig.Gpio.Chip, err)
		}
		d.chip = nil
	}
}

// Display returns the driver of a panel, or nil when that panel is not
// connected.
func (d *Matrix) Display(id protocol.DisplayId) protocol.Display {
	if id < 0 || int(id) >= len(d.displays) {
		return nil
	}
	return d.displays[id]
}

// Frame renders the latched frame of a simulated panel.
func (d *Matrix) Frame(id protocol.DisplayId) (string, bool) {
	if id < 0 || int(id) >= len(d.simulators) {
		return "", false
	}
	return d.simulators[id].Render(), true
}

func (d *Matrix) openLine(name string) matrix.Pin {
	switch d.serverConfig.Gpio.Backend {
	case config.GpiocdevBackend:
		line, err := d.requestCdevLine(name)
		if err != nil {
			logrus.Fatalf("Unable to request line %s: %v", name, err)
		}
		d.lines = append(d.lines, line)
		return line
	default:
		pin := gpioreg.ByName(name)
		if pin == nil {
			logrus.Fatalf("Failed to find %s line", name)
		}
		if err := pin.Out(gpio.Low); err != nil {
			logrus.Fatalf("Failed to setup %s line: %v", name, err)
		}
		return pin
	}
}

// cdevLine drives a line requested from the GPIO character device.
type cdevLine struct {
	name string
	line *gpiocdev.Line
}

// requestCdevLine requests a line of the configured chip by offset, or by
// name when name is not a number.
func (d *Matrix) requestCdevLine(name string) (*cdevLine, error) {
	if d.chip == nil {
		chip, err := gpiocdev.NewChip(d.serverConfig.Gpio.Chip, gpiocdev.WithConsumer("ledmatrix"))
		if err != nil {
			return nil, fmt.Errorf("unable to open %s: %w", d.serverConfig.Gpio.Chip, err)
		}
		d.chip = chip
	}
	offset, err := findLineOffset(d.chip, name)
	if err != nil {
		return nil, err
	}
	line, err := d.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &cdevLine{name: name, line: line}, nil
}

// lineLister is the part of a gpiocdev.Chip used to resolve line names.
type lineLister interface {
	Lines() int
	LineInfo(offset int) (gpiocdev.LineInfo, error)
}

// findLineOffset resolves a line given as an offset or as a line name. Names
// are not unique on every chip, the first match wins.
func findLineOffset(chip lineLister, name string) (int, error) {
	if offset, err := strconv.Atoi(name); err == nil {
		if offset < 0 || offset >= chip.Lines() {
			return 0, fmt.Errorf("line offset %d out of range", offset)
		}
		return offset, nil
	}
	for offset := 0; offset < chip.Lines(); offset++ {
		info, err := chip.LineInfo(offset)
		if err != nil {
			return 0, fmt.Errorf("unable to read line %d: %w", offset, err)
		}
		if info.Name == name {
			return offset, nil
		}
	}
	return 0, fmt.Errorf("unable to find line %s", name)
}

func (l *cdevLine) Out(level gpio.Level) error {
	value := 0
	if level {
		value = 1
	}
	return l.line.SetValue(value)
}

func (l *cdevLine) Close() error {
	return l.line.Close()
}

func (l *cdevLine) String() string {
	return l.name
}
