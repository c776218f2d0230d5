package device

import (
	"image"
	"sync"

	"github.com/jypelle/ledmatrix/internal/srv/config"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// Status shows the server state on a small OLED screen. In simulation mode
// the screen is a desktop window where the platform provides one.
type Status struct {
	oledLock    sync.Mutex
	oledDisplay *ssd1306.Dev
	i2cBus      i2c.BusCloser

	lock           sync.RWMutex
	simulationMode bool
	param          config.StatusParam
	lastImg        image.Image

	simulation statusWindow

	askDone chan bool
	askImg  chan image.Image
	done    chan bool
}

func NewStatus(serverConfig *config.ServerConfig) *Status {
	if !serverConfig.SimulationMode {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize periph host: %v", err)
		}
	}

	device := Status{
		simulationMode: serverConfig.SimulationMode,
		param:          serverConfig.Status,
		askDone:        make(chan bool),
		askImg:         make(chan image.Image),
		done:           make(chan bool),
	}

	return &device
}

func (d *Status) Start() {
	logrus.Infof("Start status device")

	if d.simulationMode {
		d.startSimulation()
		return
	}

	var err error
	d.i2cBus, err = i2creg.Open(d.param.I2cBus)
	if err != nil {
		logrus.Fatalf("Unable to open i2c bus: %v\n", err)
	}

	d.oledDisplay, err = ssd1306.NewI2C(d.i2cBus, &ssd1306.DefaultOpts)
	if err != nil {
		logrus.Fatalf("Unable to initialize oled display: %v\n", err)
	}
	d.oledDisplay.SetContrast(1)

	go func() {
		for loop := true; loop; {
			select {
			case <-d.askDone:
				loop = false
			case newImg := <-d.askImg:
				d.oledLock.Lock()
				if err := d.oledDisplay.Draw(d.oledDisplay.Bounds(), newImg, image.Point{}); err != nil {
					logrus.Debugf("Unable to draw status: %v", err)
				}
				d.oledLock.Unlock()
			}
		}
		d.oledLock.Lock()
		if err := d.oledDisplay.Halt(); err != nil {
			logrus.Debugf("Unable to halt oled display: %v", err)
		}
		d.i2cBus.Close()
		d.oledLock.Unlock()
		d.done <- true
	}()
}

func (d *Status) Stop() {
	logrus.Infof("Stop status device")

	if d.simulationMode {
		d.closeSimulationWindow()
	} else {
		d.askDone <- true
		<-d.done
	}
}

// Bounds is the drawing area of the screen.
func (d *Status) Bounds() image.Rectangle {
	if d.oledDisplay != nil {
		return d.oledDisplay.Bounds()
	}
	return image.Rect(0, 0, 128, 64)
}

func (d *Status) ShowImage(img image.Image) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.lastImg = img
	if d.simulationMode {
		d.invalidateSimulationWindow()
	} else {
		d.askImg <- img
	}
}

func (d *Status) LastImage() image.Image {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.lastImg
}
