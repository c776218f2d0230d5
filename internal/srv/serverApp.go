package srv

import (
	"time"

	"github.com/jypelle/ledmatrix/internal/protocol"
	"github.com/jypelle/ledmatrix/internal/srv/config"
	"github.com/jypelle/ledmatrix/internal/srv/device"
	"github.com/jypelle/ledmatrix/internal/version"
	"github.com/sirupsen/logrus"
)

type ServerApp struct {
	*config.ServerConfig
	matrixDevice  *device.Matrix
	serialDevice  *device.Serial
	buttonsDevice *device.Buttons
	apiDevice     *device.Api
	statusDevice  *device.Status
	tickerDevice  *device.Ticker

	interpreter *protocol.Interpreter
	stats       statusStats
	statusDirty bool

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of ledmatrix server %s ...", version.AppVersion.String())

	app := &ServerApp{
		eventLoopAskDone: make(chan bool),
		eventLoopDone:    make(chan bool),
		ServerConfig:     config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	app.matrixDevice = device.NewMatrix(app.ServerConfig)
	app.serialDevice = device.NewSerial(app.ServerConfig)
	app.buttonsDevice = device.NewButtons(app.ServerConfig)
	if app.ApiParam.Enabled {
		app.apiDevice = device.NewApi(app.ServerConfig)
	}
	if app.Status.Enabled {
		app.statusDevice = device.NewStatus(app.ServerConfig)
		app.tickerDevice = device.NewTicker(time.Duration(app.Status.RefreshMs) * time.Millisecond)
	}

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting ledmatrix server ...")

	logrus.Printf("Starting devices ...")

	// Start matrix device, panels are blank from here
	s.matrixDevice.Start()
	s.initInterpreter()

	// Start status device
	if s.statusDevice != nil {
		s.statusDevice.Start()
		s.refreshStatus()
	}

	// Start event loop
	go s.eventLoop()

	// Start serial device
	s.serialDevice.Start()

	// Start buttons device
	s.buttonsDevice.Start()

	// Start ticker device
	if s.tickerDevice != nil {
		s.tickerDevice.Start()
	}

	// Start api device
	if s.apiDevice != nil {
		s.apiDevice.Start()
	}
}

func (s *ServerApp) initInterpreter() {
	s.interpreter = protocol.NewInterpreter(
		protocol.State{
			InstantStrobe: s.Interpreter.InstantStrobe,
			Quiet:         s.Interpreter.Quiet,
		},
		s.matrixDevice.Display(protocol.Display0),
		s.matrixDevice.Display(protocol.Display1),
	)
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping ledmatrix server ...")

	// Stop api
	if s.apiDevice != nil {
		s.apiDevice.StopSendingEvent()
	}

	// Stop ticker device
	if s.tickerDevice != nil {
		s.tickerDevice.StopSendingEvent()
	}

	// Stop buttons device
	s.buttonsDevice.StopSendingEvent()

	// Stop serial event
	s.serialDevice.StopSendingEvent()

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Stop status device
	if s.statusDevice != nil {
		s.statusDevice.Stop()
	}

	// Stop serial device
	s.serialDevice.Stop()

	// Stop matrix device
	s.matrixDevice.Stop()

	logrus.Printf("Server stopped")
}
