//go:build !amd64 || !cgo

package device

import "github.com/sirupsen/logrus"

// No desktop window on the boards, the simulated screen stays in memory.
type statusWindow struct{}

func (d *Status) startSimulation() {
	logrus.Infof("Status window not available on this platform")
}

func (d *Status) invalidateSimulationWindow() {
}

func (d *Status) closeSimulationWindow() {
}
