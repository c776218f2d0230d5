package srv

import (
	"fmt"
	"image"

	"github.com/jypelle/ledmatrix/internal/protocol"
	"github.com/jypelle/ledmatrix/internal/version"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// statusStats counts the traffic handed to the interpreter.
type statusStats struct {
	batches    int64
	bytes      int64
	lastSource string
}

func (s *ServerApp) refreshStatus() {
	if s.statusDevice == nil {
		return
	}
	logrus.Debugf("Refresh status")
	s.statusDevice.ShowImage(renderStatus(s.statusDevice.Bounds(), s.interpreter.State(), s.stats))
	s.statusDirty = false
}

func renderStatus(bounds image.Rectangle, state protocol.State, stats statusStats) *image.RGBA {
	img := image.NewRGBA(bounds)
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	AddCenteredLabel(img, 12, "LED matrix "+version.AppVersion.String())

	mode := "rows"
	if state.CommandMode {
		mode = "command"
	}
	AddLabel(img, 0, 26, fmt.Sprintf("Row %d  %s", state.Active, mode))
	AddLabel(img, 0, 40, fmt.Sprintf("Instant %s  Quiet %s", onOff(state.InstantStrobe), onOff(state.Quiet)))
	AddLabel(img, 0, 54, fmt.Sprintf("Rx %d bytes", stats.bytes))
	if stats.lastSource != "" {
		AddLabel(img, 0, 64, stats.lastSource)
	}
	return img
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
