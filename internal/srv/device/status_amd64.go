//go:build cgo

package device

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
)

type statusWindow struct {
	window *app.Window
}

func (d *Status) startSimulation() {
	d.simulation.window = app.NewWindow(
		app.Title("ledmatrix status"),
		app.Size(unit.Px(256), unit.Px(128)),
		app.MinSize(unit.Px(128), unit.Px(64)))
	go func() {
		if err := d.gioloop(d.simulation.window); err != nil {
			logrus.Errorf("Status window closed: %v", err)
		}
	}()
	go app.Main()
}

func (d *Status) invalidateSimulationWindow() {
	if d.simulation.window != nil {
		d.simulation.window.Invalidate()
	}
}

func (d *Status) closeSimulationWindow() {
	if d.simulation.window != nil {
		d.simulation.window.Close()
	}
}

func (d *Status) gioloop(w *app.Window) error {
	var ops op.Ops
	for e := range w.Events() {
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			if lastImg := d.LastImage(); lastImg != nil {
				img := widget.Image{Src: paint.NewImageOp(lastImg), Fit: widget.Contain}
				img.Layout(gtx)
			}
			e.Frame(gtx.Ops)
		}
	}
	return nil
}
