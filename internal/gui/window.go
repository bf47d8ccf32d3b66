// Package gui is the Fyne presentation layer. It owns widget construction
// and event plumbing only; every decision about what to draw lives in the
// viewer controller.
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"smiv/internal/logger"
	"smiv/internal/viewer"
)

// Viewer is the main window: info line on top, interactive surface in the
// center, control tabs on the right, status bar on the bottom.
type Viewer struct {
	app    fyne.App
	window fyne.Window
	log    logger.Logger

	ctrl *viewer.Controller

	surface     *Surface
	infoLabel   *widget.Label
	statusLabel *widget.Label
	metaLabel   *widget.Label

	panels *controlPanels

	inspector string
}

func NewViewer(ctrl *viewer.Controller, log logger.Logger) *Viewer {
	return newViewer(app.NewWithID("smiv"), ctrl, log)
}

func newViewer(a fyne.App, ctrl *viewer.Controller, log logger.Logger) *Viewer {
	if log == nil {
		log = logger.NopLogger{}
	}

	v := &Viewer{
		app:  a,
		log:  log,
		ctrl: ctrl,
	}

	v.window = v.app.NewWindow("SMIV Viewer")
	v.window.Resize(fyne.NewSize(1200, 800))

	v.surface = NewSurface(v.onScroll, v.onDrag, v.onHover, v.onLeave)
	v.infoLabel = widget.NewLabel("")
	v.statusLabel = widget.NewLabel("")
	v.metaLabel = widget.NewLabel("")
	v.metaLabel.Wrapping = fyne.TextWrapWord

	v.panels = newControlPanels(v)

	content := container.NewBorder(
		v.infoLabel,        // top
		v.statusLabel,      // bottom
		nil,                // left
		v.panels.container, // right
		v.surface,          // center
	)
	v.window.SetContent(content)

	v.bindShortcuts()
	return v
}

// Run loads the first file and enters the event loop.
func (v *Viewer) Run() {
	if err := v.ctrl.LoadCurrent(); err != nil {
		dialog.ShowError(err, v.window)
	}
	v.panels.syncFromController()
	v.redraw()
	v.window.ShowAndRun()
}

// redraw renders the current state at the surface size and refreshes every
// label that mirrors controller state.
func (v *Viewer) redraw() {
	w, h := v.surface.ViewSize()
	r, err := v.ctrl.Render(w, h)
	if err == nil {
		v.surface.SetImage(r.Image)
	}

	fyne.Do(func() {
		v.infoLabel.SetText(v.ctrl.InfoLine())
		v.statusLabel.SetText(v.ctrl.StatusLine(v.inspector))
		v.metaLabel.SetText(v.ctrl.Summary)
		v.panels.legendLabel.SetText(v.ctrl.Legend())
	})
}

func (v *Viewer) loadFile() {
	if err := v.ctrl.LoadCurrent(); err != nil {
		dialog.ShowError(err, v.window)
	}
	v.panels.syncFromController()
	v.redraw()
}

func (v *Viewer) changeFile(delta int) {
	var err error
	if delta > 0 {
		err = v.ctrl.Next()
	} else {
		err = v.ctrl.Prev()
	}
	if err != nil {
		dialog.ShowError(err, v.window)
	}
	v.panels.syncFromController()
	v.redraw()
}

func (v *Viewer) onScroll(direction int) {
	v.ctrl.WheelZoom(direction)
	v.redraw()
}

func (v *Viewer) onDrag(dx, dy float64) {
	v.ctrl.PanBy(dx, dy)
	v.redraw()
}

// onHover maps surface coordinates onto the centered, aspect-fit image
// before asking the controller to inspect the pixel.
func (v *Viewer) onHover(x, y int) {
	r := v.ctrl.LastRender()
	if r == nil {
		return
	}
	w, h := v.surface.ViewSize()
	ox := (w - r.ScaledW) / 2
	oy := (h - r.ScaledH) / 2
	v.inspector = v.ctrl.Inspect(x-ox, y-oy)
	fyne.Do(func() {
		v.statusLabel.SetText(v.ctrl.StatusLine(v.inspector))
	})
}

func (v *Viewer) onLeave() {
	v.inspector = ""
	fyne.Do(func() {
		v.statusLabel.SetText(v.ctrl.StatusLine(""))
	})
}

// Shutdown closes the window, ending the event loop. Safe to call from
// any goroutine, including the signal handler.
func (v *Viewer) Shutdown() {
	fyne.Do(func() {
		v.window.Close()
	})
}

func (v *Viewer) bindShortcuts() {
	v.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyLeft:
			v.changeFile(-1)
		case fyne.KeyRight:
			v.changeFile(1)
		case fyne.KeyUp:
			v.ctrl.StepZ(1)
			v.redraw()
		case fyne.KeyDown:
			v.ctrl.StepZ(-1)
			v.redraw()
		case fyne.KeyPageUp:
			v.ctrl.StepT(1)
			v.redraw()
		case fyne.KeyPageDown:
			v.ctrl.StepT(-1)
			v.redraw()
		case fyne.KeyO:
			if v.ctrl.Mask != nil {
				v.ctrl.OverlayEnabled = !v.ctrl.OverlayEnabled
				v.panels.syncFromController()
				v.redraw()
			}
		case fyne.KeyR:
			v.ctrl.ResetView()
			v.redraw()
		case fyne.KeyP:
			v.ctrl.ResetPreproc()
			v.panels.syncFromController()
			v.redraw()
		case fyne.KeyE:
			v.panels.exportView()
		}
	})
}
