package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// controlPanels builds the right-hand tab group: Navigation, Preprocessing
// and Overlay. The syncing flag suppresses widget callbacks while widget
// values are being pushed from controller state, so syncing never triggers
// a feedback loop of redraws.
type controlPanels struct {
	v         *Viewer
	container *container.AppTabs
	syncing   bool

	zSlider *widget.Slider
	tSlider *widget.Slider

	zoomCheck *widget.Check

	histEqCheck    *widget.Check
	colormapCheck  *widget.Check
	bcCheck        *widget.Check
	brightSlider   *widget.Slider
	contrastSlider *widget.Slider

	wlCheck        *widget.Check
	wlCenterSlider *widget.Slider
	wlWidthSlider  *widget.Slider
	autoWLButton   *widget.Button
	ctButtons      []*widget.Button

	overlayCheck *widget.Check
	outlineCheck *widget.Check
	alphaSlider  *widget.Slider
	legendLabel  *widget.Label
	labelBox     *fyne.Container
}

func newControlPanels(v *Viewer) *controlPanels {
	p := &controlPanels{v: v}

	p.container = container.NewAppTabs(
		container.NewTabItem("Navigation", p.buildNavigation()),
		container.NewTabItem("Preprocessing", p.buildPreprocessing()),
		container.NewTabItem("Overlay", p.buildOverlay()),
		container.NewTabItem("Metadata", container.NewVScroll(v.metaLabel)),
	)
	return p
}

func (p *controlPanels) changed(apply func()) {
	if p.syncing {
		return
	}
	apply()
	p.v.redraw()
}

func (p *controlPanels) buildNavigation() fyne.CanvasObject {
	prev := widget.NewButton("Previous", func() { p.v.changeFile(-1) })
	next := widget.NewButton("Next", func() { p.v.changeFile(1) })

	p.zSlider = widget.NewSlider(0, 0)
	p.zSlider.OnChanged = func(val float64) {
		p.changed(func() { p.v.ctrl.SetZ(int(val)) })
	}

	p.tSlider = widget.NewSlider(0, 0)
	p.tSlider.OnChanged = func(val float64) {
		p.changed(func() { p.v.ctrl.SetT(int(val)) })
	}

	p.zoomCheck = widget.NewCheck("Enable Zoom/Pan", func(on bool) {
		p.changed(func() { p.v.ctrl.SetZoomEnabled(on) })
	})

	resetView := widget.NewButton("Reset Zoom/Pan", func() {
		p.v.ctrl.ResetView()
		p.v.redraw()
	})

	export := widget.NewButton("Export Current View as PNG", p.exportView)

	savePreset := widget.NewButton("Save Preset", func() {
		if err := p.v.ctrl.SavePreset(); err != nil {
			dialog.ShowError(err, p.v.window)
			return
		}
		dialog.ShowInformation("Session Preset", "Preset saved for this file.", p.v.window)
	})

	applyPreset := widget.NewButton("Apply Preset", func() {
		ok, err := p.v.ctrl.ApplyPreset()
		if err != nil {
			dialog.ShowError(err, p.v.window)
			return
		}
		if !ok {
			dialog.ShowInformation("Session Preset", "No preset found for this file.", p.v.window)
			return
		}
		p.syncFromController()
		p.v.redraw()
	})

	return container.NewVBox(
		container.NewHBox(prev, next),
		widget.NewLabel("Depth (Z)"),
		p.zSlider,
		widget.NewLabel("Time (T)"),
		p.tSlider,
		p.zoomCheck,
		resetView,
		export,
		widget.NewSeparator(),
		savePreset,
		applyPreset,
	)
}

func (p *controlPanels) buildPreprocessing() fyne.CanvasObject {
	p.histEqCheck = widget.NewCheck("Histogram Equalization", func(on bool) {
		p.changed(func() { p.v.ctrl.Preproc.HistEq = on })
	})
	p.colormapCheck = widget.NewCheck("Apply Colormap", func(on bool) {
		p.changed(func() { p.v.ctrl.Preproc.Colormap = on })
	})
	p.bcCheck = widget.NewCheck("Brightness/Contrast", func(on bool) {
		p.changed(func() { p.v.ctrl.Preproc.BrightnessContrast = on })
	})

	p.brightSlider = widget.NewSlider(-100, 100)
	p.brightSlider.OnChanged = func(val float64) {
		p.changed(func() { p.v.ctrl.Preproc.Brightness = int(val) })
	}

	p.contrastSlider = widget.NewSlider(1, 5)
	p.contrastSlider.Step = 0.1
	p.contrastSlider.OnChanged = func(val float64) {
		p.changed(func() { p.v.ctrl.Preproc.Contrast = val })
	}

	p.wlCheck = widget.NewCheck("Enable Window/Level", func(on bool) {
		p.changed(func() { p.v.ctrl.SetWLEnabled(on) })
	})

	p.wlCenterSlider = widget.NewSlider(-2000, 2000)
	p.wlCenterSlider.OnChanged = func(val float64) {
		p.changed(func() { p.v.ctrl.Preproc.WL.Center = val })
	}

	p.wlWidthSlider = widget.NewSlider(1, 4000)
	p.wlWidthSlider.OnChanged = func(val float64) {
		p.changed(func() { p.v.ctrl.Preproc.WL.Width = val })
	}

	p.autoWLButton = widget.NewButton("Auto", func() {
		p.v.ctrl.AutoWindowLevel()
		p.syncFromController()
		p.v.redraw()
	})

	presetRow := container.NewHBox(p.autoWLButton)
	for _, name := range []string{"Soft tissue", "Lung", "Bone"} {
		name := name
		btn := widget.NewButton(name, func() {
			if err := p.v.ctrl.ApplyCTPreset(name); err != nil {
				dialog.ShowError(err, p.v.window)
				return
			}
			p.syncFromController()
			p.v.redraw()
		})
		p.ctButtons = append(p.ctButtons, btn)
		presetRow.Add(btn)
	}

	reset := widget.NewButton("Reset Preprocessing", func() {
		p.v.ctrl.ResetPreproc()
		p.syncFromController()
		p.v.redraw()
	})

	return container.NewVBox(
		p.histEqCheck,
		p.colormapCheck,
		p.bcCheck,
		widget.NewLabel("Brightness"),
		p.brightSlider,
		widget.NewLabel("Contrast"),
		p.contrastSlider,
		widget.NewSeparator(),
		p.wlCheck,
		widget.NewLabel("Center (Level)"),
		p.wlCenterSlider,
		widget.NewLabel("Width (Window)"),
		p.wlWidthSlider,
		presetRow,
		widget.NewSeparator(),
		reset,
	)
}

func (p *controlPanels) buildOverlay() fyne.CanvasObject {
	p.legendLabel = widget.NewLabel("")
	p.legendLabel.Wrapping = fyne.TextWrapWord

	loadMask := widget.NewButton("Load Mask", func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			path := rc.URI().Path()
			rc.Close()
			if err := p.v.ctrl.LoadMask(path); err != nil {
				dialog.ShowError(err, p.v.window)
				return
			}
			p.syncFromController()
			p.v.redraw()
		}, p.v.window)
	})

	clearMask := widget.NewButton("Clear Mask", func() {
		dialog.ShowConfirm("Clear Mask", "Clear the loaded mask and overlay settings?", func(ok bool) {
			if !ok {
				return
			}
			p.v.ctrl.ClearMask()
			p.syncFromController()
			p.v.redraw()
		}, p.v.window)
	})

	p.overlayCheck = widget.NewCheck("Show Segmentation Overlay", func(on bool) {
		p.changed(func() { p.v.ctrl.OverlayEnabled = on && p.v.ctrl.Mask != nil })
	})

	p.outlineCheck = widget.NewCheck("Overlay Outline Only", func(on bool) {
		p.changed(func() { p.v.ctrl.OverlayOutline = on })
	})

	p.alphaSlider = widget.NewSlider(0, 100)
	p.alphaSlider.OnChanged = func(val float64) {
		p.changed(func() { p.v.ctrl.OverlayAlpha = int(val) })
	}

	all := widget.NewButton("All", func() { p.setAllLabels(true) })
	none := widget.NewButton("None", func() { p.setAllLabels(false) })
	invert := widget.NewButton("Invert", func() {
		if p.v.ctrl.Mask == nil {
			return
		}
		p.v.ctrl.Mask.InvertVisible()
		p.rebuildLabelChecks()
		p.v.redraw()
	})

	p.labelBox = container.NewVBox()

	return container.NewVBox(
		p.legendLabel,
		loadMask,
		clearMask,
		p.overlayCheck,
		p.outlineCheck,
		widget.NewLabel("Overlay Alpha (%)"),
		p.alphaSlider,
		widget.NewSeparator(),
		widget.NewLabel("Visible labels:"),
		container.NewHBox(all, none, invert),
		container.NewVScroll(p.labelBox),
	)
}

func (p *controlPanels) setAllLabels(visible bool) {
	if p.v.ctrl.Mask == nil {
		return
	}
	p.v.ctrl.Mask.SetAllVisible(visible)
	p.rebuildLabelChecks()
	p.v.redraw()
}

// rebuildLabelChecks recreates the per-label visibility checkboxes after
// any change to the mask's label set or visibility state. The syncing
// flag is raised during the rebuild because SetChecked fires the check
// callbacks.
func (p *controlPanels) rebuildLabelChecks() {
	wasSyncing := p.syncing
	p.syncing = true
	defer func() { p.syncing = wasSyncing }()

	p.labelBox.RemoveAll()
	m := p.v.ctrl.Mask
	if m == nil {
		p.labelBox.Refresh()
		return
	}
	for _, lbl := range m.Labels() {
		lbl := lbl
		text := fmt.Sprintf("Label %d", lbl)
		if name, ok := m.Names[lbl]; ok {
			text += fmt.Sprintf(" (%s)", name)
		}
		check := widget.NewCheck(text, func(on bool) {
			p.changed(func() { m.Visible[lbl] = on })
		})
		check.SetChecked(m.IsVisible(lbl))
		p.labelBox.Add(check)
	}
	p.labelBox.Refresh()
}

func (p *controlPanels) exportView() {
	dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		wc.Close()
		if err := p.v.ctrl.ExportPNG(path); err != nil {
			dialog.ShowError(err, p.v.window)
			return
		}
		dialog.ShowInformation("Export Current View", "Saved: "+path, p.v.window)
	}, p.v.window)
}

// syncFromController pushes controller state into every widget on the UI
// thread without triggering their callbacks.
func (p *controlPanels) syncFromController() {
	fyne.Do(p.pushState)
}

// pushState mirrors controller state into the widgets. The syncing flag
// is raised for the duration so the widget callbacks this fires do not
// apply the values straight back to the controller.
func (p *controlPanels) pushState() {
	p.syncing = true
	defer func() { p.syncing = false }()

	c := p.v.ctrl

	if c.Vol != nil && !c.Vol.IsRGB() {
		p.zSlider.Max = float64(c.Vol.Z - 1)
		p.zSlider.SetValue(float64(c.Z))
		p.tSlider.Max = float64(c.Vol.T - 1)
		p.tSlider.SetValue(float64(c.T))
	} else {
		p.zSlider.Max = 0
		p.zSlider.SetValue(0)
		p.tSlider.Max = 0
		p.tSlider.SetValue(0)
	}

	p.zoomCheck.SetChecked(c.ZoomEnabled)

	p.histEqCheck.SetChecked(c.Preproc.HistEq)
	p.colormapCheck.SetChecked(c.Preproc.Colormap)
	p.bcCheck.SetChecked(c.Preproc.BrightnessContrast)
	p.brightSlider.SetValue(float64(c.Preproc.Brightness))
	p.contrastSlider.SetValue(c.Preproc.Contrast)

	p.wlCheck.SetChecked(c.Preproc.WLEnabled)
	p.wlCenterSlider.SetValue(c.Preproc.WL.Center)
	p.wlWidthSlider.SetValue(c.Preproc.WL.Width)

	// Window/level never applies to RGB rasters; the controls gray out.
	if c.CanWindowLevel() {
		p.wlCheck.Enable()
		p.wlCenterSlider.Enable()
		p.wlWidthSlider.Enable()
		p.autoWLButton.Enable()
	} else {
		p.wlCheck.Disable()
		p.wlCenterSlider.Disable()
		p.wlWidthSlider.Disable()
		p.autoWLButton.Disable()
	}

	// Hounsfield presets only make sense for CT.
	for _, btn := range p.ctButtons {
		if c.IsCT() {
			btn.Enable()
		} else {
			btn.Disable()
		}
	}

	p.overlayCheck.SetChecked(c.OverlayEnabled)
	p.outlineCheck.SetChecked(c.OverlayOutline)
	p.alphaSlider.SetValue(float64(c.OverlayAlpha))
	p.legendLabel.SetText(c.Legend())

	p.rebuildLabelChecks()
}
