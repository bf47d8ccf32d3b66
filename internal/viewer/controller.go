// Package viewer is the controller between loaded volumes and any
// presentation surface: it owns the file list, the per-file view state,
// the preprocessing and overlay settings, and produces the composited
// frames the GUI or exporter displays.
package viewer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"smiv/internal/config"
	"smiv/internal/detect"
	"smiv/internal/display"
	"smiv/internal/loader"
	"smiv/internal/logger"
	"smiv/internal/overlay"
	"smiv/internal/preset"
	"smiv/internal/volume"
)

// Preproc is the per-file preprocessing state: the transform chain toggles
// plus the window/level mapping applied before 8-bit conversion.
type Preproc struct {
	HistEq             bool
	Colormap           bool
	BrightnessContrast bool
	Brightness         int
	Contrast           float64

	WLEnabled bool
	WL        display.Window
}

// DefaultPreproc is the neutral state after reset.
func DefaultPreproc() Preproc {
	return Preproc{Contrast: 1, WL: display.DefaultWindow}
}

// Controller holds everything one viewing session knows. It is not safe
// for concurrent use; the GUI drives it from a single goroutine.
type Controller struct {
	cfg    *config.Config
	log    logger.Logger
	loader *loader.Loader
	store  *preset.Store
	engine *overlay.Engine

	Files []string
	Index int

	Kind    detect.Kind
	Summary string
	Vol     *volume.Volume

	Z, T int

	Preproc Preproc

	ZoomEnabled bool
	Zoom        float64
	PanX, PanY  float64

	Mask           *overlay.Mask
	OverlayEnabled bool
	OverlayAlpha   int // percent, 0..100
	OverlayOutline bool

	lastRender *Rendered
}

func New(files []string, cfg *config.Config, log logger.Logger, store *preset.Store) (*Controller, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Controller{
		cfg:          cfg,
		log:          log,
		loader:       loader.New(cfg, log),
		store:        store,
		engine:       overlay.NewEngine(log),
		Files:        files,
		Preproc:      DefaultPreproc(),
		Zoom:         1,
		OverlayAlpha: cfg.Viewer.DefaultOverlayAlpha,
	}, nil
}

// CurrentPath returns the path of the file the controller points at.
func (c *Controller) CurrentPath() string { return c.Files[c.Index] }

// LoadCurrent classifies and loads the current file, then commits the
// per-file view state: depth and time reset to the middle slice, zoom and
// pan reset, window/level seeded from DICOM metadata when present. On
// failure the previous state is kept untouched so the surface keeps
// showing the last good frame.
func (c *Controller) LoadCurrent() error {
	path := c.CurrentPath()

	res := detect.File(path)
	vol, err := c.loader.Load(path, res.Kind)
	if err != nil {
		c.log.Error("viewer", err, map[string]interface{}{"path": path})
		return err
	}

	c.Kind = res.Kind
	c.Summary = res.Summary
	c.Vol = vol
	c.lastRender = nil

	if vol.IsRGB() {
		c.Z, c.T = 0, 0
	} else {
		c.Z = middle(vol.Z)
		c.T = middle(vol.T)
	}

	c.Zoom = 1
	c.PanX, c.PanY = 0, 0

	c.seedWindowLevel(vol)

	c.log.Info("viewer", "loaded file", map[string]interface{}{
		"path": path, "kind": res.Kind.String(), "shape": vol.String(),
	})

	// A saved session preset for this file restores itself silently.
	if c.store != nil {
		if p, ok := c.store.Get(path); ok {
			c.applyPreset(p)
		}
	}
	return nil
}

// seedWindowLevel enables window/level for CT volumes that carry their own
// display window. Everything else starts with windowing disabled.
func (c *Controller) seedWindowLevel(vol *volume.Volume) {
	c.Preproc.WLEnabled = false
	c.Preproc.WL = display.DefaultWindow
	m := vol.Meta
	if m == nil || !m.IsCT() {
		return
	}
	if m.WindowCenter != nil && m.WindowWidth != nil {
		c.Preproc.WL = display.Window{Center: *m.WindowCenter, Width: *m.WindowWidth}
		c.Preproc.WLEnabled = true
	}
}

// Next advances to the following file, wrapping at the end.
func (c *Controller) Next() error { return c.step(1) }

// Prev moves to the preceding file, wrapping at the start.
func (c *Controller) Prev() error { return c.step(-1) }

func (c *Controller) step(delta int) error {
	n := len(c.Files)
	c.Index = ((c.Index+delta)%n + n) % n
	return c.LoadCurrent()
}

// SetIndex jumps to an arbitrary file position.
func (c *Controller) SetIndex(i int) error {
	if i < 0 || i >= len(c.Files) {
		return fmt.Errorf("file index %d out of range", i)
	}
	c.Index = i
	return c.LoadCurrent()
}

// SetZ jumps depth to an absolute index, clamped to the volume extent.
func (c *Controller) SetZ(z int) {
	if c.Vol == nil {
		return
	}
	c.Z = clampInt(z, 0, c.Vol.Z-1)
}

// SetT jumps time to an absolute index, clamped to the volume extent.
func (c *Controller) SetT(t int) {
	if c.Vol == nil {
		return
	}
	c.T = clampInt(t, 0, c.Vol.T-1)
}

// StepZ moves through depth, clamped to the volume extent. Zoom, pan and
// every preprocessing setting survive the step.
func (c *Controller) StepZ(delta int) {
	if c.Vol == nil || c.Vol.Z <= 1 {
		return
	}
	c.Z = clampInt(c.Z+delta, 0, c.Vol.Z-1)
}

// StepT moves through time, clamped to the volume extent.
func (c *Controller) StepT(delta int) {
	if c.Vol == nil || c.Vol.T <= 1 {
		return
	}
	c.T = clampInt(c.T+delta, 0, c.Vol.T-1)
}

// SetZoomEnabled toggles interactive zoom. Both directions return the view
// to the neutral transform so re-enabling never resumes a stale window.
func (c *Controller) SetZoomEnabled(enabled bool) {
	c.ZoomEnabled = enabled
	c.Zoom = 1
	c.PanX, c.PanY = 0, 0
}

// WheelZoom applies one scroll notch. Positive direction zooms in.
func (c *Controller) WheelZoom(direction int) {
	if !c.ZoomEnabled {
		return
	}
	step := c.cfg.Viewer.WheelZoomStep
	if direction > 0 {
		c.Zoom *= step
	} else {
		c.Zoom /= step
	}
	if c.Zoom < c.cfg.Viewer.MinZoom {
		c.Zoom = c.cfg.Viewer.MinZoom
	}
	if c.Zoom > c.cfg.Viewer.MaxZoom {
		c.Zoom = c.cfg.Viewer.MaxZoom
	}
}

// PanBy translates a screen-space drag into source-space pan. The divide
// by zoom keeps drag speed constant on screen at any magnification.
func (c *Controller) PanBy(dxScreen, dyScreen float64) {
	if !c.ZoomEnabled {
		return
	}
	z := c.Zoom
	if z == 0 {
		z = 1
	}
	c.PanX -= dxScreen / z
	c.PanY -= dyScreen / z
}

// ResetView returns zoom and pan to neutral.
func (c *Controller) ResetView() {
	c.Zoom = 1
	c.PanX, c.PanY = 0, 0
}

// ResetPreproc returns every preprocessing setting to its default.
func (c *Controller) ResetPreproc() {
	c.Preproc = DefaultPreproc()
}

// CanWindowLevel reports whether window/level applies to the loaded
// volume. RGB rasters are already display-ready and never windowed.
func (c *Controller) CanWindowLevel() bool {
	return c.Vol != nil && !c.Vol.IsRGB()
}

// SetWLEnabled toggles window/level. The request is refused for RGB
// volumes so the state never claims a window the render would ignore.
func (c *Controller) SetWLEnabled(on bool) {
	c.Preproc.WLEnabled = on && c.CanWindowLevel()
}

// ApplyCTPreset sets a named CT window and enables windowing. Presets are
// Hounsfield-unit values and only offered for CT volumes.
func (c *Controller) ApplyCTPreset(name string) error {
	if !c.CanWindowLevel() {
		return fmt.Errorf("window presets apply to grayscale volumes only")
	}
	w, ok := display.CTPresets[name]
	if !ok {
		return fmt.Errorf("unknown window preset %q", name)
	}
	c.Preproc.WL = w
	c.Preproc.WLEnabled = true
	return nil
}

// AutoWindowLevel derives a window from the current slice's percentiles
// and enables windowing. Meaningless for RGB rasters, so those are left
// alone.
func (c *Controller) AutoWindowLevel() {
	if c.Vol == nil || c.Vol.IsRGB() {
		return
	}
	c.Preproc.WL = display.AutoWindow(c.Vol.Plane(c.Z, c.T))
	c.Preproc.WLEnabled = true
}

// IsCT reports whether the loaded volume is a CT series.
func (c *Controller) IsCT() bool {
	return c.Vol != nil && c.Vol.Meta != nil && c.Vol.Meta.IsCT()
}

// LoadMask attaches a segmentation mask and enables the overlay with the
// configured default opacity.
func (c *Controller) LoadMask(path string) error {
	m, err := overlay.Load(path, c.loader)
	if err != nil {
		return err
	}
	c.Mask = m
	c.OverlayEnabled = true
	c.engine.Reset()
	c.log.Info("viewer", "loaded mask", map[string]interface{}{
		"path": path, "labels": len(m.Colors),
	})
	return nil
}

// ClearMask detaches the mask and disables the overlay.
func (c *Controller) ClearMask() {
	c.Mask = nil
	c.OverlayEnabled = false
}

// SavePreset persists the current session settings for the current file.
func (c *Controller) SavePreset() error {
	if c.store == nil {
		return fmt.Errorf("no preset store configured")
	}
	return c.store.Put(c.CurrentPath(), c.collectPreset())
}

// ApplyPreset restores the saved settings for the current file. Returns
// false when no preset exists.
func (c *Controller) ApplyPreset() (bool, error) {
	if c.store == nil {
		return false, fmt.Errorf("no preset store configured")
	}
	p, ok := c.store.Get(c.CurrentPath())
	if !ok {
		return false, nil
	}
	c.applyPreset(p)
	return true, nil
}

func (c *Controller) collectPreset() preset.Preset {
	p := preset.Preset{
		Preprocessing: preset.Preprocessing{
			HistEq:             c.Preproc.HistEq,
			Colormap:           c.Preproc.Colormap,
			BrightnessContrast: c.Preproc.BrightnessContrast,
			Brightness:         c.Preproc.Brightness,
			Contrast:           c.Preproc.Contrast,
			WLEnabled:          c.Preproc.WLEnabled,
			WLCenter:           int(c.Preproc.WL.Center),
			WLWidth:            int(c.Preproc.WL.Width),
		},
		Overlay: preset.Overlay{
			Enabled: c.OverlayEnabled,
			Alpha:   c.OverlayAlpha,
			Outline: c.OverlayOutline,
		},
	}
	if c.Mask != nil {
		p.Overlay.MaskPath = c.Mask.Path
		p.Overlay.LabelVisible = make(map[string]bool, len(c.Mask.Visible))
		for lbl, v := range c.Mask.Visible {
			p.Overlay.LabelVisible[strconv.Itoa(int(lbl))] = v
		}
		p.Overlay.LabelNames = make(map[string]string, len(c.Mask.Names))
		for lbl, name := range c.Mask.Names {
			p.Overlay.LabelNames[strconv.Itoa(int(lbl))] = name
		}
	}
	return p
}

func (c *Controller) applyPreset(p preset.Preset) {
	pre := p.Preprocessing
	c.Preproc = Preproc{
		HistEq:             pre.HistEq,
		Colormap:           pre.Colormap,
		BrightnessContrast: pre.BrightnessContrast,
		Brightness:         pre.Brightness,
		Contrast:           pre.Contrast,
		WLEnabled:          pre.WLEnabled,
		WL:                 display.Window{Center: float64(pre.WLCenter), Width: float64(pre.WLWidth)},
	}
	if c.Preproc.Contrast == 0 {
		c.Preproc.Contrast = 1
	}
	if !c.CanWindowLevel() {
		c.Preproc.WLEnabled = false
	}

	ov := p.Overlay
	c.OverlayAlpha = ov.Alpha
	c.OverlayOutline = ov.Outline

	if ov.MaskPath != "" {
		if _, err := os.Stat(ov.MaskPath); err == nil {
			if err := c.LoadMask(ov.MaskPath); err != nil {
				c.log.Warning("viewer", "preset mask failed to load", map[string]interface{}{
					"path": ov.MaskPath, "error": err.Error(),
				})
			}
		}
	}

	if c.Mask != nil {
		for key, v := range ov.LabelVisible {
			if id, err := strconv.Atoi(key); err == nil {
				c.Mask.Visible[int32(id)] = v
			}
		}
		for key, name := range ov.LabelNames {
			if id, err := strconv.Atoi(key); err == nil && name != "" {
				c.Mask.Names[int32(id)] = name
			}
		}
	}

	c.OverlayEnabled = ov.Enabled && c.Mask != nil
}

// Legend describes the loaded mask's labels for the overlay panel.
func (c *Controller) Legend() string {
	if c.Mask == nil {
		return ""
	}
	labels := c.Mask.Labels()
	if len(labels) == 0 {
		return "Overlay: binary"
	}
	items := make([]string, 0, len(labels))
	for _, lbl := range labels {
		if len(items) == 8 {
			items = append(items, "...")
			break
		}
		item := strconv.Itoa(int(lbl))
		if name, ok := c.Mask.Names[lbl]; ok {
			item += " (" + name + ")"
		}
		items = append(items, item)
	}
	return "Overlay labels: " + strings.Join(items, ", ")
}

// InfoLine is the headline shown above the image.
func (c *Controller) InfoLine() string {
	kind := "Unknown"
	if c.Kind != detect.Unknown {
		kind = c.Kind.String()
	}
	return fmt.Sprintf("[%d/%d] %s - %s", c.Index+1, len(c.Files), filepath.Base(c.CurrentPath()), kind)
}

func middle(n int) int {
	m := n / 2
	if m > n-1 {
		m = n - 1
	}
	return m
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
