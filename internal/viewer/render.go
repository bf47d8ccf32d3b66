package viewer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"smiv/internal/display"
	"smiv/internal/overlay"
)

// Rendered is one finished frame plus the geometry needed to map surface
// coordinates back onto it for the pixel inspector.
type Rendered struct {
	// Base is the processed frame at native resolution, before fit-to-view
	// scaling and before the overlay.
	Base *display.Frame

	// Image is the final composited picture at view resolution.
	Image image.Image

	// MaskScaled is the label plane aligned with Image, nil without an
	// active overlay.
	MaskScaled []int32

	BaseW, BaseH     int
	ScaledW, ScaledH int
}

// pipelineSettings translates the controller state into the transform
// chain's input.
func (c *Controller) pipelineSettings() display.Settings {
	return display.Settings{
		HistEq:             c.Preproc.HistEq,
		BrightnessContrast: c.Preproc.BrightnessContrast,
		Brightness:         float64(c.Preproc.Brightness),
		Contrast:           c.Preproc.Contrast,
		Colormap:           c.Preproc.Colormap,
		ZoomEnabled:        c.ZoomEnabled,
		Zoom:               c.Zoom,
		PanX:               c.PanX,
		PanY:               c.PanY,
	}
}

// baseFrame produces the processed slice at native resolution: windowing
// or min-max normalization for grayscale, passthrough for RGB, then the
// transform chain.
func (c *Controller) baseFrame() *display.Frame {
	var f *display.Frame
	if c.Vol.IsRGB() {
		f = display.RGBFrame(c.Vol)
	} else {
		plane := display.GrayFrame(c.Vol.Plane(c.Z, c.T), c.Vol.H, c.Vol.W)
		if c.Preproc.WLEnabled {
			f = display.ApplyWindow(plane, c.Preproc.WL)
		} else {
			f = display.Normalize(plane)
		}
	}
	return display.Apply(f, c.pipelineSettings())
}

// Render produces the frame for a view surface of the given size. The
// image scales with linear interpolation while the mask follows the exact
// same geometry with nearest neighbor, so overlay and image stay aligned
// at every zoom, pan and window size.
func (c *Controller) Render(viewW, viewH int) (*Rendered, error) {
	if c.Vol == nil {
		return nil, fmt.Errorf("nothing loaded")
	}

	base := c.baseFrame()
	w, h := base.W, base.H

	scaledW, scaledH := fitInto(w, h, viewW, viewH)
	frame := display.ScaleLinear(base, scaledW, scaledH)

	r := &Rendered{
		Base:    base,
		BaseW:   w,
		BaseH:   h,
		ScaledW: scaledW,
		ScaledH: scaledH,
	}

	if c.OverlayEnabled && c.Mask != nil {
		labels := c.engine.PlaneFor(c.Mask, c.Z, c.T, w, h)
		labels = overlay.ApplyZoom(labels, w, h, c.pipelineSettings())
		labels = overlay.ResizeNearest(labels, w, h, scaledW, scaledH)
		r.MaskScaled = labels

		alpha := float64(c.OverlayAlpha) / 100
		frame = overlay.Composite(frame, labels, c.Mask, alpha, c.OverlayOutline)
	}

	r.Image = frame.ToImage()
	c.lastRender = r
	return r, nil
}

// fitInto scales (w,h) to fit inside (maxW,maxH) preserving aspect ratio.
// Non-positive bounds mean no scaling.
func fitInto(w, h, maxW, maxH int) (int, int) {
	if maxW < 1 || maxH < 1 {
		return w, h
	}
	sw := float64(maxW) / float64(w)
	sh := float64(maxH) / float64(h)
	s := sw
	if sh < s {
		s = sh
	}
	outW := int(float64(w) * s)
	outH := int(float64(h) * s)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

// LastRender returns the most recent rendered frame, nil before the first
// render.
func (c *Controller) LastRender() *Rendered { return c.lastRender }

// Inspect maps a view-surface coordinate to the underlying pixel and
// formats the inspector text: position, intensity or RGB, and the mask
// label under the cursor with its name when known. Outside the image it
// returns the empty string.
func (c *Controller) Inspect(xs, ys int) string {
	r := c.lastRender
	if r == nil {
		return ""
	}
	if xs < 0 || ys < 0 || xs >= r.ScaledW || ys >= r.ScaledH {
		return ""
	}

	x := clampInt(xs*r.BaseW/maxInt(1, r.ScaledW), 0, r.BaseW-1)
	y := clampInt(ys*r.BaseH/maxInt(1, r.ScaledH), 0, r.BaseH-1)

	var val string
	if r.Base.Ch == 1 {
		val = fmt.Sprintf("I=%d", int(r.Base.At(y, x, 0)))
	} else {
		val = fmt.Sprintf("RGB=(%d,%d,%d)",
			int(r.Base.At(y, x, 0)), int(r.Base.At(y, x, 1)), int(r.Base.At(y, x, 2)))
	}

	out := fmt.Sprintf("x=%d, y=%d | %s", x, y, val)

	if r.MaskScaled != nil && c.Mask != nil {
		lbl := r.MaskScaled[ys*r.ScaledW+xs]
		if lbl != 0 {
			out += fmt.Sprintf(" | Label=%d", lbl)
			if name, ok := c.Mask.Names[lbl]; ok {
				out += fmt.Sprintf(" (%s)", name)
			}
		}
	}
	return out
}

// StatusLine summarizes the session state for the status bar. inspector
// is appended when non-empty.
func (c *Controller) StatusLine(inspector string) string {
	parts := []string{
		fmt.Sprintf("File %d/%d", c.Index+1, len(c.Files)),
		c.Kind.String(),
	}

	if c.Vol != nil && !c.Vol.IsRGB() {
		parts = append(parts,
			fmt.Sprintf("Z %d/%d", c.Z+1, c.Vol.Z),
			fmt.Sprintf("T %d/%d", c.T+1, c.Vol.T))
	}
	if c.ZoomEnabled {
		parts = append(parts, fmt.Sprintf("Zoom %.2f", c.Zoom))
	}
	if c.Preproc.WLEnabled {
		parts = append(parts, fmt.Sprintf("WL %d/%d", int(c.Preproc.WL.Center), int(c.Preproc.WL.Width)))
	}
	if c.OverlayEnabled && c.Mask != nil {
		parts = append(parts, fmt.Sprintf("Overlay %d%%", c.OverlayAlpha))
	}
	if inspector != "" {
		parts = append(parts, inspector)
	}
	return strings.Join(parts, " | ")
}

// ExportPNG writes the most recent rendered view to a PNG file. With no
// render yet, the current slice is rendered at native resolution first.
func (c *Controller) ExportPNG(path string) error {
	r := c.lastRender
	if r == nil {
		var err error
		if r, err = c.Render(0, 0); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export view: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, r.Image); err != nil {
		return fmt.Errorf("export view: %w", err)
	}
	c.log.Info("viewer", "exported view", map[string]interface{}{"path": path})
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
