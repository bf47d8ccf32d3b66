package overlay

import (
	"gocv.io/x/gocv"

	"smiv/internal/display"
	"smiv/internal/logger"
)

// Engine renders mask overlays onto display frames. It carries the
// one-shot shape-mismatch warning so a mask that needs resampling is
// reported once per load, not once per redraw.
type Engine struct {
	log            logger.Logger
	warnedMismatch bool
}

func NewEngine(log logger.Logger) *Engine {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Engine{log: log}
}

// Reset clears the mismatch latch. Called whenever a new mask is loaded.
func (e *Engine) Reset() { e.warnedMismatch = false }

// PlaneFor extracts the label plane at (z,t) and resamples it to the image
// plane extent. A shape mismatch is tolerated: the mask is stretched with
// nearest neighbor and a single warning is logged.
func (e *Engine) PlaneFor(m *Mask, z, t, w, h int) []int32 {
	labels := m.Slice(z, t)
	if !m.matches(w, h) && !e.warnedMismatch {
		e.warnedMismatch = true
		e.log.Warning("overlay", "mask shape differs from image slice, resampling to match", map[string]interface{}{
			"mask_w": m.W, "mask_h": m.H, "image_w": w, "image_h": h,
		})
	}
	return ResizeNearest(labels, m.W, m.H, w, h)
}

// Composite alpha-blends the mask onto a frame and returns the blended RGB
// result. Grayscale frames are promoted to RGB first. Labels without a
// color assignment fall back to a single binary blend; otherwise each
// visible label blends its own color, optionally only along its Canny
// outline. Background (label 0) is never touched.
func Composite(base *display.Frame, labels []int32, m *Mask, alpha float64, outline bool) *display.Frame {
	out := toRGB(base)
	if len(labels) != out.W*out.H {
		return out
	}

	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}

	if len(m.Colors) == 0 {
		region := make([]bool, len(labels))
		for i, l := range labels {
			region[i] = l != 0
		}
		blend(out, region, binaryColor, alpha)
		return out
	}

	for _, lbl := range m.Labels() {
		if !m.IsVisible(lbl) {
			continue
		}
		region := make([]bool, len(labels))
		any := false
		for i, l := range labels {
			if l == lbl {
				region[i] = true
				any = true
			}
		}
		if !any {
			continue
		}
		if outline {
			region = edges(region, out.W, out.H)
		}
		blend(out, region, m.Colors[lbl], alpha)
	}
	return out
}

func toRGB(f *display.Frame) *display.Frame {
	if f.Ch == 3 {
		return f.Clone()
	}
	out := display.NewFrame(f.H, f.W, 3)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			v := f.At(y, x, 0)
			out.Set(y, x, 0, v)
			out.Set(y, x, 1, v)
			out.Set(y, x, 2, v)
		}
	}
	return out
}

func blend(f *display.Frame, region []bool, color [3]uint8, alpha float64) {
	a := float32(alpha)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			if !region[y*f.W+x] {
				continue
			}
			for c := 0; c < 3; c++ {
				f.Set(y, x, c, (1-a)*f.At(y, x, c)+a*float32(color[c]))
			}
		}
	}
}

// edges reduces a filled region to its Canny edge pixels.
func edges(region []bool, w, h int) []bool {
	src := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	defer src.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if region[y*w+x] {
				src.SetUCharAt(y, x, 255)
			}
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Canny(src, &dst, 50, 150)

	out := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = dst.GetUCharAt(y, x) > 0
		}
	}
	return out
}
