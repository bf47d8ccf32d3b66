package display

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Window is a center/width display mapping in source intensity units.
type Window struct {
	Center float64
	Width  float64
}

// DefaultWindow is the fallback when nothing better is known (soft tissue
// in Hounsfield units).
var DefaultWindow = Window{Center: 40, Width: 400}

// CTPresets are the named convenience windows, meaningful only for CT.
var CTPresets = map[string]Window{
	"Soft tissue": {Center: 40, Width: 400},
	"Lung":        {Center: -600, Width: 1500},
	"Bone":        {Center: 300, Width: 2000},
}

// Normalize maps a slice to 0..255 by its own min/max. A constant slice
// maps to all zeros rather than dividing by zero.
func Normalize(f *Frame) *Frame {
	mn, mx := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range f.Pix {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}

	out := NewFrame(f.H, f.W, f.Ch)
	if mx <= mn {
		return out
	}
	scale := 255 / (mx - mn)
	for i, v := range f.Pix {
		out.Pix[i] = (v - mn) * scale
	}
	return out
}

// ApplyWindow maps intensities through a window/level ramp to 0..255.
// Width is clamped to at least 1 so a degenerate window still produces a
// valid step mapping. Output is monotonically non-decreasing in the input.
func ApplyWindow(f *Frame, w Window) *Frame {
	width := math.Max(1, w.Width)
	low := w.Center - width/2
	high := w.Center + width/2
	scale := 255 / float32(high-low)

	out := NewFrame(f.H, f.W, f.Ch)
	for i, v := range f.Pix {
		t := (v - float32(low)) * scale
		if t < 0 {
			t = 0
		} else if t > 255 {
			t = 255
		}
		out.Pix[i] = t
	}
	return out
}

// AutoWindow derives a robust window from the slice's 1st/99th percentiles.
// Constant or empty slices fall back to the fixed default so the caller
// never receives a degenerate window.
func AutoWindow(pix []float32) Window {
	if len(pix) == 0 {
		return DefaultWindow
	}

	vals := make([]float64, 0, len(pix))
	for _, v := range pix {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		vals = append(vals, f)
	}
	sort.Float64s(vals)

	p1 := stat.Quantile(0.01, stat.Empirical, vals, nil)
	p99 := stat.Quantile(0.99, stat.Empirical, vals, nil)

	if p99 <= p1 {
		mn, mx := vals[0], vals[len(vals)-1]
		if mx <= mn {
			return DefaultWindow
		}
		p1, p99 = mn, mx
	}

	return Window{
		Center: math.Round((p99 + p1) / 2),
		Width:  math.Max(1, math.Round(p99-p1)),
	}
}
