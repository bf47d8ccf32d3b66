// Package volume holds the normalized in-memory representation every loader
// produces: either a grayscale H×W×Z×T intensity volume or an already
// displayable H×W RGB raster. Nothing else reaches the view controller.
package volume

import "fmt"

// Form discriminates the two permitted shapes.
type Form int

const (
	// Gray4D is an intensity volume in raw modality units (HU for CT,
	// arbitrary scanner units otherwise). Needs windowing before display.
	Gray4D Form = iota

	// RGB2D is a color raster with depth and time fixed at 1. Windowing
	// and normalization never apply.
	RGB2D
)

// Volume is the single downstream currency of the loaders. Grayscale data is
// stored slice-contiguous so extracting one (Z,T) plane is a straight copy.
type Volume struct {
	Form Form

	H, W, Z, T int

	// data layout: Gray4D index ((t*Z+z)*H + y)*W + x, RGB2D (y*W+x)*3 + c.
	data []float32

	// Meta is populated for DICOM-sourced volumes, nil otherwise.
	Meta *SeriesMeta
}

// NewGray4D allocates a zeroed intensity volume.
func NewGray4D(h, w, z, t int) *Volume {
	if z < 1 {
		z = 1
	}
	if t < 1 {
		t = 1
	}
	return &Volume{
		Form: Gray4D,
		H:    h, W: w, Z: z, T: t,
		data: make([]float32, h*w*z*t),
	}
}

// NewRGB allocates a zeroed color raster.
func NewRGB(h, w int) *Volume {
	return &Volume{
		Form: RGB2D,
		H:    h, W: w, Z: 1, T: 1,
		data: make([]float32, h*w*3),
	}
}

func (v *Volume) IsRGB() bool { return v.Form == RGB2D }

// At returns the intensity at (y,x,z,t). Valid for Gray4D only.
func (v *Volume) At(y, x, z, t int) float32 {
	return v.data[((t*v.Z+z)*v.H+y)*v.W+x]
}

// Set stores an intensity at (y,x,z,t). Valid for Gray4D only.
func (v *Volume) Set(y, x, z, t int, val float32) {
	v.data[((t*v.Z+z)*v.H+y)*v.W+x] = val
}

// RGBAt returns one color component at (y,x). Valid for RGB2D only.
func (v *Volume) RGBAt(y, x, c int) float32 {
	return v.data[(y*v.W+x)*3+c]
}

// SetRGB stores one color component at (y,x). Valid for RGB2D only.
func (v *Volume) SetRGB(y, x, c int, val float32) {
	v.data[(y*v.W+x)*3+c] = val
}

// Plane returns a copy of the 2D slice at (z,t). Indices outside the volume
// extent are clamped, matching the lenient mask convention. The copy keeps
// the display pipeline pure: repeated renders always start from untouched
// source data.
func (v *Volume) Plane(z, t int) []float32 {
	z = clamp(z, 0, v.Z-1)
	t = clamp(t, 0, v.T-1)
	n := v.H * v.W
	off := (t*v.Z + z) * n
	out := make([]float32, n)
	copy(out, v.data[off:off+n])
	return out
}

// RGBData returns a copy of the interleaved RGB plane.
func (v *Volume) RGBData() []float32 {
	out := make([]float32, len(v.data))
	copy(out, v.data)
	return out
}

// SliceData exposes the raw backing slice for bulk fills during loading.
func (v *Volume) SliceData() []float32 { return v.data }

func (v *Volume) String() string {
	if v.IsRGB() {
		return fmt.Sprintf("RGB %dx%d", v.W, v.H)
	}
	return fmt.Sprintf("Gray %dx%dx%dx%d", v.W, v.H, v.Z, v.T)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
