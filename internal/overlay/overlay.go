// Package overlay implements the segmentation overlay engine: mask loading,
// label bookkeeping (colors, names, visibility), geometry-preserving label
// resampling, and alpha compositing onto a display frame.
package overlay

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"smiv/internal/loader"
	"smiv/internal/volume"
)

// Mask is an integer label volume plus its per-label presentation state.
// Labels are kept as int32 end to end so label IDs above 255 survive every
// resampling and lookup step.
type Mask struct {
	Path       string
	H, W, Z, T int

	// labels layout matches volume.Volume: ((t*Z+z)*H + y)*W + x.
	labels []int32

	// Colors maps each nonzero label to its RGB display color. Empty when
	// the mask has no foreground, in which case compositing falls back to
	// a single binary color.
	Colors map[int32][3]uint8

	// Names holds optional human-readable label names from a sidecar file.
	Names map[int32]string

	// Visible tracks per-label visibility toggles. Labels absent from the
	// map are treated as visible.
	Visible map[int32]bool
}

var maskExts = map[string]bool{
	".nii": true, ".nii.gz": true,
	".png": true, ".jpg": true, ".jpeg": true,
	".tif": true, ".tiff": true,
}

func maskExt(path string) string {
	p := strings.ToLower(path)
	if strings.HasSuffix(p, ".nii.gz") {
		return ".nii.gz"
	}
	return filepath.Ext(p)
}

// Load reads a segmentation mask from a volumetric or raster file. Values
// are rounded to the nearest integer label; NaNs become background. Label
// colors, sidecar names and visibility state are initialized so the mask is
// immediately displayable.
func Load(path string, ld *loader.Loader) (*Mask, error) {
	ext := maskExt(path)
	if !maskExts[ext] {
		return nil, fmt.Errorf("unsupported mask format: %q", path)
	}

	var vol *volume.Volume
	var err error
	switch ext {
	case ".nii", ".nii.gz":
		vol, err = ld.LoadNifti(path)
	default:
		vol, err = ld.LoadRaster(path)
	}
	if err != nil {
		return nil, fmt.Errorf("mask load failed for %q: %w", path, err)
	}

	m := fromVolume(vol)
	m.Path = path
	m.Colors = buildColors(m.labels)
	m.Names = LoadLabelNames(path)
	m.Visible = make(map[int32]bool, len(m.Colors))
	for lbl := range m.Colors {
		m.Visible[lbl] = true
	}
	return m, nil
}

// fromVolume converts loader output into an integer label volume. Color
// rasters collapse to luminance first so a PNG mask saved as RGB still
// yields usable labels.
func fromVolume(v *volume.Volume) *Mask {
	m := &Mask{H: v.H, W: v.W, Z: v.Z, T: v.T}
	m.labels = make([]int32, v.H*v.W*v.Z*v.T)

	if v.IsRGB() {
		for y := 0; y < v.H; y++ {
			for x := 0; x < v.W; x++ {
				lum := 0.299*v.RGBAt(y, x, 0) + 0.587*v.RGBAt(y, x, 1) + 0.114*v.RGBAt(y, x, 2)
				m.labels[y*v.W+x] = roundLabel(lum)
			}
		}
		return m
	}

	i := 0
	for t := 0; t < v.T; t++ {
		for z := 0; z < v.Z; z++ {
			for y := 0; y < v.H; y++ {
				for x := 0; x < v.W; x++ {
					m.labels[i] = roundLabel(v.At(y, x, z, t))
					i++
				}
			}
		}
	}
	return m
}

func roundLabel(v float32) int32 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(math.Round(f))
}

// Slice returns a copy of the label plane at (z,t). A mask shallower or
// shorter than the image volume is indexed leniently: out-of-range indices
// clamp to the nearest valid plane instead of failing.
func (m *Mask) Slice(z, t int) []int32 {
	z = clampIdx(z, m.Z)
	t = clampIdx(t, m.T)
	n := m.H * m.W
	off := (t*m.Z + z) * n
	out := make([]int32, n)
	copy(out, m.labels[off:off+n])
	return out
}

// Labels returns the nonzero label IDs in ascending order.
func (m *Mask) Labels() []int32 {
	out := make([]int32, 0, len(m.Colors))
	for lbl := range m.Colors {
		out = append(out, lbl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsVisible reports whether a label should be drawn. Unknown labels default
// to visible.
func (m *Mask) IsVisible(lbl int32) bool {
	if m.Visible == nil {
		return true
	}
	v, ok := m.Visible[lbl]
	return !ok || v
}

// SetAllVisible flips every known label to one visibility state.
func (m *Mask) SetAllVisible(visible bool) {
	for lbl := range m.Visible {
		m.Visible[lbl] = visible
	}
}

// InvertVisible toggles every known label's visibility.
func (m *Mask) InvertVisible() {
	for lbl, v := range m.Visible {
		m.Visible[lbl] = !v
	}
}

func clampIdx(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n-1 {
		return n - 1
	}
	return v
}

// matches reports whether the mask plane has the given image plane extent.
func (m *Mask) matches(w, h int) bool {
	return m.W == w && m.H == h
}
