// Package display maps raw slice intensities to displayable frames: the
// windowing engine converts modality units to a 0..255 working range, and
// the processing pipeline applies the optional per-redraw transform chain.
package display

import (
	"image"
	"image/color"

	"smiv/internal/volume"
)

// Frame is a float32 working image, single channel or interleaved RGB.
// Values stay unclamped between pipeline steps; clipping to 8-bit happens
// exactly once, in ToImage.
type Frame struct {
	Pix  []float32
	W, H int
	Ch   int // 1 or 3
}

func NewFrame(h, w, ch int) *Frame {
	return &Frame{Pix: make([]float32, h*w*ch), W: w, H: h, Ch: ch}
}

// GrayFrame wraps a volume plane copy as a single-channel frame.
func GrayFrame(pix []float32, h, w int) *Frame {
	return &Frame{Pix: pix, W: w, H: h, Ch: 1}
}

// RGBFrame builds a frame from a color raster volume.
func RGBFrame(v *volume.Volume) *Frame {
	return &Frame{Pix: v.RGBData(), W: v.W, H: v.H, Ch: 3}
}

func (f *Frame) At(y, x, c int) float32 {
	return f.Pix[(y*f.W+x)*f.Ch+c]
}

func (f *Frame) Set(y, x, c int, v float32) {
	f.Pix[(y*f.W+x)*f.Ch+c] = v
}

func (f *Frame) Clone() *Frame {
	out := &Frame{Pix: make([]float32, len(f.Pix)), W: f.W, H: f.H, Ch: f.Ch}
	copy(out.Pix, f.Pix)
	return out
}

// ToImage clips to [0,255] and converts to the 8-bit display form. This is
// the single clamping point of the render path.
func (f *Frame) ToImage() image.Image {
	if f.Ch == 1 {
		img := image.NewGray(image.Rect(0, 0, f.W, f.H))
		for y := 0; y < f.H; y++ {
			for x := 0; x < f.W; x++ {
				img.SetGray(x, y, color.Gray{Y: clampU8(f.At(y, x, 0))})
			}
		}
		return img
	}
	img := image.NewRGBA(image.Rect(0, 0, f.W, f.H))
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: clampU8(f.At(y, x, 0)),
				G: clampU8(f.At(y, x, 1)),
				B: clampU8(f.At(y, x, 2)),
				A: 255,
			})
		}
	}
	return img
}

func clampU8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
