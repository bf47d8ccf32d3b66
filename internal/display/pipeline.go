package display

import (
	"image"

	"gocv.io/x/gocv"
)

// Settings is everything the pipeline reads. The pipeline is a pure
// function of (frame, settings): it never mutates its input and holds no
// state between calls, so identical inputs give byte-identical output.
type Settings struct {
	HistEq bool

	BrightnessContrast bool
	Brightness         float64 // -100..100
	Contrast           float64 // 1..5

	Colormap bool

	ZoomEnabled bool
	Zoom        float64
	PanX, PanY  float64
}

// NeutralSettings leaves every step disabled.
func NeutralSettings() Settings {
	return Settings{Contrast: 1, Zoom: 1}
}

// Apply runs the fixed-order transform chain on one already-windowed frame.
// Order: histogram equalization, brightness/contrast, colormap, zoom+pan.
// Each step is optional; output stays float and unclamped (final clipping
// happens in Frame.ToImage).
func Apply(f *Frame, s Settings) *Frame {
	out := f.Clone()

	// Equalization is defined on single-channel histograms only; RGB
	// frames skip it rather than corrupting color.
	if s.HistEq && out.Ch == 1 {
		out = equalize(out)
	}

	if s.BrightnessContrast {
		for i, v := range out.Pix {
			out.Pix[i] = v*float32(s.Contrast) + float32(s.Brightness)
		}
	}

	if s.Colormap && out.Ch == 1 {
		out = pseudocolor(out)
	}

	if rect, active := ZoomRect(out.W, out.H, s); active {
		out = zoomResample(out, rect)
	}

	return out
}

// ZoomRect computes the crop window for the zoom+pan step: a sub-rectangle
// of size (w/zoom, h/zoom) centered at the image center plus the pan
// offset, clamped to the image by shifting (never shrinking). The same
// geometry drives the mask overlay so both planes stay co-registered.
// active is false for the neutral zoom=1, pan=(0,0) fast path.
func ZoomRect(w, h int, s Settings) (image.Rectangle, bool) {
	if !s.ZoomEnabled || s.Zoom <= 0 {
		return image.Rectangle{}, false
	}
	if s.Zoom == 1 && s.PanX == 0 && s.PanY == 0 {
		return image.Rectangle{}, false
	}

	cw := int(float64(w) / s.Zoom)
	ch := int(float64(h) / s.Zoom)
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	if cw > w {
		cw = w
	}
	if ch > h {
		ch = h
	}

	cx := float64(w)/2 + s.PanX
	cy := float64(h)/2 + s.PanY

	x1 := int(cx) - cw/2
	y1 := int(cy) - ch/2

	if x1 < 0 {
		x1 = 0
	}
	if y1 < 0 {
		y1 = 0
	}
	if x1+cw > w {
		x1 = w - cw
	}
	if y1+ch > h {
		y1 = h - ch
	}

	return image.Rect(x1, y1, x1+cw, y1+ch), true
}

// equalize runs OpenCV histogram equalization on the 8-bit rendition of
// the frame.
func equalize(f *Frame) *Frame {
	src := matFromFrame(f)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.EqualizeHist(src, &dst)
	return frameFromMat(dst)
}

// pseudocolor maps a single-channel frame through the Jet transfer
// function, producing a 3-channel frame.
func pseudocolor(f *Frame) *Frame {
	src := matFromFrame(f)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.ApplyColorMap(src, &dst, gocv.ColormapJet)
	return frameFromMat(dst)
}

// zoomResample crops the zoom window and resamples it back to the frame's
// original size with linear interpolation.
func zoomResample(f *Frame, rect image.Rectangle) *Frame {
	cropped := crop(f, rect)

	src := matFromFrame(cropped)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(src, &dst, image.Pt(f.W, f.H), 0, 0, gocv.InterpolationLinear)
	return frameFromMat(dst)
}

// ScaleLinear resamples a frame to an arbitrary target size, used for the
// final fit-to-surface scaling of image data.
func ScaleLinear(f *Frame, w, h int) *Frame {
	if w == f.W && h == f.H {
		return f.Clone()
	}
	src := matFromFrame(f)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(src, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
	return frameFromMat(dst)
}

func crop(f *Frame, r image.Rectangle) *Frame {
	out := NewFrame(r.Dy(), r.Dx(), f.Ch)
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			for c := 0; c < f.Ch; c++ {
				out.Set(y, x, c, f.At(r.Min.Y+y, r.Min.X+x, c))
			}
		}
	}
	return out
}
