package overlay

import (
	"image"

	"smiv/internal/display"
)

// ResizeNearest resamples a label plane to a new extent with nearest
// neighbor sampling. Every output value is copied from exactly one input
// cell, so the result contains only labels present in the input and label
// IDs of any magnitude pass through untouched.
func ResizeNearest(labels []int32, srcW, srcH, dstW, dstH int) []int32 {
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}
	if srcW == dstW && srcH == dstH {
		out := make([]int32, len(labels))
		copy(out, labels)
		return out
	}

	out := make([]int32, dstW*dstH)
	xr := float64(srcW) / float64(dstW)
	yr := float64(srcH) / float64(dstH)
	for y := 0; y < dstH; y++ {
		sy := int(float64(y) * yr)
		if sy > srcH-1 {
			sy = srcH - 1
		}
		row := sy * srcW
		for x := 0; x < dstW; x++ {
			sx := int(float64(x) * xr)
			if sx > srcW-1 {
				sx = srcW - 1
			}
			out[y*dstW+x] = labels[row+sx]
		}
	}
	return out
}

// ApplyZoom crops and resamples a label plane through the exact zoom window
// the image pipeline uses, keeping mask and image co-registered under
// zoom and pan. Sampling stays nearest neighbor.
func ApplyZoom(labels []int32, w, h int, s display.Settings) []int32 {
	rect, active := display.ZoomRect(w, h, s)
	if !active {
		out := make([]int32, len(labels))
		copy(out, labels)
		return out
	}
	cropped := cropLabels(labels, w, rect)
	return ResizeNearest(cropped, rect.Dx(), rect.Dy(), w, h)
}

func cropLabels(labels []int32, w int, r image.Rectangle) []int32 {
	out := make([]int32, r.Dx()*r.Dy())
	for y := 0; y < r.Dy(); y++ {
		src := (r.Min.Y+y)*w + r.Min.X
		copy(out[y*r.Dx():(y+1)*r.Dx()], labels[src:src+r.Dx()])
	}
	return out
}
