package display

import (
	"gocv.io/x/gocv"
)

// matFromFrame clips the frame to 8-bit and copies it into a Mat. The
// OpenCV histogram, colormap and resampling primitives used here operate
// on 8-bit data, so every round trip through a Mat casts to uint8.
func matFromFrame(f *Frame) gocv.Mat {
	if f.Ch == 1 {
		mat := gocv.NewMatWithSize(f.H, f.W, gocv.MatTypeCV8UC1)
		for y := 0; y < f.H; y++ {
			for x := 0; x < f.W; x++ {
				mat.SetUCharAt(y, x, clampU8(f.At(y, x, 0)))
			}
		}
		return mat
	}

	// OpenCV convention is BGR channel order.
	mat := gocv.NewMatWithSize(f.H, f.W, gocv.MatTypeCV8UC3)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			mat.SetUCharAt3(y, x, 0, clampU8(f.At(y, x, 2)))
			mat.SetUCharAt3(y, x, 1, clampU8(f.At(y, x, 1)))
			mat.SetUCharAt3(y, x, 2, clampU8(f.At(y, x, 0)))
		}
	}
	return mat
}

// frameFromMat copies a Mat back into a float frame, undoing the BGR order
// for 3-channel data.
func frameFromMat(mat gocv.Mat) *Frame {
	rows, cols := mat.Rows(), mat.Cols()

	if mat.Channels() == 1 {
		f := NewFrame(rows, cols, 1)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				f.Set(y, x, 0, float32(mat.GetUCharAt(y, x)))
			}
		}
		return f
	}

	f := NewFrame(rows, cols, 3)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			f.Set(y, x, 0, float32(mat.GetUCharAt3(y, x, 2)))
			f.Set(y, x, 1, float32(mat.GetUCharAt3(y, x, 1)))
			f.Set(y, x, 2, float32(mat.GetUCharAt3(y, x, 0)))
		}
	}
	return f
}
