package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(vals []float32, h, w int) *Frame {
	return GrayFrame(vals, h, w)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want []float32
	}{
		{"FullRange", []float32{0, 50, 100}, []float32{0, 127.5, 255}},
		{"Shifted", []float32{-100, 0, 100}, []float32{0, 127.5, 255}},
		{"Constant", []float32{7, 7, 7}, []float32{0, 0, 0}},
		{"SingleValue", []float32{42}, []float32{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(frameOf(tt.in, 1, len(tt.in)))
			require.Len(t, out.Pix, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], out.Pix[i], 1e-3)
			}
		})
	}
}

func TestApplyWindowRange(t *testing.T) {
	in := frameOf([]float32{-1000, -160, 40, 240, 3000}, 1, 5)
	out := ApplyWindow(in, Window{Center: 40, Width: 400})

	// Below the window clips to 0, above clips to 255, center maps to mid.
	assert.InDelta(t, 0, out.Pix[0], 1e-3)
	assert.InDelta(t, 0, out.Pix[1], 1e-3)
	assert.InDelta(t, 127.5, out.Pix[2], 1e-3)
	assert.InDelta(t, 255, out.Pix[3], 1e-3)
	assert.InDelta(t, 255, out.Pix[4], 1e-3)
}

func TestApplyWindowMonotonic(t *testing.T) {
	in := frameOf([]float32{-500, -100, 0, 100, 500, 900}, 1, 6)
	out := ApplyWindow(in, Window{Center: 100, Width: 700})

	for i := 1; i < len(out.Pix); i++ {
		assert.GreaterOrEqual(t, out.Pix[i], out.Pix[i-1])
	}
}

func TestApplyWindowDegenerateWidth(t *testing.T) {
	in := frameOf([]float32{39, 40, 41}, 1, 3)
	out := ApplyWindow(in, Window{Center: 40, Width: 0})

	// Width clamps to 1, yielding a step around the center.
	assert.InDelta(t, 0, out.Pix[0], 1e-3)
	assert.InDelta(t, 255, out.Pix[2], 1e-3)
}

func TestAutoWindow(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, DefaultWindow, AutoWindow(nil))
	})

	t.Run("Constant", func(t *testing.T) {
		assert.Equal(t, DefaultWindow, AutoWindow([]float32{5, 5, 5, 5}))
	})

	t.Run("Spread", func(t *testing.T) {
		pix := make([]float32, 1000)
		for i := range pix {
			pix[i] = float32(i)
		}
		w := AutoWindow(pix)
		assert.InDelta(t, 500, w.Center, 30)
		assert.Greater(t, w.Width, 900.0)
	})

	t.Run("WidthNeverBelowOne", func(t *testing.T) {
		w := AutoWindow([]float32{10, 10, 10, 10.4})
		assert.GreaterOrEqual(t, w.Width, 1.0)
	})
}

func TestCTPresets(t *testing.T) {
	assert.Equal(t, Window{Center: 40, Width: 400}, CTPresets["Soft tissue"])
	assert.Equal(t, Window{Center: -600, Width: 1500}, CTPresets["Lung"])
	assert.Equal(t, Window{Center: 300, Width: 2000}, CTPresets["Bone"])
}

func TestToImageClamp(t *testing.T) {
	f := frameOf([]float32{-20, 0, 254.6, 400}, 1, 4)
	img := f.ToImage()

	b := img.Bounds()
	require.Equal(t, 4, b.Dx())

	r0, _, _, _ := img.At(0, 0).RGBA()
	r2, _, _, _ := img.At(2, 0).RGBA()
	r3, _, _, _ := img.At(3, 0).RGBA()
	assert.Equal(t, uint32(0), r0>>8)
	assert.Equal(t, uint32(255), r2>>8)
	assert.Equal(t, uint32(255), r3>>8)
}
