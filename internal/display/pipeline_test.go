package display

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoomRect(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		settings Settings
		want     image.Rectangle
		active   bool
	}{
		{
			name:     "Disabled",
			w:        100, h: 80,
			settings: Settings{Zoom: 2},
			active:   false,
		},
		{
			name:     "NeutralFastPath",
			w:        100, h: 80,
			settings: Settings{ZoomEnabled: true, Zoom: 1},
			active:   false,
		},
		{
			name:     "CenteredZoom2",
			w:        100, h: 80,
			settings: Settings{ZoomEnabled: true, Zoom: 2},
			want:     image.Rect(25, 20, 75, 60),
			active:   true,
		},
		{
			name:     "PanShiftsWindow",
			w:        100, h: 80,
			settings: Settings{ZoomEnabled: true, Zoom: 2, PanX: 10, PanY: -5},
			want:     image.Rect(35, 15, 85, 55),
			active:   true,
		},
		{
			name:     "PanClampedByShifting",
			w:        100, h: 80,
			settings: Settings{ZoomEnabled: true, Zoom: 2, PanX: 1000, PanY: 1000},
			want:     image.Rect(50, 40, 100, 80),
			active:   true,
		},
		{
			name:     "NegativePanClamped",
			w:        100, h: 80,
			settings: Settings{ZoomEnabled: true, Zoom: 2, PanX: -1000, PanY: -1000},
			want:     image.Rect(0, 0, 50, 40),
			active:   true,
		},
		{
			name:     "ExtremeZoomKeepsOnePixel",
			w:        10, h: 10,
			settings: Settings{ZoomEnabled: true, Zoom: 100},
			want:     image.Rect(5, 5, 6, 6),
			active:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rect, active := ZoomRect(tt.w, tt.h, tt.settings)
			require.Equal(t, tt.active, active)
			if active {
				assert.Equal(t, tt.want, rect)
				// The window never leaves the image.
				assert.True(t, rect.In(image.Rect(0, 0, tt.w, tt.h)))
			}
		})
	}
}

func TestApplyBrightnessContrast(t *testing.T) {
	f := frameOf([]float32{0, 100, 200}, 1, 3)
	out := Apply(f, Settings{
		BrightnessContrast: true,
		Brightness:         10,
		Contrast:           2,
		Zoom:               1,
	})

	assert.InDelta(t, 10, out.Pix[0], 1e-3)
	assert.InDelta(t, 210, out.Pix[1], 1e-3)
	assert.InDelta(t, 410, out.Pix[2], 1e-3)

	// Input frame is untouched.
	assert.Equal(t, float32(0), f.Pix[0])
}

func TestApplyNeutralIsIdentity(t *testing.T) {
	f := frameOf([]float32{1, 2, 3, 4}, 2, 2)
	out := Apply(f, NeutralSettings())
	assert.Equal(t, f.Pix, out.Pix)
}

func TestApplyIdempotentForSameInput(t *testing.T) {
	f := frameOf([]float32{5, 10, 15, 20}, 2, 2)
	s := Settings{BrightnessContrast: true, Brightness: -3, Contrast: 1.5, Zoom: 1}

	a := Apply(f, s)
	b := Apply(f, s)
	assert.Equal(t, a.Pix, b.Pix)
}
