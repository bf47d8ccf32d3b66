package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// axial identity orientation: rows along x, columns along y, normal +z.
var axial = []float64{1, 0, 0, 0, 1, 0}

func TestNormalProjection(t *testing.T) {
	h := SliceHeader{
		Position:    []float64{0, 0, 12.5},
		Orientation: axial,
	}
	p, ok := h.NormalProjection()
	require.True(t, ok)
	assert.InDelta(t, 12.5, p, 1e-9)
}

func TestNormalProjectionMissingGeometry(t *testing.T) {
	tests := []struct {
		name string
		hdr  SliceHeader
	}{
		{"NoPosition", SliceHeader{Orientation: axial}},
		{"NoOrientation", SliceHeader{Position: []float64{0, 0, 1}}},
		{"Empty", SliceHeader{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.hdr.NormalProjection()
			assert.False(t, ok)
		})
	}
}

func TestSortSlicesByGeometry(t *testing.T) {
	slices := []SliceHeader{
		{Path: "c", Position: []float64{0, 0, 30}, Orientation: axial, InstanceNumber: intPtr(1)},
		{Path: "a", Position: []float64{0, 0, 10}, Orientation: axial, InstanceNumber: intPtr(3)},
		{Path: "b", Position: []float64{0, 0, 20}, Orientation: axial, InstanceNumber: intPtr(2)},
	}
	SortSlices(slices)

	// Geometry wins even when instance numbers disagree.
	assert.Equal(t, []string{"a", "b", "c"}, paths(slices))
}

func TestSortSlicesBySliceLocation(t *testing.T) {
	slices := []SliceHeader{
		{Path: "top", SliceLocation: floatPtr(50)},
		{Path: "bottom", SliceLocation: floatPtr(-50)},
		{Path: "middle", SliceLocation: floatPtr(0)},
	}
	SortSlices(slices)
	assert.Equal(t, []string{"bottom", "middle", "top"}, paths(slices))
}

func TestSortSlicesByInstanceNumber(t *testing.T) {
	slices := []SliceHeader{
		{Path: "third", InstanceNumber: intPtr(12)},
		{Path: "first", InstanceNumber: intPtr(3)},
		{Path: "second", InstanceNumber: intPtr(7)},
	}
	SortSlices(slices)
	assert.Equal(t, []string{"first", "second", "third"}, paths(slices))
}

func TestSortSlicesFilenameFallback(t *testing.T) {
	slices := []SliceHeader{
		{Path: "im_02.dcm"},
		{Path: "im_10.dcm"},
		{Path: "im_01.dcm"},
	}
	SortSlices(slices)
	assert.Equal(t, []string{"im_01.dcm", "im_02.dcm", "im_10.dcm"}, paths(slices))
}

func TestSortSlicesMixedTiers(t *testing.T) {
	// Slices without geometry fall back tier by tier without panicking.
	slices := []SliceHeader{
		{Path: "geo", Position: []float64{0, 0, 5}, Orientation: axial},
		{Path: "loc", SliceLocation: floatPtr(1)},
		{Path: "none"},
	}
	SortSlices(slices)
	assert.Len(t, slices, 3)
}

func paths(slices []SliceHeader) []string {
	out := make([]string, len(slices))
	for i, s := range slices {
		out[i] = s.Path
	}
	return out
}
