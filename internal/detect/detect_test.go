package detect

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func niftiHeaderBytes(dims []int16) []byte {
	buf := make([]byte, 352)
	binary.LittleEndian.PutUint32(buf[0:4], 348)
	binary.LittleEndian.PutUint16(buf[40:42], uint16(len(dims)))
	for i, d := range dims {
		binary.LittleEndian.PutUint16(buf[42+2*i:44+2*i], uint16(d))
	}
	binary.LittleEndian.PutUint16(buf[70:72], 2) // uint8 voxels
	binary.LittleEndian.PutUint32(buf[108:112], math.Float32bits(352))
	copy(buf[344:], "n+1\x00")
	return buf
}

func TestFileRaster(t *testing.T) {
	path := writeTemp(t, "scan.png", pngBytes(t, 32, 16))

	res := File(path)
	assert.Equal(t, Raster2D, res.Kind)
	assert.Contains(t, res.Summary, "PNG Info")
	assert.Contains(t, res.Summary, "32x16")
}

func TestFileVolumetric(t *testing.T) {
	path := writeTemp(t, "brain.nii", niftiHeaderBytes([]int16{4, 4, 3}))

	res := File(path)
	assert.Equal(t, Volumetric, res.Kind)
	assert.Contains(t, res.Summary, "NIfTI")
}

func TestFileUnknown(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Garbage", bytes.Repeat([]byte{0x5A}, 600)},
		{"Empty", nil},
		{"TooShort", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "data.bin", tt.data)
			res := File(path)
			assert.Equal(t, Unknown, res.Kind)
			assert.Contains(t, res.Summary, "unknown or unsupported")
		})
	}
}

func TestFileMissing(t *testing.T) {
	res := File(filepath.Join(t.TempDir(), "nope.dcm"))
	assert.Equal(t, Unknown, res.Kind)
}

func TestWholeSlideExtDoesNotShortCircuitContent(t *testing.T) {
	// A PNG with a slide extension is still recognized by content once the
	// whole-slide probe rejects it.
	path := writeTemp(t, "slide.svs", pngBytes(t, 8, 8))
	res := File(path)
	assert.Equal(t, Raster2D, res.Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "DICOM", Dicom.String())
	assert.Equal(t, "Volumetric", Volumetric.String())
	assert.Equal(t, "Raster2D", Raster2D.String())
	assert.Equal(t, "WholeSlide", WholeSlide.String())
	assert.Equal(t, "Unknown", Unknown.String())
}
