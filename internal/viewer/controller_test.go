package viewer

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smiv/internal/config"
	"smiv/internal/detect"
	"smiv/internal/logger"
	"smiv/internal/preset"
)

func writeGrayPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// writeNifti writes a minimal little-endian uint8 NIfTI-1 volume.
func writeNifti(t *testing.T, dir, name string, nx, ny, nz, nt int) string {
	t.Helper()
	hdr := make([]byte, 352)
	binary.LittleEndian.PutUint32(hdr[0:4], 348)
	dims := []int{nx, ny, nz, nt}
	binary.LittleEndian.PutUint16(hdr[40:42], 4)
	for i, d := range dims {
		binary.LittleEndian.PutUint16(hdr[42+2*i:44+2*i], uint16(d))
	}
	binary.LittleEndian.PutUint16(hdr[70:72], 2)
	binary.LittleEndian.PutUint32(hdr[108:112], math.Float32bits(352))
	copy(hdr[344:], "n+1\x00")

	voxels := make([]byte, nx*ny*nz*nt)
	for i := range voxels {
		voxels[i] = uint8(i % 251)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, append(hdr, voxels...), 0o644))
	return path
}

func writeRGBPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newController(t *testing.T, files ...string) *Controller {
	t.Helper()
	c, err := New(files, config.DefaultConfig(), logger.NopLogger{}, nil)
	require.NoError(t, err)
	return c
}

func TestNewRequiresFiles(t *testing.T) {
	_, err := New(nil, config.DefaultConfig(), logger.NopLogger{}, nil)
	assert.Error(t, err)
}

func TestLoadCurrentRaster(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeGrayPNG(t, dir, "a.png", 16, 8))

	require.NoError(t, c.LoadCurrent())
	assert.Equal(t, detect.Raster2D, c.Kind)
	require.NotNil(t, c.Vol)
	assert.Equal(t, 8, c.Vol.H)
	assert.Equal(t, 16, c.Vol.W)
	assert.Equal(t, 0, c.Z)
	assert.Equal(t, 0, c.T)
}

func TestLoadCurrentVolumeDefaultsToMiddleSlice(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeNifti(t, dir, "v.nii", 4, 4, 5, 3))

	require.NoError(t, c.LoadCurrent())
	assert.Equal(t, detect.Volumetric, c.Kind)
	assert.Equal(t, 5, c.Vol.Z)
	assert.Equal(t, 3, c.Vol.T)
	assert.Equal(t, 2, c.Z)
	assert.Equal(t, 1, c.T)
}

func TestLoadFailureKeepsState(t *testing.T) {
	dir := t.TempDir()
	good := writeGrayPNG(t, dir, "good.png", 4, 4)
	bad := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	c := newController(t, good, bad)
	require.NoError(t, c.LoadCurrent())
	prior := c.Vol

	c.Index = 1
	assert.Error(t, c.LoadCurrent())
	assert.Same(t, prior, c.Vol, "failed load must not discard the shown volume")
}

func TestNavigationWrapsAround(t *testing.T) {
	dir := t.TempDir()
	c := newController(t,
		writeGrayPNG(t, dir, "a.png", 4, 4),
		writeGrayPNG(t, dir, "b.png", 4, 4),
		writeGrayPNG(t, dir, "c.png", 4, 4),
	)

	require.NoError(t, c.LoadCurrent())
	require.NoError(t, c.Next())
	assert.Equal(t, 1, c.Index)
	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	assert.Equal(t, 0, c.Index, "next past the end wraps to the first file")

	require.NoError(t, c.Prev())
	assert.Equal(t, 2, c.Index, "prev before the start wraps to the last file")
}

func TestFileChangeResetsZoomAndPan(t *testing.T) {
	dir := t.TempDir()
	c := newController(t,
		writeGrayPNG(t, dir, "a.png", 8, 8),
		writeGrayPNG(t, dir, "b.png", 8, 8),
	)
	require.NoError(t, c.LoadCurrent())

	c.SetZoomEnabled(true)
	c.WheelZoom(1)
	c.PanBy(10, 10)
	require.NotEqual(t, 1.0, c.Zoom)

	require.NoError(t, c.Next())
	assert.Equal(t, 1.0, c.Zoom)
	assert.Equal(t, 0.0, c.PanX)
	assert.Equal(t, 0.0, c.PanY)
}

func TestWheelZoomClamped(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeGrayPNG(t, dir, "a.png", 4, 4))
	require.NoError(t, c.LoadCurrent())

	// Disabled zoom ignores the wheel.
	c.WheelZoom(1)
	assert.Equal(t, 1.0, c.Zoom)

	c.SetZoomEnabled(true)
	for i := 0; i < 100; i++ {
		c.WheelZoom(1)
	}
	assert.Equal(t, 10.0, c.Zoom)

	for i := 0; i < 100; i++ {
		c.WheelZoom(-1)
	}
	assert.Equal(t, 0.5, c.Zoom)
}

func TestZoomToggleResets(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeGrayPNG(t, dir, "a.png", 4, 4))
	require.NoError(t, c.LoadCurrent())

	c.SetZoomEnabled(true)
	c.WheelZoom(1)
	c.PanBy(5, 5)

	c.SetZoomEnabled(false)
	assert.Equal(t, 1.0, c.Zoom)
	assert.Equal(t, 0.0, c.PanX)
	assert.Equal(t, 0.0, c.PanY)
}

func TestStepZClampsAndPreservesView(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeNifti(t, dir, "v.nii", 4, 4, 5, 1))
	require.NoError(t, c.LoadCurrent())

	c.SetZoomEnabled(true)
	c.WheelZoom(1)
	zoom := c.Zoom

	c.StepZ(100)
	assert.Equal(t, 4, c.Z)
	c.StepZ(-100)
	assert.Equal(t, 0, c.Z)
	assert.Equal(t, zoom, c.Zoom, "slice steps keep the zoom window")
}

func TestRenderAndInspect(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeGrayPNG(t, dir, "a.png", 16, 8))
	require.NoError(t, c.LoadCurrent())

	r, err := c.Render(0, 0)
	require.NoError(t, err)
	require.NotNil(t, r.Image)
	assert.Equal(t, 16, r.ScaledW)
	assert.Equal(t, 8, r.ScaledH)
	assert.Same(t, r, c.LastRender())

	insp := c.Inspect(3, 2)
	assert.Contains(t, insp, "x=3, y=2")
	assert.Contains(t, insp, "I=")

	assert.Equal(t, "", c.Inspect(-1, 0))
	assert.Equal(t, "", c.Inspect(100, 100))
}

func TestRenderFitsView(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeGrayPNG(t, dir, "a.png", 100, 50))
	require.NoError(t, c.LoadCurrent())

	r, err := c.Render(50, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, r.ScaledW)
	assert.Equal(t, 25, r.ScaledH)
}

func TestStatusLine(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeNifti(t, dir, "v.nii", 4, 4, 3, 1))
	require.NoError(t, c.LoadCurrent())

	s := c.StatusLine("")
	assert.Contains(t, s, "File 1/1")
	assert.Contains(t, s, "Volumetric")
	assert.Contains(t, s, "Z 2/3")
	assert.Contains(t, s, "T 1/1")

	c.SetZoomEnabled(true)
	c.Preproc.WLEnabled = true
	s = c.StatusLine("x=1, y=1 | I=40")
	assert.Contains(t, s, "Zoom 1.00")
	assert.Contains(t, s, "WL 40/400")
	assert.Contains(t, s, "I=40")
}

func TestPresetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := writeGrayPNG(t, dir, "a.png", 4, 4)
	store := preset.NewStore(filepath.Join(dir, "presets.json"))

	c, err := New([]string{file}, config.DefaultConfig(), logger.NopLogger{}, store)
	require.NoError(t, err)
	require.NoError(t, c.LoadCurrent())

	c.Preproc.HistEq = true
	c.Preproc.Brightness = 25
	c.OverlayAlpha = 60
	require.NoError(t, c.SavePreset())

	// A fresh session over the same file restores the settings on load.
	c2, err := New([]string{file}, config.DefaultConfig(), logger.NopLogger{}, store)
	require.NoError(t, err)
	require.NoError(t, c2.LoadCurrent())

	assert.True(t, c2.Preproc.HistEq)
	assert.Equal(t, 25, c2.Preproc.Brightness)
	assert.Equal(t, 60, c2.OverlayAlpha)
}

func TestApplyPresetMissing(t *testing.T) {
	dir := t.TempDir()
	file := writeGrayPNG(t, dir, "a.png", 4, 4)
	store := preset.NewStore(filepath.Join(dir, "presets.json"))

	c, err := New([]string{file}, config.DefaultConfig(), logger.NopLogger{}, store)
	require.NoError(t, err)
	require.NoError(t, c.LoadCurrent())

	ok, err := c.ApplyPreset()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAutoWindowLevelSkipsRGB(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeRGBPNG(t, dir, "rgb.png", 4, 4))
	require.NoError(t, c.LoadCurrent())
	require.True(t, c.Vol.IsRGB())

	c.AutoWindowLevel()
	assert.False(t, c.Preproc.WLEnabled)
}

func TestWindowLevelRefusedForRGB(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeRGBPNG(t, dir, "rgb.png", 4, 4))
	require.NoError(t, c.LoadCurrent())

	assert.False(t, c.CanWindowLevel())

	c.SetWLEnabled(true)
	assert.False(t, c.Preproc.WLEnabled, "RGB volumes never enable windowing")
	assert.NotContains(t, c.StatusLine(""), "WL")

	assert.Error(t, c.ApplyCTPreset("Bone"))
	assert.False(t, c.Preproc.WLEnabled)
}

func TestWindowLevelAllowedForGrayscale(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeGrayPNG(t, dir, "a.png", 4, 4))
	require.NoError(t, c.LoadCurrent())

	assert.True(t, c.CanWindowLevel())

	c.SetWLEnabled(true)
	assert.True(t, c.Preproc.WLEnabled)
	assert.Contains(t, c.StatusLine(""), "WL 40/400")

	c.SetWLEnabled(false)
	assert.False(t, c.Preproc.WLEnabled)
}

func TestSetZSetTClampToExtent(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeNifti(t, dir, "v.nii", 4, 4, 5, 3))
	require.NoError(t, c.LoadCurrent())

	c.SetZ(99)
	assert.Equal(t, 4, c.Z)
	c.SetZ(-7)
	assert.Equal(t, 0, c.Z)

	c.SetT(99)
	assert.Equal(t, 2, c.T)
	c.SetT(-1)
	assert.Equal(t, 0, c.T)
}

func TestSetZSingleSliceStaysInRange(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeGrayPNG(t, dir, "a.png", 4, 4))
	require.NoError(t, c.LoadCurrent())

	c.SetZ(5)
	assert.Equal(t, 0, c.Z)
	assert.Contains(t, c.StatusLine(""), "Z 1/1")
}

func TestApplyCTPreset(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, writeGrayPNG(t, dir, "a.png", 4, 4))
	require.NoError(t, c.LoadCurrent())

	require.NoError(t, c.ApplyCTPreset("Lung"))
	assert.True(t, c.Preproc.WLEnabled)
	assert.Equal(t, -600.0, c.Preproc.WL.Center)
	assert.Equal(t, 1500.0, c.Preproc.WL.Width)

	assert.Error(t, c.ApplyCTPreset("Brain"))
}
