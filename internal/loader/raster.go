package loader

import (
	"fmt"
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"smiv/internal/volume"
)

// LoadRaster decodes a PNG/JPEG/TIFF into either an RGB raster or a
// grayscale depth-1 volume. Multi-page TIFFs contribute only their first
// page; the registered decoder already stops there.
func (l *Loader) LoadRaster(path string) (*volume.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("raster decode failed for %q: %w", path, err)
	}

	vol := FromImage(img)
	l.log.Info("loader", "loaded raster image", map[string]interface{}{
		"path": path, "format": format, "shape": vol.String(),
	})
	return vol, nil
}

// FromImage converts a decoded image to the normalized volume form,
// keeping color when the source has any and collapsing true grayscale to a
// single channel.
func FromImage(img image.Image) *volume.Volume {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()

	if isGrayscale(img) {
		vol := volume.NewGray4D(h, w, 1, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				vol.Set(y, x, 0, 0, float32(r>>8))
			}
		}
		return vol
	}

	vol := volume.NewRGB(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			vol.SetRGB(y, x, 0, float32(r>>8))
			vol.SetRGB(y, x, 1, float32(g>>8))
			vol.SetRGB(y, x, 2, float32(bb>>8))
		}
	}
	return vol
}

func isGrayscale(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}
	return false
}
