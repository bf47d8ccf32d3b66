package loader

import (
	"fmt"

	"smiv/internal/volume"
	"smiv/internal/wsi"
)

// LoadWholeSlide decodes a downsampled overview of a whole-slide container:
// the coarsest pyramid level that still fits the configured bound, or the
// coarsest available when nothing fits. Full-resolution decode is never
// attempted.
func (l *Loader) LoadWholeSlide(path string) (*volume.Volume, error) {
	slide, err := wsi.Open(path)
	if err != nil {
		return nil, fmt.Errorf("whole-slide load failed for %q: %w", path, err)
	}
	defer slide.Close()

	level := slide.OverviewLevel(l.cfg.WholeSlide.OverviewBound)
	img, err := slide.DecodeLevel(level)
	if err != nil {
		return nil, fmt.Errorf("whole-slide load failed for %q: %w", path, err)
	}

	vol := FromImage(img)
	l.log.Info("loader", "loaded whole-slide overview", map[string]interface{}{
		"path": path, "level": level, "levels": len(slide.Levels()), "shape": vol.String(),
	})
	return vol, nil
}
