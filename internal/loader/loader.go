// Package loader turns detected files into normalized volumes. Each format
// has one adapter; dispatch happens exactly once, on the detected kind.
package loader

import (
	"fmt"

	"smiv/internal/config"
	"smiv/internal/detect"
	"smiv/internal/logger"
	"smiv/internal/volume"
)

// Loader owns the per-format adapters and their shared collaborators.
type Loader struct {
	cfg *config.Config
	log logger.Logger
}

func New(cfg *config.Config, log logger.Logger) *Loader {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Loader{cfg: cfg, log: log}
}

// Load produces the normalized volume for a classified file. Unknown files
// and unreadable content yield a descriptive error; the caller keeps its
// previous state and surfaces the message.
func (l *Loader) Load(path string, kind detect.Kind) (*volume.Volume, error) {
	switch kind {
	case detect.Dicom:
		return l.LoadDicom(path)
	case detect.Volumetric:
		return l.LoadNifti(path)
	case detect.Raster2D:
		return l.LoadRaster(path)
	case detect.WholeSlide:
		return l.LoadWholeSlide(path)
	default:
		return nil, fmt.Errorf("cannot load %q: unknown format", path)
	}
}
