// Package detect classifies input files by content into the closed set of
// formats the loaders understand. Detection is read-only and never fails
// hard: every probe swallows its own error and the chain falls through to
// Unknown with a message.
package detect

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"smiv/internal/dicomutil"
	"smiv/internal/wsi"
)

// Kind is the detected file class. Loader dispatch happens once on this
// value; no format-name strings flow downstream.
type Kind int

const (
	Unknown Kind = iota
	Dicom
	Volumetric
	Raster2D
	WholeSlide
)

func (k Kind) String() string {
	switch k {
	case Dicom:
		return "DICOM"
	case Volumetric:
		return "Volumetric"
	case Raster2D:
		return "Raster2D"
	case WholeSlide:
		return "WholeSlide"
	default:
		return "Unknown"
	}
}

// wholeSlideExts are container suffixes that warrant trying the whole-slide
// reader before anything else. Extension only picks the probe order; content
// still decides.
var wholeSlideExts = map[string]bool{
	".svs":    true,
	".scn":    true,
	".ndpi":   true,
	".qptiff": true,
	".bif":    true,
}

// Result pairs the classification with a human-readable metadata summary
// for the auxiliary panel.
type Result struct {
	Kind    Kind
	Summary string
}

// File probes path and returns its classification. Whole-slide containers
// are TIFF files, so they must be recognized before the generic raster
// probe claims them; DICOM files often lack the standard preamble, so the
// DICOM probe runs in tolerant mode and a positive match additionally
// requires declared pixel dimensions.
func File(path string) Result {
	ext := strings.ToLower(filepath.Ext(path))

	if wholeSlideExts[ext] {
		if summary, ok := tryWholeSlide(path); ok {
			return Result{Kind: WholeSlide, Summary: summary}
		}
	}

	if summary, ok := tryDicom(path); ok {
		return Result{Kind: Dicom, Summary: summary}
	}

	if summary, ok := tryVolumetric(path); ok {
		return Result{Kind: Volumetric, Summary: summary}
	}

	if summary, ok := tryRaster(path); ok {
		return Result{Kind: Raster2D, Summary: summary}
	}

	if summary, ok := tryWholeSlide(path); ok {
		return Result{Kind: WholeSlide, Summary: summary}
	}

	return Result{
		Kind:    Unknown,
		Summary: fmt.Sprintf("Error: unknown or unsupported file format: %s", filepath.Base(path)),
	}
}

// tryDicom header-parses the file without touching pixel data, accepting
// preamble-less meta streams. A dataset that carries no Rows/Columns
// (structured reports, presentation states) does not count as displayable
// DICOM.
func tryDicom(path string) (string, bool) {
	ds, err := dicomutil.ParseFile(path, dicom.SkipPixelData())
	if err != nil {
		return "", false
	}

	rows, okR := dicomutil.FirstInt(&ds, tag.Rows)
	cols, okC := dicomutil.FirstInt(&ds, tag.Columns)
	if !okR || !okC || rows <= 0 || cols <= 0 {
		return "", false
	}

	modality, _ := dicomutil.FirstString(&ds, tag.Modality)
	frames, hasFrames := dicomutil.FirstInt(&ds, tag.NumberOfFrames)

	var b strings.Builder
	b.WriteString("===== DICOM Info =====\n")
	fmt.Fprintf(&b, "Modality: %s\n", orUnknown(modality))
	fmt.Fprintf(&b, "Pixel Matrix: %dx%d\n", cols, rows)
	if hasFrames && frames > 1 {
		fmt.Fprintf(&b, "Frames: %d => pre-stacked volume\n", frames)
	} else {
		b.WriteString("Frames: 1 => 2D DICOM\n")
	}
	if uid, ok := dicomutil.FirstString(&ds, tag.SeriesInstanceUID); ok {
		fmt.Fprintf(&b, "Series UID: %s\n", uid)
	}
	b.WriteString("=======================\n")
	return b.String(), true
}

// tryRaster decodes only the image header, never the pixel payload.
func tryRaster(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", false
	}

	switch format {
	case "png", "jpeg":
		return fmt.Sprintf("===== %s Info =====\n2D standard image, %dx%d.\n=========================\n",
			strings.ToUpper(format), cfg.Width, cfg.Height), true
	case "tiff":
		return fmt.Sprintf("===== TIFF Info =====\nPossibly multi-page; first page %dx%d is used.\n=========================\n",
			cfg.Width, cfg.Height), true
	}
	return "", false
}

func tryWholeSlide(path string) (string, bool) {
	slide, err := wsi.Open(path)
	if err != nil {
		return "", false
	}
	defer slide.Close()

	levels := slide.Levels()
	if len(levels) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString("===== Whole Slide Image =====\n")
	fmt.Fprintf(&b, "Dimensions: %dx%d\n", levels[0].W, levels[0].H)
	fmt.Fprintf(&b, "Levels: %d\n", len(levels))
	b.WriteString("Level Dimensions:")
	for _, lv := range levels {
		fmt.Fprintf(&b, " %dx%d", lv.W, lv.H)
	}
	b.WriteString("\n=============================\n")
	return b.String(), true
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
