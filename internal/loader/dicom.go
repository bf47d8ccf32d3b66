package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"smiv/internal/dicomutil"
	"smiv/internal/volume"
)

// LoadDicom loads a DICOM file, preferring series assembly over the single
// file. Assembly shortfalls (no series identity, fewer than two usable
// siblings, unreadable neighbors) degrade to a single-file load and are
// logged, never surfaced as errors.
func (l *Loader) LoadDicom(path string) (*volume.Volume, error) {
	vol, err := l.loadDicomSeries(path)
	if err == nil {
		return vol, nil
	}
	l.log.Warning("loader", "series assembly fell back to single file", map[string]interface{}{
		"path":   path,
		"reason": err.Error(),
	})
	return l.loadDicomSingle(path)
}

// loadDicomSingle decodes one file. A multi-frame file becomes a
// pre-stacked volume along depth; anything else is a depth-1 slice.
func (l *Loader) loadDicomSingle(path string) (*volume.Volume, error) {
	ds, err := dicomutil.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("DICOM parse failed for %q: %w", path, err)
	}

	frames, err := nativeFrames(&ds)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}

	h, w := frames[0].rows, frames[0].cols
	for i, fr := range frames {
		if fr.rows != h || fr.cols != w {
			return nil, fmt.Errorf("%q: frame %d is %dx%d, expected %dx%d", path, i, fr.cols, fr.rows, w, h)
		}
	}

	meta := seriesMetaFromDataset(&ds, 1)
	vol := volume.NewGray4D(h, w, len(frames), 1)
	for z, fr := range frames {
		fillSlice(vol, z, fr, meta.RescaleSlope, meta.RescaleIntercept, invertedGrayscale(&ds))
	}
	vol.Meta = meta

	l.log.Info("loader", "loaded DICOM file", map[string]interface{}{
		"path": path, "frames": len(frames), "shape": vol.String(),
	})
	return vol, nil
}

// loadDicomSeries assembles sibling slices from the reference file's
// directory into a Z-ordered stack.
func (l *Loader) loadDicomSeries(refPath string) (*volume.Volume, error) {
	refDS, err := dicomutil.ParseFile(refPath, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("reference header parse failed: %w", err)
	}

	seriesUID, ok := dicomutil.FirstString(&refDS, tag.SeriesInstanceUID)
	if !ok || seriesUID == "" {
		return nil, fmt.Errorf("reference declares no series identity")
	}

	dir := filepath.Dir(refPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot scan series directory: %w", err)
	}

	var members []SliceHeader
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		hdr, ok := readSliceHeader(p, seriesUID)
		if !ok {
			continue
		}
		members = append(members, hdr)
	}

	if len(members) < 2 {
		return nil, fmt.Errorf("found %d usable slices for series %s", len(members), seriesUID)
	}

	SortSlices(members)

	// Decode in sorted order, keeping the stack rectangular: any slice
	// whose pixel matrix disagrees with the first decoded one is dropped.
	var (
		stack []decodedFrame
		h, w  int
	)
	for _, m := range members {
		ds, err := dicomutil.ParseFile(m.Path)
		if err != nil {
			l.log.Warning("loader", "skipping unreadable series member", map[string]interface{}{
				"path": m.Path, "error": err.Error(),
			})
			continue
		}
		frames, err := nativeFrames(&ds)
		if err != nil {
			l.log.Warning("loader", "skipping series member without pixel data", map[string]interface{}{
				"path": m.Path,
			})
			continue
		}
		fr := frames[0]
		if len(stack) == 0 {
			h, w = fr.rows, fr.cols
		} else if fr.rows != h || fr.cols != w {
			l.log.Warning("loader", "skipping slice with mismatched shape", map[string]interface{}{
				"path": m.Path, "got": fmt.Sprintf("%dx%d", fr.cols, fr.rows), "want": fmt.Sprintf("%dx%d", w, h),
			})
			continue
		}
		fr.inverted = invertedGrayscale(&ds)
		fr.slope, fr.intercept = rescale(&ds)
		stack = append(stack, fr)
	}

	if len(stack) < 2 {
		return nil, fmt.Errorf("series decode left %d usable slices", len(stack))
	}

	meta := seriesMetaFromDataset(&refDS, len(stack))
	vol := volume.NewGray4D(h, w, len(stack), 1)
	for z, fr := range stack {
		fillSlice(vol, z, fr, fr.slope, fr.intercept, fr.inverted)
	}
	vol.Meta = meta

	l.log.Info("loader", "assembled DICOM series", map[string]interface{}{
		"series": seriesUID, "slices": len(stack), "shape": vol.String(),
	})
	return vol, nil
}

// SliceHeader is the sortable header subset of one series member. Pixel
// data stays undecoded until ordering is settled.
type SliceHeader struct {
	Path string

	// Position and Orientation are ImagePositionPatient (3 values) and
	// ImageOrientationPatient (6 direction cosines) when both declared.
	Position    []float64
	Orientation []float64

	SliceLocation  *float64
	InstanceNumber *int
}

func readSliceHeader(path, seriesUID string) (SliceHeader, bool) {
	ds, err := dicomutil.ParseFile(path, dicom.SkipPixelData())
	if err != nil {
		return SliceHeader{}, false
	}
	uid, ok := dicomutil.FirstString(&ds, tag.SeriesInstanceUID)
	if !ok || uid != seriesUID {
		return SliceHeader{}, false
	}
	rows, okR := dicomutil.FirstInt(&ds, tag.Rows)
	cols, okC := dicomutil.FirstInt(&ds, tag.Columns)
	if !okR || !okC || rows <= 0 || cols <= 0 {
		return SliceHeader{}, false
	}

	hdr := SliceHeader{Path: path}
	if pos, ok := dicomutil.Floats(&ds, tag.ImagePositionPatient); ok && len(pos) >= 3 {
		hdr.Position = pos[:3]
	}
	if ori, ok := dicomutil.Floats(&ds, tag.ImageOrientationPatient); ok && len(ori) >= 6 {
		hdr.Orientation = ori[:6]
	}
	if loc, ok := dicomutil.FirstFloat(&ds, tag.SliceLocation); ok {
		hdr.SliceLocation = &loc
	}
	if num, ok := dicomutil.FirstInt(&ds, tag.InstanceNumber); ok {
		hdr.InstanceNumber = &num
	}
	return hdr, true
}

// NormalProjection projects the slice position onto the slice normal (the
// cross product of the row and column direction cosines). This is the
// geometrically correct stacking order and is preferred whenever both
// orientation and position are declared.
func (h SliceHeader) NormalProjection() (float64, bool) {
	if len(h.Position) < 3 || len(h.Orientation) < 6 {
		return 0, false
	}
	r := h.Orientation[0:3]
	c := h.Orientation[3:6]
	n := [3]float64{
		r[1]*c[2] - r[2]*c[1],
		r[2]*c[0] - r[0]*c[2],
		r[0]*c[1] - r[1]*c[0],
	}
	return n[0]*h.Position[0] + n[1]*h.Position[1] + n[2]*h.Position[2], true
}

// SortSlices orders series members by, in preference order: normal
// projection, SliceLocation, InstanceNumber, filename. The tier is chosen
// per pair so partially tagged series still sort deterministically.
func SortSlices(slices []SliceHeader) {
	sort.SliceStable(slices, func(i, j int) bool {
		a, b := slices[i], slices[j]

		pa, okA := a.NormalProjection()
		pb, okB := b.NormalProjection()
		if okA && okB && pa != pb {
			return pa < pb
		}

		if a.SliceLocation != nil && b.SliceLocation != nil && *a.SliceLocation != *b.SliceLocation {
			return *a.SliceLocation < *b.SliceLocation
		}

		if a.InstanceNumber != nil && b.InstanceNumber != nil && *a.InstanceNumber != *b.InstanceNumber {
			return *a.InstanceNumber < *b.InstanceNumber
		}

		return filepath.Base(a.Path) < filepath.Base(b.Path)
	})
}

// decodedFrame is one decoded pixel plane plus its per-slice transform.
type decodedFrame struct {
	rows, cols int
	bits       int
	data       []int

	slope, intercept float64
	inverted         bool
}

// nativeFrames decodes every frame of the dataset's pixel data element.
// Datasets without pixel data (structured reports and the like) are
// rejected rather than producing empty imagery.
func nativeFrames(ds *dicom.Dataset) ([]decodedFrame, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("missing pixel data")
	}
	info := dicom.MustGetPixelDataInfo(el.Value)
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("pixel data holds no frames")
	}

	out := make([]decodedFrame, 0, len(info.Frames))
	for i, fr := range info.Frames {
		native, err := fr.GetNativeFrame()
		if err != nil {
			return nil, fmt.Errorf("frame %d is not natively decodable: %w", i, err)
		}
		df := decodedFrame{
			rows: native.Rows,
			cols: native.Cols,
			bits: native.BitsPerSample,
			data: make([]int, len(native.Data)),
		}
		for j := range native.Data {
			// First sample only; color DICOM is out of conformance scope
			// and displays as grayscale.
			df.data[j] = native.Data[j][0]
		}
		out = append(out, df)
	}
	return out, nil
}

// fillSlice writes one decoded frame into depth index z, applying the
// rescale affine and, for inverted-grayscale photometric interpretation,
// flipping raw values against the sample range first.
func fillSlice(vol *volume.Volume, z int, fr decodedFrame, slope, intercept float64, inverted bool) {
	maxRaw := 0
	if inverted {
		maxRaw = (1 << fr.bits) - 1
	}
	for y := 0; y < fr.rows; y++ {
		for x := 0; x < fr.cols; x++ {
			raw := fr.data[y*fr.cols+x]
			if inverted {
				raw = maxRaw - raw
			}
			vol.Set(y, x, z, 0, float32(float64(raw)*slope+intercept))
		}
	}
}

func rescale(ds *dicom.Dataset) (slope, intercept float64) {
	slope, intercept = 1, 0
	if s, ok := dicomutil.FirstFloat(ds, tag.RescaleSlope); ok && s != 0 {
		slope = s
	}
	if i, ok := dicomutil.FirstFloat(ds, tag.RescaleIntercept); ok {
		intercept = i
	}
	return slope, intercept
}

func invertedGrayscale(ds *dicom.Dataset) bool {
	photo, _ := dicomutil.FirstString(ds, tag.PhotometricInterpretation)
	return strings.EqualFold(photo, "MONOCHROME1")
}

func seriesMetaFromDataset(ds *dicom.Dataset, slices int) *volume.SeriesMeta {
	meta := &volume.SeriesMeta{Slices: slices}
	meta.Modality, _ = dicomutil.FirstString(ds, tag.Modality)
	meta.Modality = strings.ToUpper(meta.Modality)
	meta.RescaleSlope, meta.RescaleIntercept = rescale(ds)

	if uid, ok := dicomutil.FirstString(ds, tag.SeriesInstanceUID); ok && uid != "" {
		meta.SeriesUID = uid
	} else {
		// Untagged single files still need a stable identity for the
		// session; a random one is fine because it never groups siblings.
		meta.SeriesUID = "smiv-" + uuid.NewString()
	}

	if sp, ok := dicomutil.Floats(ds, tag.PixelSpacing); ok && len(sp) >= 2 {
		meta.PixelSpacing = [2]float64{sp[0], sp[1]}
	}
	if wc, ok := dicomutil.FirstFloat(ds, tag.WindowCenter); ok {
		meta.WindowCenter = &wc
	}
	if ww, ok := dicomutil.FirstFloat(ds, tag.WindowWidth); ok {
		meta.WindowWidth = &ww
	}
	return meta
}
