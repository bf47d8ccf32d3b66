package volume

// SeriesMeta carries the DICOM-derived attributes the display path needs.
// Produced once at load time and immutable afterwards; a new load replaces
// the record wholesale.
type SeriesMeta struct {
	Modality  string
	SeriesUID string

	// PixelSpacing is row/column spacing in mm, zero when undeclared.
	PixelSpacing [2]float64

	// RescaleSlope and RescaleIntercept have already been applied to the
	// stored intensities; kept for the metadata panel.
	RescaleSlope     float64
	RescaleIntercept float64

	// WindowCenter and WindowWidth are the source-declared display window,
	// nil when the file does not declare one.
	WindowCenter *float64
	WindowWidth  *float64

	// Slices is the number of stacked files for an assembled series, 1 for
	// a single-file load.
	Slices int
}

// IsCT reports whether window presets in Hounsfield units are meaningful.
func (m *SeriesMeta) IsCT() bool {
	return m != nil && m.Modality == "CT"
}
