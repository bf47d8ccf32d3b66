// Package dicomutil has small helpers for pulling typed values out of
// suyashkumar/dicom datasets. DICOM decimal and integer strings (DS/IS)
// arrive as string slices and numeric VRs as int slices; these helpers
// normalize both.
package dicomutil

import (
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// FirstString returns the first string value of t, trimmed.
func FirstString(ds *dicom.Dataset, t tag.Tag) (string, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return "", false
	}
	if ss, ok := el.Value.GetValue().([]string); ok && len(ss) > 0 {
		return strings.TrimSpace(ss[0]), true
	}
	return "", false
}

// FirstInt returns the first value of t as an int, accepting both native
// integer VRs and IS strings.
func FirstInt(ds *dicom.Dataset, t tag.Tag) (int, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, false
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(v[0])); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// FirstFloat returns the first value of t as a float64, accepting DS
// strings, native floats, and native ints.
func FirstFloat(ds *dicom.Dataset, t tag.Tag) (float64, bool) {
	fs, ok := Floats(ds, t)
	if !ok || len(fs) == 0 {
		return 0, false
	}
	return fs[0], true
}

// Floats returns every value of t converted to float64. Multi-valued DS
// tags such as ImageOrientationPatient come back in declared order.
func Floats(ds *dicom.Dataset, t tag.Tag) ([]float64, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return nil, false
	}
	switch v := el.Value.GetValue().(type) {
	case []float64:
		return v, len(v) > 0
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, len(out) > 0
	case []string:
		out := make([]float64, 0, len(v))
		for _, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				continue
			}
			out = append(out, f)
		}
		return out, len(out) > 0
	}
	return nil, false
}
