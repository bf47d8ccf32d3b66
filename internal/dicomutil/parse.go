package dicomutil

import (
	"bytes"
	"os"

	"github.com/suyashkumar/dicom"
)

// magic is the Part-10 marker that follows the 128-byte preamble.
var magic = []byte("DICM")

// ParseFile parses a DICOM file, tolerating a stripped preamble. Archives
// frequently store slices as a bare meta stream; when the strict parse
// fails and the file opens directly with the file meta group, the file is
// re-parsed with a synthesized preamble.
func ParseFile(path string, opts ...dicom.ParseOption) (dicom.Dataset, error) {
	ds, err := dicom.ParseFile(path, nil, opts...)
	if err == nil {
		return ds, nil
	}

	raw, readErr := os.ReadFile(path)
	if readErr != nil || !startsWithMetaGroup(raw) {
		return ds, err
	}

	buf := make([]byte, 0, 128+len(magic)+len(raw))
	buf = append(buf, make([]byte, 128)...)
	buf = append(buf, magic...)
	buf = append(buf, raw...)
	return dicom.Parse(bytes.NewReader(buf), int64(len(buf)), nil, opts...)
}

// startsWithMetaGroup reports whether raw opens with the little-endian
// FileMetaInformationGroupLength tag (0002,0000), the mandatory first
// element of a preamble-less meta stream.
func startsWithMetaGroup(raw []byte) bool {
	return len(raw) >= 4 && raw[0] == 0x02 && raw[1] == 0x00 && raw[2] == 0x00 && raw[3] == 0x00
}
