package detect

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// tryVolumetric checks for a NIfTI-1 header, plain or gzipped. The header
// declares its own size (348) at offset 0 and a magic at offset 344, which
// together are a reliable content signature.
func tryVolumetric(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	var r io.Reader = f
	head := make([]byte, 2)
	if _, err := io.ReadFull(f, head); err != nil {
		return "", false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", false
	}
	if head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return "", false
		}
		defer gz.Close()
		r = gz
	}

	buf := make([]byte, 348)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", false
	}

	magic := string(buf[344:347])
	if magic != "n+1" && magic != "ni1" {
		return "", false
	}

	order := headerByteOrder(buf)
	if order == nil {
		return "", false
	}

	ndim := int(order.Uint16(buf[40:42]))
	if ndim < 1 || ndim > 7 {
		return "", false
	}
	dims := make([]int, 0, ndim)
	for i := 0; i < ndim; i++ {
		dims = append(dims, int(order.Uint16(buf[42+2*i:44+2*i])))
	}
	datatype := int(order.Uint16(buf[70:72]))

	var b strings.Builder
	b.WriteString("===== NIfTI Info =====\n")
	fmt.Fprintf(&b, "Shape: %v => %dD NIfTI\n", dims, ndim)
	fmt.Fprintf(&b, "Datatype code: %d\n", datatype)
	b.WriteString("======================\n")
	return b.String(), true
}

// headerByteOrder decides endianness from sizeof_hdr, which must read 348.
func headerByteOrder(hdr []byte) binary.ByteOrder {
	if binary.LittleEndian.Uint32(hdr[0:4]) == 348 {
		return binary.LittleEndian
	}
	if binary.BigEndian.Uint32(hdr[0:4]) == 348 {
		return binary.BigEndian
	}
	return nil
}
