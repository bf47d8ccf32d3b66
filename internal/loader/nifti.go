package loader

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"smiv/internal/volume"
)

// NIfTI-1 datatype codes we can decode.
const (
	niiUint8   = 2
	niiInt16   = 4
	niiInt32   = 8
	niiFloat32 = 16
	niiFloat64 = 64
	niiInt8    = 256
	niiUint16  = 512
	niiUint32  = 768
)

type niftiHeader struct {
	dims      [5]int // ndim then up to 4 extents
	datatype  int
	voxOffset int64
	sclSlope  float64
	sclInter  float64
	order     binary.ByteOrder
}

// LoadNifti decodes a .nii or .nii.gz file into a float32 volume,
// preserving native dimensionality up to 4D and applying the header's
// scaling affine when declared.
func (l *Loader) LoadNifti(path string) (*volume.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", path, err)
	}
	defer f.Close()

	r, err := maybeGzip(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}

	hdr, err := readNiftiHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}

	// The voxel payload starts at vox_offset; everything between the
	// header and it (extensions) is skipped.
	if skip := hdr.voxOffset - 348; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("%q: truncated before voxel data: %w", path, err)
		}
	}

	nx, ny, nz, nt := hdr.dims[1], hdr.dims[2], hdr.dims[3], hdr.dims[4]
	vol := volume.NewGray4D(nx, ny, nz, nt)

	br := bufio.NewReaderSize(r, 1<<16)
	read := func() (float64, error) { return readVoxel(br, hdr.datatype, hdr.order) }

	// NIfTI stores the first index fastest; the viewer treats the first
	// two axes as (row, column), matching how the volume is displayed.
	for t := 0; t < vol.T; t++ {
		for z := 0; z < vol.Z; z++ {
			for x := 0; x < vol.W; x++ {
				for y := 0; y < vol.H; y++ {
					v, err := read()
					if err != nil {
						return nil, fmt.Errorf("%q: truncated voxel data: %w", path, err)
					}
					if hdr.sclSlope != 0 {
						v = v*hdr.sclSlope + hdr.sclInter
					}
					vol.Set(y, x, z, t, float32(v))
				}
			}
		}
	}

	l.log.Info("loader", "loaded volumetric file", map[string]interface{}{
		"path": path, "shape": vol.String(),
	})
	return vol, nil
}

func maybeGzip(f *os.File) (io.Reader, error) {
	head := make([]byte, 2)
	if _, err := io.ReadFull(f, head); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if head[0] == 0x1f && head[1] == 0x8b {
		return gzip.NewReader(f)
	}
	return f, nil
}

func readNiftiHeader(r io.Reader) (*niftiHeader, error) {
	buf := make([]byte, 348)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("short volumetric header: %w", err)
	}

	magic := string(buf[344:347])
	if magic != "n+1" && magic != "ni1" {
		return nil, fmt.Errorf("not a NIfTI-1 file")
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(buf[0:4]) == 348:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(buf[0:4]) == 348:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("unreadable header: bad sizeof_hdr")
	}

	hdr := &niftiHeader{order: order}

	ndim := int(int16(order.Uint16(buf[40:42])))
	if ndim < 1 || ndim > 7 {
		return nil, fmt.Errorf("unsupported array rank %d", ndim)
	}
	allDims := make([]int, 8)
	for i := 1; i <= 7; i++ {
		allDims[i] = int(int16(order.Uint16(buf[40+2*i : 42+2*i])))
	}
	// Dimensions beyond the fourth must be trivial; 5D+ payloads are not
	// representable downstream.
	for i := 5; i <= ndim; i++ {
		if allDims[i] > 1 {
			return nil, fmt.Errorf("unsupported array rank %d", ndim)
		}
	}
	hdr.dims[0] = ndim
	for i := 1; i <= 4; i++ {
		d := 1
		if i <= ndim && allDims[i] > 0 {
			d = allDims[i]
		}
		hdr.dims[i] = d
	}

	hdr.datatype = int(int16(order.Uint16(buf[70:72])))
	switch hdr.datatype {
	case niiUint8, niiInt16, niiInt32, niiFloat32, niiFloat64, niiInt8, niiUint16, niiUint32:
	default:
		return nil, fmt.Errorf("unsupported voxel datatype code %d", hdr.datatype)
	}

	hdr.voxOffset = int64(math.Float32frombits(order.Uint32(buf[108:112])))
	if magic == "ni1" {
		// Detached header files keep voxels in a .img pair we don't chase.
		return nil, fmt.Errorf("detached header/image NIfTI pairs are not supported")
	}
	if hdr.voxOffset < 348 {
		hdr.voxOffset = 352
	}

	hdr.sclSlope = float64(math.Float32frombits(order.Uint32(buf[112:116])))
	hdr.sclInter = float64(math.Float32frombits(order.Uint32(buf[116:120])))
	return hdr, nil
}

func readVoxel(r io.Reader, datatype int, order binary.ByteOrder) (float64, error) {
	switch datatype {
	case niiUint8:
		var v uint8
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case niiInt8:
		var v int8
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case niiInt16:
		var v int16
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case niiUint16:
		var v uint16
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case niiInt32:
		var v int32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case niiUint32:
		var v uint32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case niiFloat32:
		var v float32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case niiFloat64:
		var v float64
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return v, nil
	}
	return 0, fmt.Errorf("unsupported voxel datatype code %d", datatype)
}
