// Package wsi reads whole-slide image containers through go-bio's TIFF
// pyramid support. Slides are far too large to decode at full resolution,
// so the only operation offered is decoding one pyramid level in full as a
// downsampled overview.
package wsi

import (
	"fmt"
	"image"
	"sort"

	gobio "github.com/AlanRace/go-bio"
)

// Level describes one pyramid level's full extent in pixels.
type Level struct {
	W, H int
}

// Slide wraps an open whole-slide container.
type Slide struct {
	file   *gobio.TiffFile
	levels []Level
}

// Open parses the container and enumerates its pyramid levels, largest
// first. Containers with no usable directories are rejected.
func Open(path string) (*Slide, error) {
	tf, err := gobio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("whole-slide open failed: %w", err)
	}

	levels := make([]Level, 0, len(tf.IFDList))
	for _, ifd := range tf.IFDList {
		w := int(ifd.GetImageWidth())
		h := int(ifd.GetImageLength())
		if w <= 0 || h <= 0 {
			continue
		}
		levels = append(levels, Level{W: w, H: h})
	}
	if len(levels) == 0 {
		tf.Close()
		return nil, fmt.Errorf("whole-slide container has no image levels")
	}

	// Vendors do not guarantee directory order; sort by area descending so
	// index 0 is the base level.
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].W*levels[i].H > levels[j].W*levels[j].H
	})

	return &Slide{file: tf, levels: levels}, nil
}

// Levels lists pyramid levels from finest to coarsest.
func (s *Slide) Levels() []Level {
	out := make([]Level, len(s.levels))
	copy(out, s.levels)
	return out
}

// OverviewLevel picks the finest level whose larger dimension fits under
// bound. When even the coarsest level exceeds the bound it is returned
// anyway; the caller gets the smallest representation that exists.
func (s *Slide) OverviewLevel(bound int) int {
	best := len(s.levels) - 1
	for i := len(s.levels) - 1; i >= 0; i-- {
		larger := s.levels[i].W
		if s.levels[i].H > larger {
			larger = s.levels[i].H
		}
		if larger <= bound {
			best = i
		} else {
			break
		}
	}
	return best
}

// DecodeLevel decodes the full extent of one pyramid level.
func (s *Slide) DecodeLevel(level int) (image.Image, error) {
	if level < 0 || level >= len(s.levels) {
		return nil, fmt.Errorf("pyramid level %d out of range (0..%d)", level, len(s.levels)-1)
	}

	// Map the sorted level back to its directory: match by dimensions.
	want := s.levels[level]
	for _, ifd := range s.file.IFDList {
		if int(ifd.GetImageWidth()) == want.W && int(ifd.GetImageLength()) == want.H {
			img, err := ifd.GetImage()
			if err != nil {
				return nil, fmt.Errorf("decoding pyramid level %d: %w", level, err)
			}
			return img, nil
		}
	}
	return nil, fmt.Errorf("pyramid level %d not found in container", level)
}

// Close releases the underlying file handle.
func (s *Slide) Close() error {
	s.file.Close()
	return nil
}
