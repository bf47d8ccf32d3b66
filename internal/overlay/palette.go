package overlay

import "sort"

// palette is the fixed repeating label color cycle. Assignment is
// deterministic: nonzero labels are colored in ascending order, wrapping
// when there are more labels than palette entries.
var palette = [][3]uint8{
	{255, 0, 0},
	{0, 255, 0},
	{0, 0, 255},
	{255, 255, 0},
	{255, 0, 255},
	{0, 255, 255},
	{255, 128, 0},
	{128, 0, 255},
}

// binaryColor is the blend color when a mask carries no label structure.
var binaryColor = [3]uint8{255, 0, 0}

func buildColors(labels []int32) map[int32][3]uint8 {
	seen := make(map[int32]struct{})
	uniq := make([]int32, 0, 8)
	for _, l := range labels {
		if l == 0 {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		uniq = append(uniq, l)
	}

	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	out := make(map[int32][3]uint8, len(uniq))
	for i, l := range uniq {
		out[l] = palette[i%len(palette)]
	}
	return out
}
