package wsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func slideWithLevels(levels ...Level) *Slide {
	return &Slide{levels: levels}
}

func TestOverviewLevel(t *testing.T) {
	tests := []struct {
		name   string
		levels []Level
		bound  int
		want   int
	}{
		{
			name:   "FinestFittingLevelWins",
			levels: []Level{{40000, 30000}, {10000, 7500}, {2500, 1875}, {625, 468}},
			bound:  2048,
			want:   3,
		},
		{
			name:   "MidLevelFits",
			levels: []Level{{40000, 30000}, {10000, 7500}, {1800, 1350}, {450, 337}},
			bound:  2048,
			want:   2,
		},
		{
			name:   "NothingFitsFallsBackToCoarsest",
			levels: []Level{{40000, 30000}, {20000, 15000}},
			bound:  2048,
			want:   1,
		},
		{
			name:   "EverythingFitsPicksBase",
			levels: []Level{{1024, 768}, {512, 384}},
			bound:  2048,
			want:   0,
		},
		{
			name:   "HeightBoundsToo",
			levels: []Level{{1000, 4000}, {500, 2000}, {250, 1000}},
			bound:  2048,
			want:   1,
		},
		{
			name:   "SingleLevel",
			levels: []Level{{99999, 99999}},
			bound:  2048,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := slideWithLevels(tt.levels...)
			assert.Equal(t, tt.want, s.OverviewLevel(tt.bound))
		})
	}
}

func TestLevelsReturnsCopy(t *testing.T) {
	s := slideWithLevels(Level{100, 100}, Level{50, 50})
	levels := s.Levels()
	levels[0] = Level{1, 1}
	assert.Equal(t, Level{100, 100}, s.levels[0])
}

func TestDecodeLevelOutOfRange(t *testing.T) {
	s := slideWithLevels(Level{100, 100})
	_, err := s.DecodeLevel(5)
	assert.Error(t, err)
	_, err = s.DecodeLevel(-1)
	assert.Error(t, err)
}
