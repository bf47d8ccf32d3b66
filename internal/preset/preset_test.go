package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "smiv", "session_presets.json"))
}

func TestStoreRoundTrip(t *testing.T) {
	s := tempStore(t)

	p := Preset{
		Preprocessing: Preprocessing{
			HistEq:    true,
			Contrast:  1.5,
			WLEnabled: true,
			WLCenter:  -600,
			WLWidth:   1500,
		},
		Overlay: Overlay{
			Enabled:      true,
			Alpha:        50,
			MaskPath:     "/data/mask.nii.gz",
			LabelVisible: map[string]bool{"1": true, "2": false},
			LabelNames:   map[string]string{"1": "liver"},
		},
	}

	require.NoError(t, s.Put("/data/scan.nii.gz", p))

	got, ok := s.Get("/data/scan.nii.gz")
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestStoreGetMissing(t *testing.T) {
	s := tempStore(t)
	_, ok := s.Get("/data/never-saved.dcm")
	assert.False(t, ok)
}

func TestStoreKeysAreIndependent(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Put("/data/a.nii", Preset{Preprocessing: Preprocessing{Brightness: 1}}))
	require.NoError(t, s.Put("/data/b.nii", Preset{Preprocessing: Preprocessing{Brightness: 2}}))

	a, ok := s.Get("/data/a.nii")
	require.True(t, ok)
	b, ok := s.Get("/data/b.nii")
	require.True(t, ok)

	assert.Equal(t, 1, a.Preprocessing.Brightness)
	assert.Equal(t, 2, b.Preprocessing.Brightness)
}

func TestStoreOverwrite(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Put("/data/a.nii", Preset{Preprocessing: Preprocessing{Brightness: 1}}))
	require.NoError(t, s.Put("/data/a.nii", Preset{Preprocessing: Preprocessing{Brightness: 9}}))

	got, ok := s.Get("/data/a.nii")
	require.True(t, ok)
	assert.Equal(t, 9, got.Preprocessing.Brightness)
}

func TestStoreDelete(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Put("/data/a.nii", Preset{}))
	require.NoError(t, s.Delete("/data/a.nii"))

	_, ok := s.Get("/data/a.nii")
	assert.False(t, ok)

	// Deleting a missing entry is a no-op.
	require.NoError(t, s.Delete("/data/a.nii"))
}

func TestStoreCorruptFileDegradesToEmpty(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o755))
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	_, ok := s.Get("/data/a.nii")
	assert.False(t, ok)

	// A save replaces the corrupt document.
	require.NoError(t, s.Put("/data/a.nii", Preset{}))
	_, ok = s.Get("/data/a.nii")
	assert.True(t, ok)
}

func TestKeyIsAbsolute(t *testing.T) {
	assert.True(t, filepath.IsAbs(Key("relative/path.nii")))
	assert.Equal(t, "/abs/path.nii", Key("/abs/path.nii"))
}
