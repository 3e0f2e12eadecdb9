package sensors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytandecker/simsensors/pkg/types"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadProfileOverridesOnlyGivenKeys(t *testing.T) {
	path := writeProfile(t, `
baro_altitude: 250
gps:
  latitude: 47.6
magnetometer:
  x: 210
home:
  be: [21000, 1500, 43000]
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)

	want := DefaultProfile()
	want.BaroAltitude = 250
	want.GPS.Latitude = 47.6
	want.Magnetometer.X = 210
	want.Home.Be = [3]float64{21000, 1500, 43000}
	assert.Equal(t, want, p)
	assert.Equal(t, types.Accels{Y: -1, Z: -8}, p.Accels)
}

func TestLoadProfileEmptyFileKeepsDefaults(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)
}

func TestLoadProfileRejectsUnknownKeys(t *testing.T) {
	_, err := LoadProfile(writeProfile(t, "acels:\n  x: 1\n"))
	assert.Error(t, err)
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadProfileRejectsOutOfRangeCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "home longitude", content: "home:\n  longitude: 250\n"},
		{name: "home latitude", content: "home:\n  latitude: -90.5\n"},
		{name: "gps latitude", content: "gps:\n  latitude: 91\n"},
		{name: "gps longitude", content: "gps:\n  longitude: -181\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfile(writeProfile(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestLoadProfileAcceptsBoundaryCoordinates(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, "home:\n  latitude: 90\n  longitude: -180\n"))
	require.NoError(t, err)
	assert.Equal(t, 90.0, p.Home.Latitude)
	assert.Equal(t, -180.0, p.Home.Longitude)
}
