package sensors

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eytandecker/simsensors/pkg/types"
)

// Profile is the set of fixed values the simulated sensors publish.
type Profile struct {
	Accels       types.Accels       `yaml:"accels"`
	Gyros        types.Gyros        `yaml:"gyros"`
	BaroAltitude float64            `yaml:"baro_altitude"`
	GPS          GPSFix             `yaml:"gps"`
	Magnetometer types.Magnetometer `yaml:"magnetometer"`
	Home         HomeFix            `yaml:"home"`
}

// GPSFix is the position written into GPSPosition on every cycle.
type GPSFix struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
}

// HomeFix is written once into HomeLocation when the task starts.
type HomeFix struct {
	Latitude  float64    `yaml:"latitude"`
	Longitude float64    `yaml:"longitude"`
	Altitude  float64    `yaml:"altitude"`
	Be        [3]float64 `yaml:"be"`
}

// DefaultProfile returns the stock simulated values.
func DefaultProfile() Profile {
	return Profile{
		Accels:       types.Accels{X: 0, Y: -1, Z: -8, Temperature: 0},
		Gyros:        types.Gyros{X: 2, Y: 0, Z: 1},
		BaroAltitude: 1,
		GPS:          GPSFix{Latitude: 0, Longitude: 0, Altitude: 0},
		// Constant heading reference for the yaw gyro.
		Magnetometer: types.Magnetometer{X: 400, Y: 0, Z: 800},
		Home: HomeFix{
			Be: [3]float64{26000, 400, 40000},
		},
	}
}

// LoadProfile reads a YAML profile on top of DefaultProfile; keys absent from
// the file keep their default values. Unknown keys are rejected.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()

	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("decode profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that the GPS and home positions are valid coordinates.
func (p Profile) Validate() error {
	if err := checkCoordinates("gps", p.GPS.Latitude, p.GPS.Longitude); err != nil {
		return err
	}
	return checkCoordinates("home", p.Home.Latitude, p.Home.Longitude)
}

func checkCoordinates(key string, lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: %s.latitude %g not in [-90, 90]", ErrInvalidProfile, key, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %s.longitude %g not in [-180, 180]", ErrInvalidProfile, key, lon)
	}
	return nil
}
