package types

import "time"

// Object names used on the object bus and on every outer surface.
const (
	ObjectAccels       = "Accels"
	ObjectGyros        = "Gyros"
	ObjectGyrosBias    = "GyrosBias"
	ObjectBaroAltitude = "BaroAltitude"
	ObjectGPSPosition  = "GPSPosition"
	ObjectMagnetometer = "Magnetometer"
	ObjectHomeLocation = "HomeLocation"
)

// Fielder is implemented by every object so exporters can flatten it.
type Fielder interface {
	Fields() map[string]float64
}

// Accels holds accelerometer output in m/s².
type Accels struct {
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
	Z           float64 `json:"z" yaml:"z"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

func (a Accels) Fields() map[string]float64 {
	return map[string]float64{"x": a.X, "y": a.Y, "z": a.Z, "temperature": a.Temperature}
}

// Gyros holds gyroscope rates in deg/s.
type Gyros struct {
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
	Z           float64 `json:"z" yaml:"z"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

func (g Gyros) Fields() map[string]float64 {
	return map[string]float64{"x": g.X, "y": g.Y, "z": g.Z, "temperature": g.Temperature}
}

// GyrosBias is added component-wise to raw gyro rates.
type GyrosBias struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (b GyrosBias) Fields() map[string]float64 {
	return map[string]float64{"x": b.X, "y": b.Y, "z": b.Z}
}

// BaroAltitude holds barometric altitude in meters.
type BaroAltitude struct {
	Altitude    float64 `json:"altitude"`
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
}

func (b BaroAltitude) Fields() map[string]float64 {
	return map[string]float64{"altitude": b.Altitude, "temperature": b.Temperature, "pressure": b.Pressure}
}

// GPSStatus is the fix state reported by the GPS.
type GPSStatus uint8

const (
	GPSStatusNoGPS GPSStatus = iota
	GPSStatusNoFix
	GPSStatusFix2D
	GPSStatusFix3D
)

// GPSPosition holds the GPS fix.
type GPSPosition struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Altitude    float64   `json:"altitude"`
	GroundSpeed float64   `json:"ground_speed"`
	Heading     float64   `json:"heading"`
	Satellites  int8      `json:"satellites"`
	Status      GPSStatus `json:"status"`
}

func (p GPSPosition) Fields() map[string]float64 {
	return map[string]float64{
		"latitude":     p.Latitude,
		"longitude":    p.Longitude,
		"altitude":     p.Altitude,
		"ground_speed": p.GroundSpeed,
		"heading":      p.Heading,
		"satellites":   float64(p.Satellites),
		"status":       float64(p.Status),
	}
}

// Magnetometer holds the magnetic field in mGauss.
type Magnetometer struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (m Magnetometer) Fields() map[string]float64 {
	return map[string]float64{"x": m.X, "y": m.Y, "z": m.Z}
}

// HomeLocation is the reference point and the earth magnetic field there.
type HomeLocation struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Altitude  float64    `json:"altitude"`
	Be        [3]float64 `json:"be"`
	Set       bool       `json:"set"`
}

func (h HomeLocation) Fields() map[string]float64 {
	set := 0.0
	if h.Set {
		set = 1
	}
	return map[string]float64{
		"latitude":  h.Latitude,
		"longitude": h.Longitude,
		"altitude":  h.Altitude,
		"be_x":      h.Be[0],
		"be_y":      h.Be[1],
		"be_z":      h.Be[2],
		"set":       set,
	}
}

// ObjectState is one object as seen in a Snapshot.
type ObjectState struct {
	Name        string    `json:"name"`
	Data        any       `json:"data"`
	LastUpdated time.Time `json:"last_updated"`
	Updates     uint64    `json:"updates"`
}

// Snapshot is a point-in-time copy of every registered object.
type Snapshot struct {
	Timestamp time.Time     `json:"timestamp"`
	Objects   []ObjectState `json:"objects"`
}

// Find returns the state of the named object, if present.
func (s Snapshot) Find(name string) (ObjectState, bool) {
	for _, o := range s.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return ObjectState{}, false
}
