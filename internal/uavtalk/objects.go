package uavtalk

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/eytandecker/simsensors/pkg/types"
)

// Object IDs on the link.
const (
	IDAccels       uint32 = 0xDD9D5FC0
	IDGyros        uint32 = 0x4228A6E4
	IDGyrosBias    uint32 = 0xE4B6F980
	IDBaroAltitude uint32 = 0x99622E6A
	IDGPSPosition  uint32 = 0xE2A323B6
	IDMagnetometer uint32 = 0x813B55DE
	IDHomeLocation uint32 = 0x6185DC6E
)

var objectIDs = map[string]uint32{
	types.ObjectAccels:       IDAccels,
	types.ObjectGyros:        IDGyros,
	types.ObjectGyrosBias:    IDGyrosBias,
	types.ObjectBaroAltitude: IDBaroAltitude,
	types.ObjectGPSPosition:  IDGPSPosition,
	types.ObjectMagnetometer: IDMagnetometer,
	types.ObjectHomeLocation: IDHomeLocation,
}

// ObjectID returns the link ID of the named object.
func ObjectID(name string) (uint32, bool) {
	id, ok := objectIDs[name]
	return id, ok
}

// degE7 converts degrees to the int32 1e-7 degree units used for positions.
func degE7(deg float64) int32 {
	return int32(math.Round(deg * 1e7))
}

// checkPosition rejects coordinates that do not fit degE7.
func checkPosition(name string, lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: %s latitude %g", ErrPositionRange, name, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %s longitude %g", ErrPositionRange, name, lon)
	}
	return nil
}

type encoder []byte

func (e encoder) f32(vs ...float64) encoder {
	for _, v := range vs {
		e = binary.LittleEndian.AppendUint32(e, math.Float32bits(float32(v)))
	}
	return e
}

func (e encoder) i32(v int32) encoder {
	return binary.LittleEndian.AppendUint32(e, uint32(v)) //nolint:gosec // two's complement on the wire
}

// EncodeObject packs an object value into an object frame. Fields are
// float32 except positions (int32, 1e-7 deg) and small enums (one byte).
func EncodeObject(name string, data any) (Frame, error) {
	id, ok := ObjectID(name)
	if !ok {
		return Frame{}, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}

	var e encoder
	switch v := data.(type) {
	case types.Accels:
		e = e.f32(v.X, v.Y, v.Z, v.Temperature)
	case types.Gyros:
		e = e.f32(v.X, v.Y, v.Z, v.Temperature)
	case types.GyrosBias:
		e = e.f32(v.X, v.Y, v.Z)
	case types.BaroAltitude:
		e = e.f32(v.Altitude, v.Temperature, v.Pressure)
	case types.GPSPosition:
		if err := checkPosition(name, v.Latitude, v.Longitude); err != nil {
			return Frame{}, err
		}
		e = e.i32(degE7(v.Latitude)).i32(degE7(v.Longitude)).
			f32(v.Altitude, v.GroundSpeed, v.Heading)
		e = append(e, byte(v.Satellites), byte(v.Status))
	case types.Magnetometer:
		e = e.f32(v.X, v.Y, v.Z)
	case types.HomeLocation:
		if err := checkPosition(name, v.Latitude, v.Longitude); err != nil {
			return Frame{}, err
		}
		e = e.i32(degE7(v.Latitude)).i32(degE7(v.Longitude)).
			f32(v.Altitude, v.Be[0], v.Be[1], v.Be[2])
		set := byte(0)
		if v.Set {
			set = 1
		}
		e = append(e, set)
	default:
		return Frame{}, fmt.Errorf("%w: %s has unsupported type %T", ErrUnknownObject, name, data)
	}

	return Frame{Type: TypeObject, ObjectID: id, Data: e}, nil
}

type decoder struct {
	buf []byte
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf) < n {
		d.err = fmt.Errorf("%w: object data truncated", ErrBadLength)
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) f32() float64 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func (d *decoder) deg() float64 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return float64(int32(binary.LittleEndian.Uint32(b))) / 1e7 //nolint:gosec // two's complement on the wire
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// DecodeObject unpacks an object frame produced by EncodeObject.
func DecodeObject(f Frame) (string, any, error) {
	d := &decoder{buf: f.Data}

	var (
		name string
		v    any
	)
	switch f.ObjectID {
	case IDAccels:
		name, v = types.ObjectAccels, types.Accels{X: d.f32(), Y: d.f32(), Z: d.f32(), Temperature: d.f32()}
	case IDGyros:
		name, v = types.ObjectGyros, types.Gyros{X: d.f32(), Y: d.f32(), Z: d.f32(), Temperature: d.f32()}
	case IDGyrosBias:
		name, v = types.ObjectGyrosBias, types.GyrosBias{X: d.f32(), Y: d.f32(), Z: d.f32()}
	case IDBaroAltitude:
		name, v = types.ObjectBaroAltitude, types.BaroAltitude{Altitude: d.f32(), Temperature: d.f32(), Pressure: d.f32()}
	case IDGPSPosition:
		name, v = types.ObjectGPSPosition, types.GPSPosition{
			Latitude:    d.deg(),
			Longitude:   d.deg(),
			Altitude:    d.f32(),
			GroundSpeed: d.f32(),
			Heading:     d.f32(),
			Satellites:  int8(d.u8()), //nolint:gosec // signed on the wire
			Status:      types.GPSStatus(d.u8()),
		}
	case IDMagnetometer:
		name, v = types.ObjectMagnetometer, types.Magnetometer{X: d.f32(), Y: d.f32(), Z: d.f32()}
	case IDHomeLocation:
		h := types.HomeLocation{Latitude: d.deg(), Longitude: d.deg(), Altitude: d.f32()}
		h.Be = [3]float64{d.f32(), d.f32(), d.f32()}
		h.Set = d.u8() != 0
		name, v = types.ObjectHomeLocation, h
	default:
		return "", nil, fmt.Errorf("%w: id 0x%08x", ErrUnknownObject, f.ObjectID)
	}

	if d.err != nil {
		return "", nil, d.err
	}
	if len(d.buf) != 0 {
		return "", nil, fmt.Errorf("%w: %d trailing bytes in %s", ErrBadLength, len(d.buf), name)
	}
	return name, v, nil
}
