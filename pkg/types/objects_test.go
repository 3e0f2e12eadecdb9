package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHomeLocationFieldsFlattensBe(t *testing.T) {
	h := HomeLocation{Be: [3]float64{26000, 400, 40000}, Set: true}
	f := h.Fields()
	assert.Equal(t, 26000.0, f["be_x"])
	assert.Equal(t, 400.0, f["be_y"])
	assert.Equal(t, 40000.0, f["be_z"])
	assert.Equal(t, 1.0, f["set"])
}

func TestGPSPositionFieldsIncludesStatus(t *testing.T) {
	p := GPSPosition{Satellites: 9, Status: GPSStatusFix3D}
	f := p.Fields()
	assert.Equal(t, 9.0, f["satellites"])
	assert.Equal(t, float64(GPSStatusFix3D), f["status"])
}

func TestSnapshotFind(t *testing.T) {
	s := Snapshot{Objects: []ObjectState{
		{Name: ObjectAccels, Data: Accels{Y: -1}},
		{Name: ObjectGyros, Data: Gyros{X: 2}},
	}}

	o, ok := s.Find(ObjectGyros)
	assert.True(t, ok)
	assert.Equal(t, Gyros{X: 2}, o.Data)

	_, ok = s.Find(ObjectMagnetometer)
	assert.False(t, ok)
}

func TestObjectErrorUnwrap(t *testing.T) {
	sentinel := errors.New("boom")
	err := &ObjectError{Object: ObjectAccels, Err: sentinel}
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "object Accels: boom", err.Error())
}
