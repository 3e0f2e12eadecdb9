package uavobject

import "errors"

var (
	// ErrStale is returned when an object has never been set or has not been
	// updated within the stale threshold.
	ErrStale = errors.New("uavobject: object data is stale")
	// ErrNotRegistered is returned when looking up an object nobody registered.
	ErrNotRegistered = errors.New("uavobject: object not registered")
	// ErrTypeMismatch is returned when an object is requested with the wrong type.
	ErrTypeMismatch = errors.New("uavobject: object type mismatch")
)
