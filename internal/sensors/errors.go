package sensors

import "errors"

// ErrInvalidProfile is returned when a profile holds values the objects cannot carry.
var ErrInvalidProfile = errors.New("sensors: invalid profile")
