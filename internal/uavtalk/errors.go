package uavtalk

import "errors"

var (
	ErrShortFrame    = errors.New("uavtalk: frame too short")
	ErrBadSync       = errors.New("uavtalk: bad sync byte")
	ErrBadCRC        = errors.New("uavtalk: crc mismatch")
	ErrBadLength     = errors.New("uavtalk: length mismatch")
	ErrDataTooLong   = errors.New("uavtalk: object data too long")
	ErrUnknownObject = errors.New("uavtalk: unknown object")
	ErrPositionRange = errors.New("uavtalk: position out of range")
)
