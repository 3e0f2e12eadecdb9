package watchdog

import "errors"

// ErrUnknownFlag is returned when updating a flag that was never registered.
var ErrUnknownFlag = errors.New("watchdog: unknown flag")
