package recorder

import "errors"

// ErrNoSamples is returned by Latest when nothing was recorded for an object.
var ErrNoSamples = errors.New("recorder: no samples")
