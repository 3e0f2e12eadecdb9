package types

import "fmt"

// ObjectError wraps an object bus error with the name of the object involved.
type ObjectError struct {
	Object string
	Err    error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("object %s: %v", e.Object, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}
