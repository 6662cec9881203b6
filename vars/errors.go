package vars

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when a value's physical type cannot be
	// converted to the requested target, or when an enum discriminant is
	// not a known member.
	ErrTypeMismatch = errors.New("vars: type mismatch")

	// ErrOutOfRange is returned when a numeric conversion would lose the
	// value (float to int32 beyond range, int32 not exactly representable
	// as float32, NaN to integer).
	ErrOutOfRange = errors.New("vars: value out of range")

	// ErrOutOfBounds is returned when a descriptor's offset and width do
	// not fit inside the frame it is extracted from.
	ErrOutOfBounds = errors.New("vars: descriptor out of frame bounds")

	// ErrMalformedEntry marks a descriptor record that could not be decoded
	// cleanly. The record is still usable with substituted defaults.
	ErrMalformedEntry = errors.New("vars: malformed descriptor entry")
)

// ConversionError reports a failed conversion of a named variable.
type ConversionError struct {
	Variable string
	Target   string
	Index    int // element index for array conversions, -1 for scalars
	Err      error
}

func (e *ConversionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("vars: %s[%d] to %s: %v", e.Variable, e.Index, e.Target, e.Err)
	}
	return fmt.Sprintf("vars: %s to %s: %v", e.Variable, e.Target, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
