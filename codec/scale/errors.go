package scale

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when a value needs more bytes than remain in the input.
	ErrTruncated = errors.New("scale: truncated input")
	// ErrNonCanonical is returned when a compact integer is not minimally encoded
	// and the caller asked for canonical form.
	ErrNonCanonical = errors.New("scale: non-canonical compact encoding")
	// ErrOverflow is returned when a value does not fit the requested width.
	ErrOverflow = errors.New("scale: integer overflow")
	// ErrInvalidBool is returned for a boolean byte other than 0 or 1.
	ErrInvalidBool = errors.New("scale: invalid boolean")
	// ErrInvalidOption is returned for an option discriminant other than 0 or 1.
	ErrInvalidOption = errors.New("scale: invalid option discriminant")
)

// TruncatedError reports where the input ran out.
type TruncatedError struct {
	Offset int // Cursor position when the read was attempted.
	Need   int // Bytes the read required.
	Have   int // Bytes that were left.
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("scale: truncated input at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// Is makes errors.Is(err, ErrTruncated) match.
func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}
