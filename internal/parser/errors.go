package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch means the general and KDA regions of a page yielded a
	// different number of records. The page layout no longer matches and no
	// rows from it can be trusted.
	ErrLengthMismatch = errors.New("general and kda record counts differ")

	// ErrPartialGroup is returned in strict mode when a token stream does not
	// divide evenly into records.
	ErrPartialGroup = errors.New("token stream ends with a partial record")

	// ErrMalformedField means a numeric cell could not be parsed after its
	// decorator ('%' or ',') was stripped.
	ErrMalformedField = errors.New("malformed field")
)

// FieldError reports which field of which row failed to coerce.
type FieldError struct {
	Row   int    // zero-based record index within the page, -1 when unknown
	Field string // canonical column name, e.g. "win_rate"
	Value string // raw token as extracted
	Err   error  // underlying strconv error
}

func (e *FieldError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("row %d: malformed field %s %q: %v", e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed field %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedField) true for any *FieldError.
func (e *FieldError) Is(target error) bool { return target == ErrMalformedField }
