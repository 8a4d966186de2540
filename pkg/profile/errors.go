package profile

import (
	"fmt"
)

// FormatError reports a CSV record that does not match the profile schema.
type FormatError struct {
	// Line is the 1-based line of the offending record, 0 if unknown.
	Line int
	// Column is the offending column name, empty when the whole record or
	// the header is at fault.
	Column string
	Err    error
}

func (e *FormatError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("profile line %d, column %s: %v", e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("profile line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("profile: %v", e.Err)
	}
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
