package bidstats

import (
	"errors"
	"fmt"
)

var errMissingValue = errors.New("missing value")

// ParseError describes a row dropped by the normalizer. It is collected in
// NormalizeResult, never returned from Normalize.
type ParseError struct {
	Row   int
	Field string
	Value any
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: field %q (%v): %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError is returned when an input row lacks a required field name.
type SchemaError struct {
	Row   int
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("row %d: missing required field %q", e.Row, e.Field)
}

// InvalidRangeError is returned when the year range is inverted.
type InvalidRangeError struct {
	Start int
	End   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("end_year (%d) must be greater than or equal to start_year (%d)", e.End, e.Start)
}

// InvalidWindowError is returned for a moving-average window below 1.
type InvalidWindowError struct {
	Window int
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("window must be >= 1, got %d", e.Window)
}

// InvalidOptionError is returned for an unknown axis or statistic.
type InvalidOptionError struct {
	Option string
	Value  string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Option, e.Value)
}

// IsClientError reports whether err was caused by caller input.
func IsClientError(err error) bool {
	var (
		re *InvalidRangeError
		we *InvalidWindowError
		oe *InvalidOptionError
	)
	return errors.As(err, &re) || errors.As(err, &we) || errors.As(err, &oe)
}
