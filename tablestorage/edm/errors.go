package edm

import (
	"errors"
	"fmt"
)

// ErrAbsentValue is returned when a comparison operand is nil.
var ErrAbsentValue = errors.New("cannot compare an absent value")

// ConversionError is returned when the right operand of a comparison cannot
// be widened to the type of the left operand.
type ConversionError struct {
	From Type
	To   Type
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// UnresolvedValueError is returned when a filter operand resolves to no value,
// either because the row lacks the named field or the literal does not parse.
type UnresolvedValueError struct {
	Text string
}

func (e *UnresolvedValueError) Error() string {
	return fmt.Sprintf("unable to determine value for %q", e.Text)
}

// InvalidOperatorError is returned for a comparison operator other than
// eq, ne, gt, ge, lt or le.
type InvalidOperatorError struct {
	Op string
}

func (e *InvalidOperatorError) Error() string {
	return fmt.Sprintf("invalid comparison operator %q", e.Op)
}
