package ast

import "fmt"

// ParseError is returned when evaluating a filter that did not parse.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// InvalidRelopError is returned when a RelOp joins clauses with anything
// but and/or.
type InvalidRelopError struct {
	Op string
}

func (e *InvalidRelopError) Error() string {
	return fmt.Sprintf("invalid relational token %q", e.Op)
}
