/*
Package ast holds the clause tree produced by parsing a filter string.

Clauses are immutable once built. A single tree can be evaluated against any
number of rows, from any number of goroutines.
*/
package ast

import (
	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr/lexer"
)

// Clause is a node of a parsed filter.
type Clause interface {
	// Describe renders the clause as filter text.
	Describe() string
	// Eval reports whether row satisfies the clause.
	Eval(row edm.Row) (bool, error)
}

// Comparison compares two operands, e.g. Age gt 30.
type Comparison struct {
	Left  lexer.Token
	Op    lexer.Token
	Right lexer.Token
}

func NewComparison(left, op, right lexer.Token) *Comparison {
	return &Comparison{left, op, right}
}

func (c *Comparison) Describe() string {
	return c.Left.Source() + " " + c.Op.Text + " " + c.Right.Source()
}

func (c *Comparison) Eval(row edm.Row) (bool, error) {
	left := resolve(c.Left, row)
	if left == nil {
		return false, &edm.UnresolvedValueError{Text: c.Left.Text}
	}
	right := resolve(c.Right, row)
	if right == nil {
		return false, &edm.UnresolvedValueError{Text: c.Right.Text}
	}
	op, ok := comparisonOps[c.Op.Kind]
	if !ok {
		return false, &edm.InvalidOperatorError{Op: c.Op.Text}
	}
	return edm.Compare(op, left, right)
}

var comparisonOps = map[lexer.Kind]edm.Op{
	lexer.CompEq: edm.Eq,
	lexer.CompNe: edm.Ne,
	lexer.CompGt: edm.Gt,
	lexer.CompGe: edm.Ge,
	lexer.CompLt: edm.Lt,
	lexer.CompLe: edm.Le,
}

// resolve turns an operand token into a value. Identifiers are looked up in
// the row, literals are parsed, and keywords used as operands stand for
// their own text.
func resolve(tok lexer.Token, row edm.Row) edm.Value {
	switch tok.Kind {
	case lexer.Identifier:
		return row[tok.Text]
	case lexer.StringLiteral:
		return edm.FromString(tok.Text)
	case lexer.Int32Literal:
		return edm.FromInt(tok.Text)
	case lexer.Int64Literal:
		return edm.FromLong(tok.Text)
	case lexer.DoubleLiteral:
		return edm.FromDouble(tok.Text)
	case lexer.GuidLiteral:
		return edm.FromGuid(tok.Text)
	case lexer.DateTimeLiteral:
		return edm.FromDateTime(tok.Text)
	default:
		return edm.String(tok.Text)
	}
}

// Paren is a parenthesised sub-expression.
type Paren struct {
	Inner Clause
}

func NewParen(inner Clause) *Paren {
	return &Paren{inner}
}

func (p *Paren) Describe() string {
	return "(" + p.Inner.Describe() + ")"
}

func (p *Paren) Eval(row edm.Row) (bool, error) {
	return p.Inner.Eval(row)
}

// RelOp joins two clauses with and/or. The right side is only evaluated
// when the left side does not decide the result.
type RelOp struct {
	Lhs Clause
	Op  lexer.Token
	Rhs Clause
}

func NewRelOp(lhs Clause, op lexer.Token, rhs Clause) *RelOp {
	return &RelOp{lhs, op, rhs}
}

func (r *RelOp) Describe() string {
	return r.Lhs.Describe() + " " + r.Op.Text + " " + r.Rhs.Describe()
}

func (r *RelOp) Eval(row edm.Row) (bool, error) {
	left, err := r.Lhs.Eval(row)
	if err != nil {
		return false, err
	}
	switch r.Op.Kind {
	case lexer.LogicalOr:
		if left {
			return true, nil
		}
	case lexer.LogicalAnd:
		if !left {
			return false, nil
		}
	default:
		return false, &InvalidRelopError{Op: r.Op.Text}
	}
	return r.Rhs.Eval(row)
}

// Error stands in for a filter that failed to parse. It never matches.
type Error struct {
	Message string
}

func NewError(msg string) *Error {
	return &Error{msg}
}

func (e *Error) Describe() string {
	return "Error: " + e.Message
}

func (e *Error) Eval(edm.Row) (bool, error) {
	return false, &ParseError{Message: e.Message}
}
