package lexer

import (
	"strings"
)

// Kind classifies a Token.
type Kind int

const (
	Error Kind = iota
	Identifier
	CompEq
	CompNe
	CompGt
	CompGe
	CompLt
	CompLe
	LogicalAnd
	LogicalOr
	LogicalNot
	StringLiteral
	Int32Literal
	Int64Literal
	DoubleLiteral
	GuidLiteral
	DateTimeLiteral
	OpenParen
	CloseParen
	// Terminator is returned by cursors that have run past the last token.
	Terminator
)

var kindNames = map[Kind]string{
	Error:           "Error",
	Identifier:      "Identifier",
	CompEq:          "CompEq",
	CompNe:          "CompNe",
	CompGt:          "CompGt",
	CompGe:          "CompGe",
	CompLt:          "CompLt",
	CompLe:          "CompLe",
	LogicalAnd:      "LogicalAnd",
	LogicalOr:       "LogicalOr",
	LogicalNot:      "LogicalNot",
	StringLiteral:   "StringLiteral",
	Int32Literal:    "Int32Literal",
	Int64Literal:    "Int64Literal",
	DoubleLiteral:   "DoubleLiteral",
	GuidLiteral:     "GuidLiteral",
	DateTimeLiteral: "DateTimeLiteral",
	OpenParen:       "OpenParen",
	CloseParen:      "CloseParen",
	Terminator:      "Terminator",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Token is a lexical unit of a filter string. For literals Text holds the
// decoded payload: string contents with escapes removed, digits without the
// 64-bit suffix, the guid or datetime text without its prefix.
type Token struct {
	Kind Kind
	Text string
}

func (t Token) IsRelop() bool {
	return t.Kind == LogicalAnd || t.Kind == LogicalOr
}

// IsOperator reports whether t is a comparison operator.
func (t Token) IsOperator() bool {
	switch t.Kind {
	case CompEq, CompNe, CompGt, CompGe, CompLt, CompLe:
		return true
	}
	return false
}

func (t Token) IsLiteral() bool {
	switch t.Kind {
	case StringLiteral, Int32Literal, Int64Literal, DoubleLiteral, GuidLiteral, DateTimeLiteral:
		return true
	}
	return false
}

// IsData reports whether t may stand as an operand of a comparison.
// Keywords qualify, and evaluate to their own text.
func (t Token) IsData() bool {
	return t.Kind == Identifier || t.IsLiteral() || t.IsRelop() || t.IsOperator()
}

// Source renders the token the way it would be written in a filter string.
func (t Token) Source() string {
	switch t.Kind {
	case StringLiteral:
		return quote(t.Text)
	case GuidLiteral:
		return "guid" + quote(t.Text)
	case DateTimeLiteral:
		return "datetime" + quote(t.Text)
	case Int64Literal:
		return t.Text + "L"
	default:
		return t.Text
	}
}

func (t Token) String() string {
	return t.Kind.String() + "(" + t.Text + ")"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
