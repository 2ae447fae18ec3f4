// Package parser builds clause trees from filter tokens.
//
// The grammar is
//
//	filter     := expression EOF
//	expression := (parenExpr | comparison) (relop expression)?
//	parenExpr  := '(' expression ')'
//	comparison := data operator data
//	relop      := 'and' | 'or'
//	operator   := 'eq' | 'ne' | 'gt' | 'ge' | 'lt' | 'le'
//	data       := identifier | literal | relop | operator
//
// Every production is attempted from a token index and reports the index it
// stopped at. A failed attempt leaves the caller's index untouched, so
// alternatives can be tried from the same place.
package parser

import (
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr/ast"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr/lexer"
)

// ErrUnparsable is the message reported for any grammar mismatch.
const ErrUnparsable = "unable to parse filter string"

// ParseResult is the outcome of parsing a filter. On failure Root is an
// *ast.Error carrying the same message as Error.
type ParseResult struct {
	Root  ast.Clause
	Error string
}

func (r *ParseResult) Success() bool {
	return r.Error == ""
}

// String returns the error, or the description of the parsed filter.
func (r *ParseResult) String() string {
	if !r.Success() {
		return r.Error
	}
	return r.Root.Describe()
}

func failed(msg string) *ParseResult {
	return &ParseResult{Root: ast.NewError(msg), Error: msg}
}

// Parse lexes and parses text. Lexical errors are reported ahead of grammar
// errors.
func Parse(text string) *ParseResult {
	return ParseTokens(lexer.Tokens(text))
}

// ParseTokens parses an already lexed filter.
func ParseTokens(tokens []lexer.Token) *ParseResult {
	for _, tok := range tokens {
		if tok.Kind == lexer.Error {
			return failed(`"` + tok.Text + `" is not a valid token`)
		}
	}

	p := parser{tokens: tokens}
	root, end, ok := p.expression(0)
	if !ok || end != len(tokens) {
		return failed(ErrUnparsable)
	}
	return &ParseResult{Root: root}
}

type parser struct {
	tokens []lexer.Token
}

// at returns the token at i, or a Terminator past the end.
func (p *parser) at(i int) lexer.Token {
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return lexer.Token{Kind: lexer.Terminator}
}

func (p *parser) expression(i int) (ast.Clause, int, bool) {
	clause, next, ok := p.paren(i)
	if !ok {
		clause, next, ok = p.comparison(i)
	}
	if !ok {
		return nil, i, false
	}

	if op := p.at(next); op.IsRelop() {
		if rhs, end, ok := p.expression(next + 1); ok {
			return ast.NewRelOp(clause, op, rhs), end, true
		}
	}
	return clause, next, true
}

func (p *parser) paren(i int) (ast.Clause, int, bool) {
	if p.at(i).Kind != lexer.OpenParen {
		return nil, i, false
	}
	inner, next, ok := p.expression(i + 1)
	if !ok || p.at(next).Kind != lexer.CloseParen {
		return nil, i, false
	}
	return ast.NewParen(inner), next + 1, true
}

func (p *parser) comparison(i int) (ast.Clause, int, bool) {
	left, op, right := p.at(i), p.at(i+1), p.at(i+2)
	if !left.IsData() || !op.IsOperator() || !right.IsData() {
		return nil, i, false
	}
	return ast.NewComparison(left, op, right), i + 3, true
}
