// Package lexer splits filter strings into tokens.
//
// Lexing never fails: text that cannot be recognised comes back as an Error
// token carrying the offending span, and the parser decides what to do with it.
package lexer

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var keywords = []Token{
	{CompEq, "eq"},
	{CompGt, "gt"},
	{CompGe, "ge"},
	{CompLt, "lt"},
	{CompLe, "le"},
	{CompNe, "ne"},
	{LogicalAnd, "and"},
	{LogicalNot, "not"},
	{LogicalOr, "or"},
}

// Analyse lazily tokenizes text.
func Analyse(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		s := scanner{text: text}
		for !s.empty() {
			if s.whitespace() {
				s.advance()
				continue
			}
			tok := s.next()
			if !yield(tok) {
				return
			}
		}
	}
}

// Tokens returns every token in text.
func Tokens(text string) []Token {
	return slices.Collect(Analyse(text))
}

// scanner walks text by byte offset. All methods work on whole runes.
type scanner struct {
	text string
	pos  int
}

func (s *scanner) empty() bool { return s.pos >= len(s.text) }

func (s *scanner) peek() rune {
	if s.empty() {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.text[s.pos:])
	return r
}

func (s *scanner) advance() {
	_, n := utf8.DecodeRuneInString(s.text[s.pos:])
	s.pos += n
}

func (s *scanner) whitespace() bool { return !s.empty() && unicode.IsSpace(s.peek()) }

func (s *scanner) hasPrefix(p string) bool { return strings.HasPrefix(s.text[s.pos:], p) }

// terminated reports whether a token may end at the current position.
func (s *scanner) terminated() bool {
	if s.empty() || s.whitespace() {
		return true
	}
	r := s.peek()
	return r == '(' || r == ')'
}

// skipToWhitespace consumes at least one rune and stops at whitespace or end.
func (s *scanner) skipToWhitespace() {
	for {
		s.advance()
		if s.empty() || s.whitespace() {
			return
		}
	}
}

func (s *scanner) from(start int) string { return s.text[start:s.pos] }

func (s *scanner) next() Token {
	if tok, ok := s.paren(); ok {
		return tok
	}
	if tok, ok := s.keyword(); ok {
		return tok
	}
	if tok, ok := s.literal(); ok {
		return tok
	}
	if tok, ok := s.identifier(); ok {
		return tok
	}
	start := s.pos
	s.skipToWhitespace()
	return Token{Error, s.from(start)}
}

func (s *scanner) paren() (Token, bool) {
	switch s.peek() {
	case '(':
		s.advance()
		return Token{OpenParen, "("}, true
	case ')':
		s.advance()
		return Token{CloseParen, ")"}, true
	}
	return Token{}, false
}

// keyword matches the first keyword that prefixes the input. It only counts
// when followed by whitespace, end of input or an open paren, so "equal" is
// not read as "eq".
func (s *scanner) keyword() (Token, bool) {
	for _, kw := range keywords {
		if !s.hasPrefix(kw.Text) {
			continue
		}
		rest := s.text[s.pos+len(kw.Text):]
		if rest == "" || strings.HasPrefix(rest, "(") {
			s.pos += len(kw.Text)
			return kw, true
		}
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsSpace(r) {
			s.pos += len(kw.Text)
			return kw, true
		}
		return Token{}, false
	}
	return Token{}, false
}

func (s *scanner) literal() (Token, bool) {
	switch {
	case s.peek() == '\'':
		return s.stringLiteral(), true
	case s.hasPrefix("datetime'"):
		return s.prefixedLiteral(len("datetime"), DateTimeLiteral), true
	case s.hasPrefix("guid'"):
		return s.prefixedLiteral(len("guid"), GuidLiteral), true
	case s.peek() >= '0' && s.peek() <= '9':
		return s.number(), true
	}
	return Token{}, false
}

// stringLiteral scans a quoted literal starting at the opening quote.
func (s *scanner) stringLiteral() Token {
	start := s.pos
	s.advance()
	var b strings.Builder
	for !s.empty() {
		if s.hasPrefix("''") {
			b.WriteByte('\'')
			s.pos += 2
			continue
		}
		if s.peek() == '\'' {
			s.advance()
			if !s.terminated() {
				s.skipToWhitespace()
				return Token{Error, s.from(start)}
			}
			return Token{StringLiteral, b.String()}
		}
		b.WriteRune(s.peek())
		s.advance()
	}
	return Token{Error, s.from(start)}
}

func (s *scanner) prefixedLiteral(prefixLen int, kind Kind) Token {
	start := s.pos
	s.pos += prefixLen
	tok := s.stringLiteral()
	if tok.Kind == Error {
		return Token{Error, s.from(start)}
	}
	tok.Kind = kind
	return tok
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// number scans digits with an optional single fraction and an optional L
// suffix. "1." and "1.5L" are invalid, and so is a number running into
// anything other than whitespace, end of input or a paren.
func (s *scanner) number() Token {
	start := s.pos
	fraction, invalid := false, false
	for !s.empty() && isDigit(s.peek()) {
		s.advance()
		if !fraction && s.peek() == '.' && !s.empty() {
			fraction = true
			s.advance()
			if !isDigit(s.peek()) {
				invalid = true
			}
		}
	}
	digits := s.from(start)

	long := false
	if !s.empty() && s.peek() == 'L' {
		long = true
		s.advance()
	}

	if !s.terminated() {
		s.skipToWhitespace()
		return Token{Error, s.from(start)}
	}

	switch {
	case invalid || (long && fraction):
		return Token{Error, s.from(start)}
	case fraction:
		return Token{DoubleLiteral, digits}
	case long:
		return Token{Int64Literal, digits}
	default:
		return Token{Int32Literal, digits}
	}
}

func canStartIdentifier(r rune) bool {
	return r == '@' || r == '_' || unicode.IsLetter(r)
}

func isIdentifierRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// identifier takes the longest valid run. Whatever follows is left for the
// next token rather than reported as part of the identifier.
func (s *scanner) identifier() (Token, bool) {
	if !canStartIdentifier(s.peek()) {
		return Token{}, false
	}
	start := s.pos
	s.advance()
	for !s.empty() && isIdentifierRune(s.peek()) {
		s.advance()
	}
	return Token{Identifier, s.from(start)}, true
}
