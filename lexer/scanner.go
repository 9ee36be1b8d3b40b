package lexer

import (
	"unicode"
)

// Scanner walks a source text rune by rune.
type Scanner struct {
	src  []rune
	pos  int
	line int
	col  int
}

// NewScanner returns a scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: []rune(src), line: 1, col: 1}
}

// Tokenize scans src completely. Whitespace is dropped; invalid runes are
// kept as Invalid tokens.
func Tokenize(src string) []Token {
	s := NewScanner(src)
	var out []Token
	for {
		tok, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

// Next returns the next token, or false at the end of input.
func (s *Scanner) Next() (Token, bool) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return Token{}, false
	}

	start, line, col := s.pos, s.line, s.col
	r := s.src[s.pos]
	kind := Invalid

	switch {
	case isLetter(r):
		s.advanceWhile(isIdentRune)
		kind = Identifier
		if _, ok := Keywords[string(s.src[start:s.pos])]; ok && !s.wordBefore(start) && !isWordRune(s.peek(0)) {
			kind = Keyword
		}
	case isDigit(r):
		s.scanNumber()
		kind = Number
	case r == '"':
		if s.scanString() {
			kind = String
		} else {
			s.advance()
		}
	default:
		s.advance()
		kind = punctuation(r)
	}

	return Token{
		Kind:   kind,
		Value:  string(s.src[start:s.pos]),
		Line:   line,
		Column: col,
	}, true
}

func punctuation(r rune) Kind {
	switch r {
	case '+', '-', '*', '/':
		return Operator
	case '=':
		return Assignment
	case '{':
		return LeftBrace
	case '}':
		return RightBrace
	case ':':
		return Colon
	case ',':
		return Comma
	case ';':
		return Semicolon
	}
	return Invalid
}

// scanNumber consumes digits with an optional fraction: 12, 12., 12.5
func (s *Scanner) scanNumber() {
	s.advanceWhile(isDigit)
	if s.peek(0) == '.' {
		s.advance()
		s.advanceWhile(isDigit)
	}
}

// scanString consumes a double-quoted literal with backslash escapes. An
// escape may not be followed by a line break. On an unterminated literal
// nothing is consumed and false is returned.
func (s *Scanner) scanString() bool {
	i := s.pos + 1
	for i < len(s.src) {
		switch s.src[i] {
		case '"':
			for s.pos <= i {
				s.advance()
			}
			return true
		case '\\':
			if i+1 >= len(s.src) || s.src[i+1] == '\n' {
				return false
			}
			i += 2
		default:
			i++
		}
	}
	return false
}

// wordBefore reports whether the rune before start continues a word, which
// keeps "1let" and "éconst" from yielding a keyword.
func (s *Scanner) wordBefore(start int) bool {
	return start > 0 && isWordRune(s.src[start-1])
}

func (s *Scanner) skipSpace() {
	s.advanceWhile(unicode.IsSpace)
}

func (s *Scanner) advanceWhile(pred func(rune) bool) {
	for s.pos < len(s.src) && pred(s.src[s.pos]) {
		s.advance()
	}
}

func (s *Scanner) advance() {
	if s.src[s.pos] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.pos++
}

func (s *Scanner) peek(off int) rune {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

// isLetter and isIdentRune accept ASCII only; identifiers are [a-zA-Z_][a-zA-Z0-9_]*.
func isLetter(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isIdentRune(r rune) bool {
	return isLetter(r) || ('0' <= r && r <= '9')
}

// isDigit accepts any decimal digit, "٣" included.
func isDigit(r rune) bool {
	return unicode.IsDigit(r)
}

// isWordRune decides keyword boundaries, so "letж" is not a keyword.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
