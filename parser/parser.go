// Package parser checks associative array declarations such as
//
//	let scores = { "alice": 10, "bob": 7 };
//
// with a finite automaton over lexer tokens:
//
//	Assoc -> 'let' ID '=' '{' [ Pair { ',' Pair } [','] ] '}' ';'
//	Pair  -> String ':' Number
//
// An error does not stop the run. The automaton reports it, skips ahead to
// the nearest token it can resume from (Irons' method) and keeps going, so
// one pass lists every problem of a document.
package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/lifei6671/tsi18n"
	"github.com/lifei6671/tsi18n/lexer"
)

// Error messages. They are the source strings of the "Parser" translation
// context and may hold {} placeholders filled from SyntaxError.Args.
const (
	MsgLexical              = "Lexical error: '{}'"
	MsgNotLet               = "'{}' is not the keyword 'let'"
	MsgExpectedLet          = "Expected keyword 'let'"
	MsgIdentLetter          = "Identifier must start with a letter"
	MsgMissingIdent         = "Missing identifier between 'let' and '='"
	MsgExpectedIdent        = "Expected identifier after 'let'"
	MsgExpectedAssign       = "Expected assignment operator '='"
	MsgExpectedLBrace       = "Expected opening brace '{{'"
	MsgExpectedKeyOrRBrace  = "Expected quoted key or closing brace '}}'"
	MsgExpectedColon        = "Expected colon ':'"
	MsgExpectedValue        = "Expected numeric value"
	MsgExpectedCommaOrBrace = "Expected comma ',' or closing brace '}}'"
	MsgExpectedKey          = "Expected quoted key"
	MsgExpectedSemicolon    = "Expected semicolon ';'"

	MsgNoIdent     = "Incomplete declaration: missing identifier after 'let'"
	MsgNoAssign    = "Incomplete declaration: missing assignment operator '='"
	MsgNoLBrace    = "Incomplete declaration: missing opening brace '{{'"
	MsgNoContent   = "Incomplete object: missing content or closing brace '}}'"
	MsgNoColon     = "Incomplete property: missing colon after key"
	MsgNoValue     = "Incomplete property: missing value after colon"
	MsgNoRBrace    = "Incomplete object: missing comma or closing brace '}}'"
	MsgNoSemicolon = "Incomplete declaration: missing semicolon ';'"
)

// State is a state of the automaton, named after the last accepted token.
type State int

const (
	Start State = iota
	AfterLet
	AfterIdent
	AfterAssign
	InObject
	AfterKey
	AfterColon
	AfterValue
	AfterComma
	AfterObject
	Recovering
)

var stateNames = [...]string{
	Start:       "START",
	AfterLet:    "KEYWORD",
	AfterIdent:  "ID",
	AfterAssign: "ASSIGN",
	InObject:    "LBRACE",
	AfterKey:    "KEY",
	AfterColon:  "COLON",
	AfterValue:  "VALUE",
	AfterComma:  "COMMA",
	AfterObject: "RBRACE",
	Recovering:  "ERROR",
}

func (s State) String() string {
	if s < Start || s > Recovering {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// incomplete maps the state left at the end of input to its message.
var incomplete = map[State]string{
	AfterLet:    MsgNoIdent,
	AfterIdent:  MsgNoAssign,
	AfterAssign: MsgNoLBrace,
	InObject:    MsgNoContent,
	AfterKey:    MsgNoColon,
	AfterColon:  MsgNoValue,
	AfterValue:  MsgNoRBrace,
	AfterComma:  MsgNoRBrace,
	AfterObject: MsgNoSemicolon,
}

// SyntaxError is one finding. Message is the untranslated source text;
// Value is the offending token, empty at the end of input.
type SyntaxError struct {
	Message string
	Args    []any
	Line    int
	Column  int
	Value   string
}

// Text renders Message with Args.
func (e *SyntaxError) Text() string {
	s, err := tsi18n.RenderTemplate(e.Message, e.Args...)
	if err != nil {
		return e.Message
	}
	return s
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Text())
}

// Result is the outcome of one run.
type Result struct {
	Tokens []lexer.Token
	Errors []*SyntaxError
	// Declarations counts the declarations closed by ';', including
	// those that needed recovery.
	Declarations int
	// Trace lists the visited states and the recoveries, one line each.
	Trace []string
}

// OK reports whether the document is free of errors.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Parse tokenizes src and runs the automaton over it.
func Parse(src string) *Result {
	return ParseTokens(lexer.Tokenize(src))
}

// ParseTokens runs the automaton over toks. Invalid tokens are reported as
// lexical errors first and are otherwise ignored.
func ParseTokens(toks []lexer.Token) *Result {
	m := &machine{res: &Result{Tokens: toks}}

	for _, tok := range toks {
		if tok.Kind == lexer.Invalid {
			m.fail(tok, MsgLexical, tok.Value)
			continue
		}
		m.toks = append(m.toks, tok)
	}

	for m.i < len(m.toks) {
		tok := m.toks[m.i]
		m.trace("%s %s %q at %d:%d", m.state, tok.Kind, tok.Value, tok.Line, tok.Column)
		if m.step(tok) {
			continue
		}
		m.i++
	}
	m.finish()

	log.Debug().
		Int("tokens", len(toks)).
		Int("declarations", m.res.Declarations).
		Int("errors", len(m.res.Errors)).
		Msg("syntax analysis finished")
	return m.res
}

type machine struct {
	toks  []lexer.Token
	i     int
	state State
	res   *Result
}

// target is a token the automaton can resume from and the state it enters.
type target struct {
	kind  lexer.Kind
	value string
	state State
}

func (t target) match(tok lexer.Token) bool {
	return tok.Kind == t.kind && (t.value == "" || tok.Value == t.value)
}

var resumeAtLet = target{kind: lexer.Keyword, value: "let", state: AfterLet}

// step feeds tok to the automaton. It returns true when tok must be fed
// again in the new state.
func (m *machine) step(tok lexer.Token) bool {
	switch m.state {
	case Start:
		switch {
		case isLet(tok):
			m.state = AfterLet
		case tok.Kind == lexer.Identifier && strings.HasPrefix(strings.ToLower(tok.Value), "let"):
			m.fail(tok, MsgNotLet, tok.Value)
			m.trace("recovery: %q taken as 'let'", tok.Value)
			m.state = AfterLet
		default:
			m.fail(tok, MsgExpectedLet)
			m.resume(resumeAtLet)
		}

	case AfterLet:
		switch tok.Kind {
		case lexer.Identifier:
			if !startsWithLetter(tok.Value) {
				m.fail(tok, MsgIdentLetter)
				m.trace("recovery: identifier %q accepted", tok.Value)
			}
			m.state = AfterIdent
		case lexer.Assignment:
			m.fail(tok, MsgMissingIdent)
			m.trace("recovery: identifier inserted before '='")
			m.state = AfterAssign
		default:
			m.fail(tok, MsgExpectedIdent)
			m.resume(target{kind: lexer.Identifier, state: AfterIdent})
		}

	case AfterIdent:
		switch tok.Kind {
		case lexer.Assignment:
			m.state = AfterAssign
		case lexer.LeftBrace:
			m.fail(tok, MsgExpectedAssign)
			m.trace("recovery: '=' inserted")
			m.state = InObject
		default:
			m.fail(tok, MsgExpectedAssign)
			m.resume(
				target{kind: lexer.Assignment, state: AfterAssign},
				target{kind: lexer.LeftBrace, state: InObject},
			)
		}

	case AfterAssign:
		if tok.Kind == lexer.LeftBrace {
			m.state = InObject
			break
		}
		m.fail(tok, MsgExpectedLBrace)
		m.resume(target{kind: lexer.LeftBrace, state: InObject})

	case InObject, AfterComma:
		switch tok.Kind {
		case lexer.String:
			m.state = AfterKey
		case lexer.RightBrace:
			// covers both "{}" and a trailing comma
			m.state = AfterObject
		default:
			if m.state == InObject {
				m.fail(tok, MsgExpectedKeyOrRBrace)
			} else {
				m.fail(tok, MsgExpectedKey)
			}
			m.resume(
				target{kind: lexer.String, state: AfterKey},
				target{kind: lexer.RightBrace, state: AfterObject},
			)
		}

	case AfterKey:
		switch tok.Kind {
		case lexer.Colon:
			m.state = AfterColon
		case lexer.Number:
			m.fail(tok, MsgExpectedColon)
			m.trace("recovery: ':' inserted")
			m.state = AfterValue
		default:
			m.fail(tok, MsgExpectedColon)
			m.resume(
				target{kind: lexer.Colon, state: AfterColon},
				target{kind: lexer.Number, state: AfterValue},
			)
		}

	case AfterColon:
		switch tok.Kind {
		case lexer.Number:
			m.state = AfterValue
		case lexer.Comma:
			m.fail(tok, MsgExpectedValue)
			m.trace("recovery: value inserted before ','")
			m.state = AfterComma
		case lexer.RightBrace:
			m.fail(tok, MsgExpectedValue)
			m.trace("recovery: value inserted before '}'")
			m.state = AfterObject
		default:
			m.fail(tok, MsgExpectedValue)
			m.resume(
				target{kind: lexer.Number, state: AfterValue},
				target{kind: lexer.Comma, state: AfterComma},
				target{kind: lexer.RightBrace, state: AfterObject},
			)
		}

	case AfterValue:
		switch tok.Kind {
		case lexer.Comma:
			m.state = AfterComma
		case lexer.RightBrace:
			m.state = AfterObject
		default:
			m.fail(tok, MsgExpectedCommaOrBrace)
			m.resume(
				target{kind: lexer.Comma, state: AfterComma},
				target{kind: lexer.RightBrace, state: AfterObject},
			)
		}

	case AfterObject:
		if tok.Kind == lexer.Semicolon {
			m.res.Declarations++
			m.state = Start
			break
		}
		m.fail(tok, MsgExpectedSemicolon)
		if isLet(tok) {
			m.trace("recovery: ';' inserted")
			m.res.Declarations++
			m.state = Start
			return true
		}
		m.state = Recovering

	case Recovering:
		switch {
		case tok.Kind == lexer.Semicolon:
			m.trace("recovery: ';' found")
			m.res.Declarations++
			m.state = Start
		case isLet(tok):
			m.trace("recovery: 'let' found")
			m.state = Start
			return true
		case tok.Kind == lexer.RightBrace:
			m.trace("recovery: '}' found")
			m.state = AfterObject
		}
	}
	return false
}

// resume skips to the nearest later token matching one of targets and
// consumes it in the target's state. Without one the automaton drops into
// Recovering and waits for ';', '}' or 'let'.
func (m *machine) resume(targets ...target) {
	for j := m.i + 1; j < len(m.toks); j++ {
		for _, t := range targets {
			if t.match(m.toks[j]) {
				m.trace("recovery: skipped %d tokens to %s %q", j-m.i, m.toks[j].Kind, m.toks[j].Value)
				m.i = j
				m.state = t.state
				return
			}
		}
	}
	m.trace("recovery: no token to resume from")
	m.state = Recovering
}

func (m *machine) finish() {
	msg, ok := incomplete[m.state]
	if !ok || len(m.res.Tokens) == 0 {
		return
	}
	last := m.res.Tokens[len(m.res.Tokens)-1]
	m.res.Errors = append(m.res.Errors, &SyntaxError{
		Message: msg,
		Line:    last.Line,
		Column:  last.Column + utf8.RuneCountInString(last.Value),
	})
}

func (m *machine) fail(tok lexer.Token, msg string, args ...any) {
	e := &SyntaxError{
		Message: msg,
		Args:    args,
		Line:    tok.Line,
		Column:  tok.Column,
		Value:   tok.Value,
	}
	m.res.Errors = append(m.res.Errors, e)
	m.trace("error: %s", e)
}

func (m *machine) trace(format string, args ...any) {
	m.res.Trace = append(m.res.Trace, fmt.Sprintf(format, args...))
}

func isLet(tok lexer.Token) bool {
	return resumeAtLet.match(tok)
}

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
