// Package lexer splits JavaScript-like source into tokens: the keywords
// let, var and const, identifiers, numbers, double-quoted strings, the
// arithmetic operators, braces, '=', ':', ',' and ';'. Any other rune is
// reported as an Invalid token instead of stopping the scan.
package lexer

import "fmt"

// Kind classifies a token.
type Kind int

const (
	Keyword Kind = iota + 1
	Identifier
	Number
	String
	Operator
	LeftBrace
	RightBrace
	Assignment
	Colon
	Comma
	Semicolon
	Invalid
)

var kindNames = [...]string{
	Keyword:    "keyword",
	Identifier: "identifier",
	Number:     "number",
	String:     "string",
	Operator:   "operator",
	LeftBrace:  "opening brace",
	RightBrace: "closing brace",
	Assignment: "assignment operator",
	Colon:      "colon",
	Comma:      "comma",
	Semicolon:  "semicolon",
	Invalid:    "invalid symbol",
}

// Code is the numeric token code shown in the results table.
func (k Kind) Code() int {
	return int(k)
}

// String returns the English description, also used as the message
// source in the "Scanner" translation context.
func (k Kind) String() string {
	if k < Keyword || k > Invalid {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Token is one lexeme. Line and Column are 1-based; Column counts runes.
type Token struct {
	Kind   Kind
	Value  string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Kind, t.Value)
}

// Keywords recognized by the scanner.
var Keywords = map[string]struct{}{
	"let":   {},
	"var":   {},
	"const": {},
}
