// Package analyzer runs the lexical scanner over a document and builds the
// localized report shown in the editor's console and error panels.
package analyzer

import (
	"github.com/rs/zerolog/log"

	"github.com/lifei6671/tsi18n"
	"github.com/lifei6671/tsi18n/lexer"
)

// Translation contexts of the report messages.
const (
	WindowContext  = "MainWindow"
	ScannerContext = "Scanner"
)

// ExampleLimit is how many lexemes the console report lists.
const ExampleLimit = 5

// Diagnostic is an invalid symbol found by the scanner.
type Diagnostic struct {
	Line     int
	Position int
	Value    string
	Message  string

	text string
}

// String returns the localized "Error in line {}, position {}: '{}'" line.
func (d Diagnostic) String() string {
	return d.text
}

// Row is a token as displayed in the results table.
type Row struct {
	Code     int
	Type     string
	Value    string
	Line     int
	Position int
}

// Result is the outcome of one analysis run.
type Result struct {
	Tokens  []lexer.Token
	Rows    []Row
	Errors  []Diagnostic
	Console []string
}

// OK reports whether no invalid symbol was found.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Analyze tokenizes text and reports through loc. Tokens holds the valid
// tokens only; invalid symbols become Errors.
func Analyze(text string, loc *tsi18n.Locale) *Result {
	res := &Result{}
	if text == "" {
		res.Console = append(res.Console, loc.Tr(ScannerContext, "No text to analyze"))
		return res
	}

	res.Console = append(res.Console, loc.Tr(WindowContext, "Starting lexical analysis for JavaScript code..."))

	for _, tok := range lexer.Tokenize(text) {
		if tok.Kind == lexer.Invalid {
			res.Errors = append(res.Errors, Diagnostic{
				Line:     tok.Line,
				Position: tok.Column,
				Value:    tok.Value,
				Message:  loc.Tr(WindowContext, "Invalid symbol detected: '{}'", tok.Value),
				text:     loc.Tr(WindowContext, "Error in line {}, position {}: '{}'", tok.Line, tok.Column, tok.Value),
			})
			continue
		}
		res.Tokens = append(res.Tokens, tok)
		res.Rows = append(res.Rows, Row{
			Code:     tok.Kind.Code(),
			Type:     loc.Tr(ScannerContext, tok.Kind.String()),
			Value:    tok.Value,
			Line:     tok.Line,
			Position: tok.Column,
		})
	}

	res.Console = append(res.Console, loc.Tr(WindowContext, "Lexical analysis completed: found {} tokens", len(res.Tokens)))
	if len(res.Errors) > 0 {
		res.Console = append(res.Console, loc.Tr(WindowContext, "Warning: detected {} invalid symbols", len(res.Errors)))
		for _, d := range res.Errors {
			res.Console = append(res.Console, d.String())
		}
	} else {
		res.Console = append(res.Console, loc.Tr(WindowContext, "No syntax errors detected"))
	}

	if len(res.Rows) > 0 {
		res.Console = append(res.Console, loc.Tr(WindowContext, "Examples of found lexemes:"))
		for i, row := range res.Rows {
			if i == ExampleLimit {
				res.Console = append(res.Console, "...")
				break
			}
			res.Console = append(res.Console, row.Type+": "+row.Value)
		}
	}

	log.Debug().
		Str("lang", loc.Lang()).
		Int("tokens", len(res.Tokens)).
		Int("errors", len(res.Errors)).
		Msg("lexical analysis finished")
	return res
}
