package analyzer

import (
	"github.com/rs/zerolog/log"

	"github.com/lifei6671/tsi18n"
	"github.com/lifei6671/tsi18n/parser"
)

// ParserContext holds the syntax analysis messages.
const ParserContext = "Parser"

// SyntaxResult is the outcome of one syntax analysis run.
type SyntaxResult struct {
	Declarations int
	Errors       []Diagnostic
	Console      []string
	// Trace is the automaton log, untranslated.
	Trace []string
}

// OK reports whether the document is free of lexical and syntax errors.
func (r *SyntaxResult) OK() bool {
	return len(r.Errors) == 0
}

// AnalyzeSyntax checks the associative array declarations of text and
// reports through loc.
func AnalyzeSyntax(text string, loc *tsi18n.Locale) *SyntaxResult {
	res := &SyntaxResult{}
	if text == "" {
		res.Console = append(res.Console, loc.Tr(ScannerContext, "No text to analyze"))
		return res
	}

	res.Console = append(res.Console, loc.Tr(ParserContext, "Starting syntax analysis..."))

	pr := parser.Parse(text)
	res.Declarations = pr.Declarations
	res.Trace = pr.Trace
	for _, e := range pr.Errors {
		msg := loc.Tr(ParserContext, e.Message, e.Args...)
		res.Errors = append(res.Errors, Diagnostic{
			Line:     e.Line,
			Position: e.Column,
			Value:    e.Value,
			Message:  msg,
			text:     loc.Tr(ParserContext, "Error in line {}, position {}: {}", e.Line, e.Column, msg),
		})
	}

	res.Console = append(res.Console, loc.Tr(ParserContext,
		"Syntax analysis completed: {} declarations, {} errors", res.Declarations, len(res.Errors)))
	if len(res.Errors) == 0 {
		res.Console = append(res.Console, loc.Tr(WindowContext, "No syntax errors detected"))
	}
	for _, d := range res.Errors {
		res.Console = append(res.Console, d.String())
	}

	log.Debug().
		Str("lang", loc.Lang()).
		Int("declarations", res.Declarations).
		Int("errors", len(res.Errors)).
		Msg("syntax analysis finished")
	return res
}
