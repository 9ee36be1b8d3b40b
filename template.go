package tsi18n

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// AST DEFINITIONS
///////////////////////////////////////////////////////////////////////////////

// Node is the interface for all AST nodes.
type Node interface {
	// Eval renders the node. st carries the arguments and the cursor of
	// the next automatically numbered placeholder.
	Eval(st *evalState) (string, error)
}

type evalState struct {
	args []any
	next int
}

// TextNode represents a static text segment.
type TextNode struct {
	Text string
}

func (t *TextNode) Eval(_ *evalState) (string, error) {
	return t.Text, nil
}

// Formatter represents a single formatter in the chain.
type Formatter struct {
	Name string
	Arg  string
}

// Conditional represents a ternary condition inside a placeholder.
type Conditional struct {
	Op        string // "eq", "gt", "lt"
	TestValue string
	TrueExpr  string
	FalseExpr string
}

// PlaceholderNode represents {} / {N} with an optional chain: {N | formatter:arg | ...}
type PlaceholderNode struct {
	Index      int // -1 for automatic numbering
	Formatters []Formatter
	Cond       *Conditional // optional
}

func (p *PlaceholderNode) Eval(st *evalState) (string, error) {
	idx := p.Index
	if idx < 0 {
		idx = st.next
		st.next++
	}
	if idx >= len(st.args) {
		return "", fmt.Errorf("missing argument %d (have %d)", idx, len(st.args))
	}
	value := st.args[idx]

	var err error
	for _, f := range p.Formatters {
		value, err = applyRegisteredFormatter(value, f.Name, f.Arg)
		if err != nil {
			return "", err
		}
	}

	if p.Cond != nil {
		ok, err := compareValues(value, p.Cond.Op, p.Cond.TestValue)
		if err != nil {
			return "", err
		}
		// branches see the same arguments and number their own {} from zero
		if ok {
			return RenderTemplate(p.Cond.TrueExpr, st.args...)
		}
		return RenderTemplate(p.Cond.FalseExpr, st.args...)
	}

	return fmt.Sprint(value), nil
}

// TemplateAST is a whole parsed template.
type TemplateAST []Node

func (t TemplateAST) Eval(args ...any) (string, error) {
	st := &evalState{args: args}
	var buf bytes.Buffer
	for _, node := range t {
		s, err := node.Eval(st)
		if err != nil {
			return "", err
		}
		buf.WriteString(s)
	}
	return buf.String(), nil
}

// Placeholders returns the number of top-level placeholders.
func (t TemplateAST) Placeholders() int {
	n := 0
	for _, node := range t {
		if _, ok := node.(*PlaceholderNode); ok {
			n++
		}
	}
	return n
}

///////////////////////////////////////////////////////////////////////////////
// AST CACHE
///////////////////////////////////////////////////////////////////////////////

var (
	astCache   = map[string]TemplateAST{}
	cacheMutex sync.RWMutex
)

func cachedAST(tpl string) (TemplateAST, error) {
	cacheMutex.RLock()
	ast, ok := astCache[tpl]
	cacheMutex.RUnlock()
	if ok {
		return ast, nil
	}

	ast, err := ParseTemplate(tpl)
	if err != nil {
		return nil, err
	}
	cacheMutex.Lock()
	astCache[tpl] = ast
	cacheMutex.Unlock()
	return ast, nil
}

// RenderTemplate substitutes args into the placeholders of tpl.
//
// If the template has been parsed once, parsing is skipped and the cached AST is used.
func RenderTemplate(tpl string, args ...any) (string, error) {
	ast, err := cachedAST(tpl)
	if err != nil {
		return tpl, err
	}
	return ast.Eval(args...)
}

// CountPlaceholders returns how many placeholders tpl contains. Escaped
// braces and malformed placeholders are not counted.
func CountPlaceholders(tpl string) int {
	ast, err := cachedAST(tpl)
	if err != nil {
		return 0
	}
	return ast.Placeholders()
}

///////////////////////////////////////////////////////////////////////////////
// TEMPLATE PARSER
///////////////////////////////////////////////////////////////////////////////

// ParseTemplate parses tpl string into an AST (TemplateAST).
// "{{" and "}}" are literal braces. Nested `{}` inside a placeholder are
// allowed for conditional branches. Parsing is tolerant: an unclosed '{',
// a stray '}' or a malformed placeholder is kept as plain text.
func ParseTemplate(tpl string) (TemplateAST, error) {
	return parseTemplate(tpl, false)
}

// parseTemplate is ParseTemplate; in strict mode a malformed placeholder is
// an error instead of text.
func parseTemplate(tpl string, strict bool) (TemplateAST, error) {
	runes := []rune(tpl)
	n := len(runes)

	var nodes TemplateAST
	var buf bytes.Buffer

	flush := func() {
		if buf.Len() > 0 {
			nodes = append(nodes, &TextNode{Text: buf.String()})
			buf.Reset()
		}
	}

	i := 0
	for i < n {
		switch {
		case runes[i] == '{' && i+1 < n && runes[i+1] == '{':
			buf.WriteRune('{')
			i += 2
			continue
		case runes[i] == '}' && i+1 < n && runes[i+1] == '}':
			buf.WriteRune('}')
			i += 2
			continue
		case runes[i] != '{':
			buf.WriteRune(runes[i])
			i++
			continue
		}

		start := i
		depth := 1
		j := i + 1
		for j < n && depth > 0 {
			switch runes[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			j++
		}

		if depth != 0 {
			buf.WriteRune(runes[start])
			i = start + 1
			continue
		}

		// j is one past the matching '}'
		raw := string(runes[start+1 : j-1])
		i = j

		ph, err := parsePlaceholder(raw)
		if err != nil {
			if strict {
				return nil, err
			}
			buf.WriteString("{" + raw + "}")
			continue
		}

		flush()
		nodes = append(nodes, ph)
	}

	flush()
	return nodes, nil
}

///////////////////////////////////////////////////////////////////////////////
// PLACEHOLDER PARSER
///////////////////////////////////////////////////////////////////////////////

// parsePlaceholder parses the expression inside `{ ... }`.
func parsePlaceholder(expr string) (*PlaceholderNode, error) {
	parts := strings.Split(expr, "|")

	ph := &PlaceholderNode{Index: -1}
	if head := strings.TrimSpace(parts[0]); head != "" {
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("placeholder %q: argument must be empty or an index", head)
		}
		ph.Index = idx
	}

	for i := 1; i < len(parts); i++ {
		seg := strings.TrimSpace(parts[i])
		if seg == "" {
			return nil, errors.New("empty formatter segment")
		}

		if strings.Contains(seg, "?") {
			cond, err := parseConditional(seg)
			if err != nil {
				return nil, err
			}
			ph.Cond = cond
			continue
		}

		name, arg := parseFormatterSegment(seg)
		if name == "" {
			return nil, fmt.Errorf("empty formatter name in segment %q", seg)
		}
		ph.Formatters = append(ph.Formatters, Formatter{
			Name: name,
			Arg:  arg,
		})
	}

	return ph, nil
}

// parseFormatterSegment parses "number:2" etc.
func parseFormatterSegment(seg string) (name, arg string) {
	ff := strings.SplitN(seg, ":", 2)
	name = strings.TrimSpace(ff[0])
	if len(ff) > 1 {
		arg = strings.TrimSpace(ff[1])
	}
	return
}

// parseConditional parses "eq:0?A:B".
func parseConditional(expr string) (*Conditional, error) {
	q := strings.SplitN(expr, "?", 2)
	if len(q) != 2 {
		return nil, fmt.Errorf("invalid conditional: %s", expr)
	}
	tf := strings.SplitN(q[1], ":", 2)
	if len(tf) != 2 {
		return nil, fmt.Errorf("invalid conditional: %s", expr)
	}

	condKV := strings.SplitN(q[0], ":", 2)
	if len(condKV) != 2 {
		return nil, fmt.Errorf("invalid condition: %s", q[0])
	}

	return &Conditional{
		Op:        strings.TrimSpace(condKV[0]),
		TestValue: strings.TrimSpace(condKV[1]),
		TrueExpr:  strings.TrimSpace(tf[0]),
		FalseExpr: strings.TrimSpace(tf[1]),
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// VALUE FORMATTING
///////////////////////////////////////////////////////////////////////////////

func formatDate(v any, layout string) (string, error) {
	if layout == "" {
		layout = "2006-01-02"
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout), nil
	case *time.Time:
		return t.Format(layout), nil
	case string:
		tt, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return "", err
		}
		return tt.Format(layout), nil
	default:
		return "", fmt.Errorf("not a time: %v", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func formatNumber(v any, precision string) (string, error) {
	f, ok := toFloat(v)
	if !ok {
		s, isStr := v.(string)
		if !isStr {
			return "", fmt.Errorf("number formatter requires numeric or numeric-string type, got %T", v)
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		ff, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", fmt.Errorf("number formatter: cannot parse %q", s)
		}
		f = ff
	}

	p := 0
	if precision != "" {
		pi, err := strconv.Atoi(precision)
		if err != nil {
			return "", fmt.Errorf("number formatter: invalid precision %q", precision)
		}
		p = pi
	}

	return addThousandsSep(strconv.FormatFloat(f, 'f', p, 64)), nil
}

func addThousandsSep(s string) string {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	intPart := parts[0]

	var buf bytes.Buffer
	for i, c := range intPart {
		if i != 0 && (len(intPart)-i)%3 == 0 {
			buf.WriteRune(',')
		}
		buf.WriteRune(c)
	}

	if len(parts) > 1 {
		buf.WriteRune('.')
		buf.WriteString(parts[1])
	}

	if neg {
		return "-" + buf.String()
	}
	return buf.String()
}

func formatCurrency(v any, arg string) (string, error) {
	symbol := "$"
	if arg != "" {
		symbol = arg
	}

	f, ok := toFloat(v)
	if !ok {
		s, isStr := v.(string)
		if !isStr {
			return "", fmt.Errorf("currency formatter requires numeric or numeric-string type, got %T", v)
		}
		s = strings.TrimSpace(s)
		for _, sym := range []string{"$", "¥", "€", "£", "₽", symbol} {
			s = strings.TrimPrefix(s, sym)
		}
		s = strings.ReplaceAll(s, ",", "")
		ff, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", fmt.Errorf("currency formatter: cannot parse number from %q", v)
		}
		f = ff
	}

	return symbol + addThousandsSep(strconv.FormatFloat(f, 'f', 2, 64)), nil
}

func compareValues(v any, op string, test string) (bool, error) {
	if lv, ok := toFloat(v); ok {
		return compareNumbers(lv, op, test)
	}
	switch vv := v.(type) {
	case string:
		switch op {
		case "eq":
			return vv == test, nil
		default:
			return false, fmt.Errorf("unsupported string op: %s", op)
		}
	default:
		return false, fmt.Errorf("unsupported type for compare: %T", v)
	}
}

func compareNumbers(lv float64, op, test string) (bool, error) {
	rv, err := strconv.ParseFloat(test, 64)
	if err != nil {
		return false, err
	}

	switch op {
	case "eq":
		return lv == rv, nil
	case "gt":
		return lv > rv, nil
	case "lt":
		return lv < rv, nil
	default:
		return false, fmt.Errorf("unknown op: %s", op)
	}
}

// ValidateTemplate does a strict validation for linting purpose:
//  1. checks brace balance
//  2. parses into AST, rejecting placeholders the lenient parser keeps as text
//  3. checks formatter existence and basic arguments
func ValidateTemplate(tpl string) error {
	if err := checkBraces(tpl); err != nil {
		return err
	}

	ast, err := parseTemplate(tpl, true)
	if err != nil {
		return err
	}

	for _, node := range ast {
		ph, ok := node.(*PlaceholderNode)
		if !ok {
			continue
		}
		if err := checkPlaceholder(ph); err != nil {
			return err
		}
	}

	return nil
}

func checkPlaceholder(ph *PlaceholderNode) error {
	for _, f := range ph.Formatters {
		name := strings.TrimSpace(f.Name)
		if !hasFormatter(name) {
			return fmt.Errorf("unknown formatter: %s", name)
		}

		switch name {
		case "number":
			if f.Arg != "" {
				if _, err := strconv.Atoi(f.Arg); err != nil {
					return fmt.Errorf("invalid precision for number formatter: %q", f.Arg)
				}
			}
		}
	}

	if ph.Cond != nil {
		switch ph.Cond.Op {
		case "eq", "gt", "lt":
		default:
			return fmt.Errorf("unknown conditional operator: %s", ph.Cond.Op)
		}
		if ph.Cond.TrueExpr == "" || ph.Cond.FalseExpr == "" {
			return errors.New("invalid conditional expression: true/false branch must not be empty")
		}
	}
	return nil
}

// checkBraces checks that all '{' and '}' are balanced at the template
// level, treating "{{" and "}}" outside placeholders as escapes.
func checkBraces(tpl string) error {
	runes := []rune(tpl)
	depth := 0
	firstOpen := -1

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if depth == 0 && i+1 < len(runes) && runes[i+1] == r && (r == '{' || r == '}') {
			i++
			continue
		}
		switch r {
		case '{':
			if depth == 0 {
				firstOpen = i
			}
			depth++
		case '}':
			if depth == 0 {
				return fmt.Errorf("extra closing '}' at position %d", i)
			}
			depth--
		}
	}

	if depth != 0 && firstOpen >= 0 {
		return fmt.Errorf("unclosed placeholder starting at position %d", firstOpen)
	}
	return nil
}
