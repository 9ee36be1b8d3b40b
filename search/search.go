// Package search finds structured values in free text: Russian insurance
// numbers (SNILS), Mir payment card numbers and chemical element symbols.
// A match must stand as a whole word, where letters and digits of any
// script and '_' are word characters.
package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind names a pattern.
type Kind string

const (
	SNILS           Kind = "snils"
	MirCard         Kind = "mir_card"
	ChemicalElement Kind = "chemical_element"
)

// Kinds lists every pattern in display order.
var Kinds = []Kind{SNILS, MirCard, ChemicalElement}

var ErrUnknownKind = errors.New("search: unknown pattern kind")

var elements = []string{
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var patterns = map[Kind]*regexp.Regexp{
	SNILS:           regexp.MustCompile(`\d{3}-\d{3}-\d{3}[\s\p{Z}]\d{2}`),
	MirCard:         regexp.MustCompile(`220[0-4]\d{12}`),
	ChemicalElement: longest(`(?:` + strings.Join(elements, "|") + `)`),
}

var descriptions = map[Kind]string{
	SNILS:           "SNILS (format: XXX-XXX-XXX XX)",
	MirCard:         "Mir card number (starts with 2200-2204)",
	ChemicalElement: "Chemical element of the periodic table",
}

func longest(expr string) *regexp.Regexp {
	re := regexp.MustCompile(expr)
	re.Longest()
	return re
}

// ParseKind validates s as a pattern name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := patterns[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Description is the English label of k, also the message source in the
// "Search" translation context.
func (k Kind) Description() string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return string(k)
}

// Validate runs the checksum of k over value. Chemical elements have no
// checksum and are always valid.
func (k Kind) Validate(value string) bool {
	switch k {
	case SNILS:
		return ValidSNILS(value)
	case MirCard:
		return ValidMirCard(value)
	}
	return true
}

// Match is one found value. Offsets count runes: Start and End index the
// whole text, Line and Column are 1-based.
type Match struct {
	Kind   Kind
	Text   string
	Start  int
	End    int
	Line   int
	Column int
}

// Find returns every whole-word match of kind in text, line by line.
func Find(text string, kind Kind) ([]Match, error) {
	re, ok := patterns[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var (
		res    []Match
		offset int
	)
	for n, line := range strings.Split(text, "\n") {
		for from := 0; from < len(line); {
			loc := re.FindStringIndex(line[from:])
			if loc == nil {
				break
			}
			start, end := from+loc[0], from+loc[1]
			if !wordAt(line, start, true) && !wordAt(line, end, false) {
				col := utf8.RuneCountInString(line[:start])
				res = append(res, Match{
					Kind:   kind,
					Text:   line[start:end],
					Start:  offset + col,
					End:    offset + col + utf8.RuneCountInString(line[start:end]),
					Line:   n + 1,
					Column: col + 1,
				})
				from = end
				continue
			}
			_, size := utf8.DecodeRuneInString(line[start:])
			from = start + size
		}
		offset += utf8.RuneCountInString(line) + 1
	}
	return res, nil
}

// wordAt reports whether the rune just before (before == true) or at byte
// offset i of s is a word character.
func wordAt(s string, i int, before bool) bool {
	var r rune
	if before {
		if i == 0 {
			return false
		}
		r, _ = utf8.DecodeLastRuneInString(s[:i])
	} else {
		if i >= len(s) {
			return false
		}
		r, _ = utf8.DecodeRuneInString(s[i:])
	}
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// ValidSNILS checks the control number of an "XXX-XXX-XXX XX" value: the
// first nine digits weighted 9 down to 1, summed modulo 101, with 100
// written as 00.
func ValidSNILS(s string) bool {
	if !whole(SNILS, s) {
		return false
	}
	d := digits(s)
	if len(d) != 11 {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += d[i] * (9 - i)
	}
	sum %= 101
	if sum == 100 {
		sum = 0
	}
	return sum == d[9]*10+d[10]
}

// ValidMirCard checks a Mir card number with the Luhn algorithm.
func ValidMirCard(s string) bool {
	if !whole(MirCard, s) {
		return false
	}
	sum := 0
	for i, n := range reverse(digits(s)) {
		if i%2 == 1 {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
	}
	return sum%10 == 0
}

func whole(k Kind, s string) bool {
	loc := patterns[k].FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

func digits(s string) []int {
	var d []int
	for _, r := range s {
		if '0' <= r && r <= '9' {
			d = append(d, int(r-'0'))
		}
	}
	return d
}

func reverse(d []int) []int {
	out := make([]int, len(d))
	for i, n := range d {
		out[len(d)-1-i] = n
	}
	return out
}
