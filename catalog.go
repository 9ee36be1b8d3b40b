package tsi18n

import (
	"fmt"
	"sort"
	"strings"
)

// Translation types as written in the type attribute of <translation>.
const (
	TypeFinished   = ""
	TypeUnfinished = "unfinished"
	TypeObsolete   = "obsolete"
	TypeVanished   = "vanished"
)

// Key identifies a translation unit: the context it lives in plus its source text.
type Key struct {
	Context string
	Source  string
}

func (k Key) String() string {
	return k.Context + ": " + k.Source
}

// Location points at the place in the program sources that uses a message.
type Location struct {
	Filename string
	Line     int
}

// Unit is one <message> of a catalog.
type Unit struct {
	Key
	Translation  string
	Type         string
	Comment      string
	ExtraComment string
	Locations    []Location
}

// Text returns the display string of the unit. Empty, obsolete and
// vanished translations fall back to the source text.
func (u *Unit) Text() string {
	if u.Translation == "" || u.Type == TypeObsolete || u.Type == TypeVanished {
		return u.Source
	}
	return u.Translation
}

// Duplicate describes a key that occurs more than once in a catalog.
type Duplicate struct {
	Key          Key
	Translations []string // in document order
}

// Conflicting reports whether the occurrences disagree on the translation.
func (d Duplicate) Conflicting() bool {
	if len(d.Translations) < 2 {
		return false
	}
	for _, t := range d.Translations[1:] {
		if t != d.Translations[0] {
			return true
		}
	}
	return false
}

// Catalog holds the units of one language in document order.
type Catalog struct {
	Language       string
	SourceLanguage string
	Version        string

	units    []*Unit
	index    map[Key]*Unit
	bySource map[string]*Unit
	counts   map[Key]int
}

// NewCatalog returns an empty catalog for lang.
func NewCatalog(lang string) *Catalog {
	return &Catalog{
		Language: lang,
		Version:  "2.1",
		index:    make(map[Key]*Unit),
		bySource: make(map[string]*Unit),
		counts:   make(map[Key]int),
	}
}

// Add appends u. A unit whose key is already present shadows the earlier
// one for lookups, but both stay in Units and are reported by Duplicates.
func (c *Catalog) Add(u *Unit) {
	if c.index == nil {
		c.index = make(map[Key]*Unit)
		c.bySource = make(map[string]*Unit)
		c.counts = make(map[Key]int)
	}
	c.units = append(c.units, u)
	c.index[u.Key] = u
	c.bySource[u.Source] = u
	c.counts[u.Key]++
}

// Set is a shorthand for adding a finished unit.
func (c *Catalog) Set(context, source, translation string) {
	c.Add(&Unit{Key: Key{Context: context, Source: source}, Translation: translation})
}

// Clone returns a deep copy of c.
func (c *Catalog) Clone() *Catalog {
	out := NewCatalog(c.Language)
	out.SourceLanguage = c.SourceLanguage
	out.Version = c.Version
	for _, u := range c.units {
		cp := *u
		cp.Locations = append([]Location(nil), u.Locations...)
		out.Add(&cp)
	}
	return out
}

// Len returns the number of units, duplicates included.
func (c *Catalog) Len() int {
	return len(c.units)
}

// Units returns all units in document order.
func (c *Catalog) Units() []*Unit {
	out := make([]*Unit, len(c.units))
	copy(out, c.units)
	return out
}

// Lookup returns the unit stored under (context, source).
func (c *Catalog) Lookup(context, source string) (*Unit, bool) {
	u, ok := c.index[Key{Context: context, Source: source}]
	return u, ok
}

// LookupAny returns the last unit with the given source in any context.
func (c *Catalog) LookupAny(source string) (*Unit, bool) {
	u, ok := c.bySource[source]
	return u, ok
}

// Contexts returns context names in order of first appearance.
func (c *Catalog) Contexts() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, u := range c.units {
		if _, ok := seen[u.Context]; ok {
			continue
		}
		seen[u.Context] = struct{}{}
		out = append(out, u.Context)
	}
	return out
}

// Keys returns the distinct keys in order of first appearance.
func (c *Catalog) Keys() []Key {
	seen := make(map[Key]struct{}, len(c.units))
	out := make([]Key, 0, len(c.units))
	for _, u := range c.units {
		if _, ok := seen[u.Key]; ok {
			continue
		}
		seen[u.Key] = struct{}{}
		out = append(out, u.Key)
	}
	return out
}

// Duplicates lists keys occurring more than once, sorted by key.
func (c *Catalog) Duplicates() []Duplicate {
	var out []Duplicate
	for key, n := range c.counts {
		if n < 2 {
			continue
		}
		d := Duplicate{Key: key}
		for _, u := range c.units {
			if u.Key == key {
				d.Translations = append(d.Translations, u.Translation)
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// Messages flattens one context into source -> display text.
func (c *Catalog) Messages(context string) map[string]string {
	out := make(map[string]string)
	for _, u := range c.units {
		if u.Context == context {
			out[u.Source] = u.Text()
		}
	}
	return out
}

// languageFromPath returns the file stem: "locales/ru.ts" -> "ru".
func languageFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// checkLanguage reconciles the declared catalog language with the one
// implied by its file name.
func checkLanguage(c *Catalog, path string) error {
	fromPath := languageFromPath(path)
	switch {
	case c.Language == "":
		if fromPath == "" {
			return fmt.Errorf("catalog %s: language is not declared", path)
		}
		c.Language = fromPath
	case fromPath != "" && !sameLanguage(c.Language, fromPath):
		return fmt.Errorf("catalog %s: %w: declared %q, file name says %q", path, ErrLanguageMismatch, c.Language, fromPath)
	}
	return nil
}

func sameLanguage(a, b string) bool {
	return strings.EqualFold(strings.ReplaceAll(a, "_", "-"), strings.ReplaceAll(b, "_", "-"))
}
