package tsi18n

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

// ExportFunc writes a catalog in one file format.
type ExportFunc func(w io.Writer, c *Catalog) error

var exporters = map[string]ExportFunc{
	"ts":   WriteTS,
	"yaml": WriteYAML,
	"flat": WriteFlat,
}

// Formats lists the names accepted by Export.
func Formats() []string {
	out := make([]string, 0, len(exporters))
	for name := range exporters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Export writes c to w in the named format.
func Export(format string, w io.Writer, c *Catalog) error {
	fn, ok := exporters[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	return fn(w, c)
}

// WriteYAML writes c in the YAML catalog layout read by LoadDir. Every
// context goes under "contexts"; of duplicated keys only the effective
// (last) translation is kept.
func WriteYAML(w io.Writer, c *Catalog) error {
	yf := yamlFile{
		Language: c.Language,
		Contexts: make(map[string]map[string]string),
	}
	for _, u := range c.units {
		msgs, ok := yf.Contexts[u.Context]
		if !ok {
			msgs = make(map[string]string)
			yf.Contexts[u.Context] = msgs
		}
		msgs[u.Source] = u.Translation
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yf); err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return enc.Close()
}

// WriteFlat writes a "source=translation" text file, one message per line,
// preceded by a "# <Language> translation" header. Line breaks inside
// messages are escaped as \n.
func WriteFlat(w io.Writer, c *Catalog) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s translation\n", languageName(c.Language))

	seen := make(map[Key]struct{})
	for _, u := range c.units {
		if _, ok := seen[u.Key]; ok {
			continue
		}
		seen[u.Key] = struct{}{}
		eff, _ := c.Lookup(u.Context, u.Source)
		fmt.Fprintf(bw, "%s=%s\n", escapeFlat(u.Source), escapeFlat(eff.Text()))
	}
	return bw.Flush()
}

func escapeFlat(s string) string {
	return strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\r", "\\r").Replace(s)
}

// languageName returns the English name of a language tag, "Russian" for
// "ru", or the tag itself when it is unknown.
func languageName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return lang
}
