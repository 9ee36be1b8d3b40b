package tsi18n

import (
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type printerCache struct {
	mu      sync.Mutex
	builder *catalog.Builder
}

func newPrinterCache() *printerCache {
	return &printerCache{}
}

func (p *printerCache) reset() {
	p.mu.Lock()
	p.builder = nil
	p.mu.Unlock()
}

// Match picks the loaded language that best serves the given preferences.
// Each argument may be a single tag ("ru") or an Accept-Language value
// ("ru-RU,ru;q=0.9,en;q=0.8"). Without a usable match the default language
// is returned.
func (b *Bundle) Match(accept ...string) string {
	return MatchLanguage(b.Languages(), b.config.DefaultLang, accept...)
}

// MatchLanguage picks the entry of langs that best serves accept, or def
// when nothing matches. def is a candidate even when langs lacks it.
func MatchLanguage(langs []string, def string, accept ...string) string {
	supported := []language.Tag{language.Make(def)}
	names := []string{def}
	for _, l := range langs {
		if l == def {
			continue
		}
		tag, err := language.Parse(l)
		if err != nil {
			continue
		}
		supported = append(supported, tag)
		names = append(names, l)
	}

	var desired []language.Tag
	for _, a := range accept {
		tags, _, err := language.ParseAcceptLanguage(a)
		if err != nil {
			continue
		}
		desired = append(desired, tags...)
	}
	if len(desired) == 0 {
		return def
	}

	_, idx, conf := language.NewMatcher(supported).Match(desired...)
	if conf == language.No {
		return def
	}
	return names[idx]
}

// Printer returns an x/text printer for lang whose catalog holds every
// loaded message keyed by its source text. Placeholders are rewritten into
// printf verbs, so p.Sprintf("Error in line {}, position {}: '{}'", 3, 7, "#")
// yields the translated sentence. Unknown sources are used as the format.
func (b *Bundle) Printer(lang string) *message.Printer {
	cat := b.textCatalog()
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Make(b.config.DefaultLang)
	}
	return message.NewPrinter(tag, message.Catalog(cat))
}

func (b *Bundle) textCatalog() *catalog.Builder {
	b.printers.mu.Lock()
	defer b.printers.mu.Unlock()
	if b.printers.builder != nil {
		return b.printers.builder
	}

	cat := catalog.NewBuilder(catalog.Fallback(language.Make(b.config.DefaultLang)))
	b.mu.RLock()
	for lang, c := range b.catalogs {
		tag, err := language.Parse(lang)
		if err != nil {
			log.Warn().Err(err).Str("lang", lang).Msg("skipping catalog with invalid language tag")
			continue
		}
		for _, u := range c.units {
			if err := cat.SetString(tag, u.Source, printfFormat(u.Text())); err != nil {
				log.Warn().Err(err).Str("lang", lang).Str("key", u.Key.String()).Msg("message not added to printer catalog")
			}
		}
	}
	b.mu.RUnlock()

	b.printers.builder = cat
	return cat
}

// printfFormat turns a template into a printf format with explicit
// argument indexes. Formatter chains and conditionals have no printf
// counterpart and are reduced to their argument.
func printfFormat(tpl string) string {
	ast, err := cachedAST(tpl)
	if err != nil {
		return strings.ReplaceAll(tpl, "%", "%%")
	}
	var sb strings.Builder
	next := 0
	for _, node := range ast {
		switch n := node.(type) {
		case *TextNode:
			sb.WriteString(strings.ReplaceAll(n.Text, "%", "%%"))
		case *PlaceholderNode:
			idx := n.Index
			if idx < 0 {
				idx = next
				next++
			}
			sb.WriteString("%[" + strconv.Itoa(idx+1) + "]v")
		}
	}
	return sb.String()
}
