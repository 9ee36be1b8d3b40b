package tsi18n

// Locale is a translation entry point bound to a language fallback chain.
type Locale struct {
	bundle *Bundle
	langs  []string // lang fallback chain
}

// Lang returns the preferred language of the chain.
func (l *Locale) Lang() string {
	if len(l.langs) == 0 {
		return ""
	}
	return l.langs[0]
}

// Chain returns a copy of the fallback chain.
func (l *Locale) Chain() []string {
	return append([]string(nil), l.langs...)
}

// T translates source within the bundle's default context:
// T("Lexical analysis completed: found {} tokens", 42)
func (l *Locale) T(source string, args ...any) string {
	ctx := ""
	if l.bundle != nil {
		ctx = l.bundle.config.DefaultContext
	}
	return l.Tr(ctx, source, args...)
}

// Tr translates source within context and substitutes args into its
// placeholders. An empty context matches any context. When no language of
// the chain has the message the source itself is rendered.
func (l *Locale) Tr(context, source string, args ...any) string {
	text, _ := l.lookup(context, source)
	return render(text, args)
}

// Has reports whether some language of the chain translates the message.
func (l *Locale) Has(context, source string) bool {
	_, ok := l.lookup(context, source)
	return ok
}

func (l *Locale) lookup(context, source string) (string, bool) {
	if l.bundle == nil {
		return source, false
	}
	l.bundle.mu.RLock()
	defer l.bundle.mu.RUnlock()

	for _, lang := range l.langs {
		c, ok := l.bundle.catalogs[lang]
		if !ok {
			continue
		}
		var u *Unit
		if context == "" {
			u, ok = c.LookupAny(source)
		} else {
			u, ok = c.Lookup(context, source)
		}
		if ok {
			return u.Text(), true
		}
	}
	return source, false
}

// render always goes through the template engine so that "{{" and "}}"
// collapse the same way with and without args.
func render(text string, args []any) string {
	res, err := RenderTemplate(text, args...)
	if err != nil {
		// a template that cannot be rendered is shown as is
		return text
	}
	return res
}
