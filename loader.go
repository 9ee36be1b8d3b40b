package tsi18n

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoCatalogs is returned when a directory or pattern yields no catalog files.
	ErrNoCatalogs = errors.New("no catalog files found")
	// ErrLanguageMismatch is returned when a catalog declares a language
	// other than the one in its file name.
	ErrLanguageMismatch = errors.New("language mismatch")
	// ErrUnknownFormat is returned for unsupported file extensions or export formats.
	ErrUnknownFormat = errors.New("unknown catalog format")
)

// yamlFile is the YAML catalog layout:
//
//	language: ru
//	context: MainWindow
//	messages:
//	  File: Файл
//	contexts:
//	  Scanner:
//	    keyword: ключевое слово
type yamlFile struct {
	Language string                       `yaml:"language"`
	Context  string                       `yaml:"context,omitempty"`
	Messages map[string]string            `yaml:"messages,omitempty"`
	Contexts map[string]map[string]string `yaml:"contexts,omitempty"`
}

// Config holds the basic i18n settings.
type Config struct {
	// Default language, e.g. "en"
	DefaultLang string

	// Fallback chains, e.g.
	// "ru-RU": {"ru-RU", "ru", "en"}
	// Without an entry a Locale uses the requested lang + DefaultLang.
	Fallbacks map[string][]string

	// Context used by Locale.T. Empty means any context.
	DefaultContext string

	// Number of files parsed concurrently by LoadDir and LoadFS.
	Workers int
}

// Bundle holds the catalogs of all loaded languages.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
	config   Config

	printers *printerCache
}

// New creates a new Bundle
func New(cfg Config) *Bundle {
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = "en"
	}
	if cfg.Fallbacks == nil {
		cfg.Fallbacks = make(map[string][]string)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	return &Bundle{
		catalogs: make(map[string]*Catalog),
		config:   cfg,
		printers: newPrinterCache(),
	}
}

// Register merges c into the catalog of its language. Units of c are
// appended, so they win over earlier entries with the same key.
func (b *Bundle) Register(c *Catalog) {
	b.mu.Lock()
	dst, ok := b.catalogs[c.Language]
	if !ok {
		dst = NewCatalog(c.Language)
		dst.Version = c.Version
		dst.SourceLanguage = c.SourceLanguage
		b.catalogs[c.Language] = dst
	}
	for _, u := range c.units {
		dst.Add(u)
	}
	b.mu.Unlock()

	for _, d := range c.Duplicates() {
		log.Debug().
			Str("lang", c.Language).
			Str("key", d.Key.String()).
			Bool("conflicting", d.Conflicting()).
			Msg("duplicate message, last one wins")
	}
	b.printers.reset()
}

// RegisterMessages registers a batch of source -> translation pairs of
// one context for lang.
func (b *Bundle) RegisterMessages(lang, context string, msgs map[string]string) {
	c := NewCatalog(lang)
	sources := make([]string, 0, len(msgs))
	for k := range msgs {
		sources = append(sources, k)
	}
	sort.Strings(sources)
	for _, src := range sources {
		c.Set(context, src, msgs[src])
	}
	b.Register(c)
}

// Languages returns the loaded languages, sorted.
func (b *Bundle) Languages() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.catalogs))
	for lang := range b.catalogs {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Catalog returns a copy of the merged catalog of lang. Later Register
// calls do not show up in the copy.
func (b *Bundle) Catalog(lang string) (*Catalog, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.catalogs[lang]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Locale returns a Locale view used for translating.
// lang may be "ru" / "en" etc.
func (b *Bundle) Locale(lang string) *Locale {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// explicit fallbacks > lang + default language
	var chain []string
	if lang != "" {
		if fb, ok := b.config.Fallbacks[lang]; ok && len(fb) > 0 {
			chain = append(chain, fb...)
		} else {
			chain = append(chain, lang)
			if b.config.DefaultLang != "" && b.config.DefaultLang != lang {
				chain = append(chain, b.config.DefaultLang)
			}
		}
	} else {
		chain = append(chain, b.config.DefaultLang)
	}

	return &Locale{
		bundle: b,
		langs:  chain,
	}
}

// LoadDir loads every `.ts`, `.yaml` and `.yml` file under dir,
// e.g. ./locales/en.ts, ./locales/ru.ts
func (b *Bundle) LoadDir(dir string) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isCatalogFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.loadPaths(paths, os.ReadFile)
}

// LoadFS loads the catalog files of fsys matching pattern, e.g. "locales/*.ts".
func (b *Bundle) LoadFS(fsys fs.FS, pattern string) error {
	paths, err := fs.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("glob %s: %w", pattern, err)
	}
	filtered := paths[:0]
	for _, p := range paths {
		if isCatalogFile(p) {
			filtered = append(filtered, p)
		}
	}
	return b.loadPaths(filtered, func(name string) ([]byte, error) {
		return fs.ReadFile(fsys, name)
	})
}

// MustLoadDir is LoadDir that panics, for use during initialization.
func (b *Bundle) MustLoadDir(dir string) {
	if err := b.LoadDir(dir); err != nil {
		panic(err)
	}
}

func (b *Bundle) loadPaths(paths []string, read func(string) ([]byte, error)) error {
	if len(paths) == 0 {
		return ErrNoCatalogs
	}
	sort.Strings(paths)

	catalogs := make([]*Catalog, len(paths))
	var g errgroup.Group
	g.SetLimit(b.config.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := read(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			c, err := DecodeCatalog(path, data)
			if err != nil {
				return err
			}
			catalogs[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, c := range catalogs {
		log.Debug().Str("path", paths[i]).Str("lang", c.Language).Int("messages", c.Len()).Msg("catalog loaded")
		b.Register(c)
	}
	return nil
}

// DecodeCatalog parses data according to the extension of path. A catalog
// without a declared language takes it from the file name.
func DecodeCatalog(path string, data []byte) (*Catalog, error) {
	var (
		c   *Catalog
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		c, err = ParseTS(bytes.NewReader(data))
	case ".yaml", ".yml":
		c, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := checkLanguage(c, path); err != nil {
		return nil, err
	}
	return c, nil
}

func parseYAML(data []byte) (*Catalog, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	c := NewCatalog(yf.Language)
	if len(yf.Messages) > 0 {
		addSorted(c, yf.Context, yf.Messages)
	}
	names := make([]string, 0, len(yf.Contexts))
	for name := range yf.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		addSorted(c, name, yf.Contexts[name])
	}
	return c, nil
}

func addSorted(c *Catalog, context string, msgs map[string]string) {
	sources := make([]string, 0, len(msgs))
	for src := range msgs {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		c.Set(context, src, msgs[src])
	}
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".yaml", ".yml":
		return true
	}
	return false
}
