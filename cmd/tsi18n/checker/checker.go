package checker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lifei6671/tsi18n"
)

// Mismatch is a message whose translation has a different number of
// placeholders than its source.
type Mismatch struct {
	Key              tsi18n.Key
	SourceCount      int
	TranslationCount int
}

type Result struct {
	Base      string
	Languages []string
	AllKeys   []tsi18n.Key

	MissingKeys   map[string][]tsi18n.Key // not in this language, present in another
	RedundantKeys map[string][]tsi18n.Key // not in the base language
	EmptyEntries  map[string][]tsi18n.Key
	Placeholders  map[string][]Mismatch
	SyntaxErrors  map[string]map[tsi18n.Key]error // lang -> key -> err

	// warnings
	Duplicates map[string][]tsi18n.Duplicate
	Unfinished map[string][]tsi18n.Key
}

// CheckLocales loads every catalog under dir and checks them against each
// other, using base as the reference language.
func CheckLocales(dir, base string) (*Result, error) {
	catalogs, err := scanCatalogs(dir)
	if err != nil {
		return nil, err
	}
	if len(catalogs) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, tsi18n.ErrNoCatalogs)
	}
	return CheckCatalogs(base, catalogs...), nil
}

// CheckCatalogs performs:
//  1. key alignment check (missing / redundant)
//  2. duplicate and empty entry check
//  3. placeholder count check between source and translation
//  4. template syntax check via tsi18n.ValidateTemplate()
func CheckCatalogs(base string, catalogs ...*tsi18n.Catalog) *Result {
	res := &Result{
		Base:          base,
		MissingKeys:   make(map[string][]tsi18n.Key),
		RedundantKeys: make(map[string][]tsi18n.Key),
		EmptyEntries:  make(map[string][]tsi18n.Key),
		Placeholders:  make(map[string][]Mismatch),
		SyntaxErrors:  make(map[string]map[tsi18n.Key]error),
		Duplicates:    make(map[string][]tsi18n.Duplicate),
		Unfinished:    make(map[string][]tsi18n.Key),
	}

	langKeys := make(map[string]map[tsi18n.Key]struct{})
	allKeysSet := make(map[tsi18n.Key]struct{})

	for _, c := range catalogs {
		kset, ok := langKeys[c.Language]
		if !ok {
			kset = make(map[tsi18n.Key]struct{})
			langKeys[c.Language] = kset
		}
		for _, k := range c.Keys() {
			kset[k] = struct{}{}
			allKeysSet[k] = struct{}{}
		}
	}

	for k := range allKeysSet {
		res.AllKeys = append(res.AllKeys, k)
	}
	sortKeys(res.AllKeys)

	baseKeys, hasBase := langKeys[base]
	for lang, kset := range langKeys {
		res.Languages = append(res.Languages, lang)
		for _, k := range res.AllKeys {
			if _, ok := kset[k]; !ok {
				res.MissingKeys[lang] = append(res.MissingKeys[lang], k)
			}
			if _, ok := kset[k]; ok && hasBase {
				if _, inBase := baseKeys[k]; !inBase {
					res.RedundantKeys[lang] = append(res.RedundantKeys[lang], k)
				}
			}
		}
	}
	sort.Strings(res.Languages)

	for _, c := range catalogs {
		lang := c.Language
		if d := c.Duplicates(); len(d) > 0 {
			res.Duplicates[lang] = append(res.Duplicates[lang], d...)
		}
		for _, u := range c.Units() {
			if u.Source == "" || (u.Translation == "" && u.Type != tsi18n.TypeUnfinished) {
				res.EmptyEntries[lang] = append(res.EmptyEntries[lang], u.Key)
			}
			if u.Type == tsi18n.TypeUnfinished {
				res.Unfinished[lang] = append(res.Unfinished[lang], u.Key)
			}
			if u.Translation == "" {
				continue
			}
			if sc, tc := tsi18n.CountPlaceholders(u.Source), tsi18n.CountPlaceholders(u.Translation); sc != tc {
				res.Placeholders[lang] = append(res.Placeholders[lang], Mismatch{Key: u.Key, SourceCount: sc, TranslationCount: tc})
			}
			if err := tsi18n.ValidateTemplate(u.Translation); err != nil {
				if res.SyntaxErrors[lang] == nil {
					res.SyntaxErrors[lang] = make(map[tsi18n.Key]error)
				}
				res.SyntaxErrors[lang][u.Key] = err
			}
		}
	}

	return res
}

// HasErrors reports findings that break the catalog invariants.
func (r *Result) HasErrors() bool {
	for _, lang := range r.Languages {
		if len(r.MissingKeys[lang]) > 0 || len(r.RedundantKeys[lang]) > 0 ||
			len(r.EmptyEntries[lang]) > 0 || len(r.Placeholders[lang]) > 0 ||
			len(r.SyntaxErrors[lang]) > 0 {
			return true
		}
	}
	return false
}

// HasWarnings reports duplicates and unfinished translations.
func (r *Result) HasWarnings() bool {
	for _, lang := range r.Languages {
		if len(r.Duplicates[lang]) > 0 || len(r.Unfinished[lang]) > 0 {
			return true
		}
	}
	return false
}

func scanCatalogs(dir string) ([]*tsi18n.Catalog, error) {
	var res []*tsi18n.Catalog

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		switch filepath.Ext(path) {
		case ".ts", ".yaml", ".yml":
		default:
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		c, err := tsi18n.DecodeCatalog(path, data)
		if err != nil {
			return err
		}

		res = append(res, c)
		return nil
	})

	return res, err
}

func sortKeys(keys []tsi18n.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Context != keys[j].Context {
			return keys[i].Context < keys[j].Context
		}
		return keys[i].Source < keys[j].Source
	})
}
