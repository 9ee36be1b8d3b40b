package checker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lifei6671/tsi18n"
)

func TestCheckLocales(t *testing.T) {
	t.Run("CheckLocales_Shipped", func(t *testing.T) {
		res, err := CheckLocales("../../../locales", "en")
		if err != nil {
			t.Fatalf("CheckLocales: %v", err)
		}
		if len(res.Languages) != 2 {
			t.Fatalf("Languages = %v", res.Languages)
		}
		if res.HasErrors() {
			t.Fatalf("unexpected errors: %+v", res)
		}
		if !res.HasWarnings() {
			t.Fatal("duplicate Help not reported")
		}
		ru := res.Duplicates["ru"]
		if len(ru) != 1 || ru[0].Key.Source != "Help" || !ru[0].Conflicting() {
			t.Fatalf("ru duplicates = %+v", ru)
		}
		if en := res.Duplicates["en"]; len(en) != 1 || en[0].Conflicting() {
			t.Fatalf("en duplicates = %+v", en)
		}
	})
	t.Run("CheckLocales_Empty", func(t *testing.T) {
		_, err := CheckLocales(t.TempDir(), "en")
		if !errors.Is(err, tsi18n.ErrNoCatalogs) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("CheckLocales_BadFile", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "en.ts"), []byte("<TS>"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := CheckLocales(dir, "en"); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestCheckCatalogs(t *testing.T) {
	en := tsi18n.NewCatalog("en")
	en.Set("MainWindow", "File", "File")
	en.Set("MainWindow", "Found {} tokens", "Found {} tokens")
	en.Set("MainWindow", "Run", "Run")

	ru := tsi18n.NewCatalog("ru")
	ru.Set("MainWindow", "File", "")
	ru.Set("MainWindow", "Found {} tokens", "Найдено токенов")
	ru.Set("MainWindow", "Extra", "Лишнее {")
	ru.Add(&tsi18n.Unit{
		Key:  tsi18n.Key{Context: "MainWindow", Source: "Run"},
		Type: tsi18n.TypeUnfinished,
	})

	res := CheckCatalogs("en", en, ru)

	if got := res.MissingKeys["en"]; len(got) != 1 || got[0].Source != "Extra" {
		t.Fatalf("missing en = %v", got)
	}
	if got := res.MissingKeys["ru"]; len(got) != 0 {
		t.Fatalf("missing ru = %v", got)
	}
	if got := res.RedundantKeys["ru"]; len(got) != 1 || got[0].Source != "Extra" {
		t.Fatalf("redundant ru = %v", got)
	}
	if got := res.EmptyEntries["ru"]; len(got) != 1 || got[0].Source != "File" {
		t.Fatalf("empty ru = %v", got)
	}
	if got := res.Placeholders["ru"]; len(got) != 1 || got[0].SourceCount != 1 || got[0].TranslationCount != 0 {
		t.Fatalf("placeholders ru = %+v", got)
	}
	if got := res.SyntaxErrors["ru"]; len(got) != 1 {
		t.Fatalf("syntax ru = %v", got)
	}
	if got := res.Unfinished["ru"]; len(got) != 1 || got[0].Source != "Run" {
		t.Fatalf("unfinished ru = %v", got)
	}
	if !res.HasErrors() || !res.HasWarnings() {
		t.Fatal("expected errors and warnings")
	}
}
