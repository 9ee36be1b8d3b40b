package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lifei6671/tsi18n/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		LocalesDir:  "../../../locales",
		Lang:        "en",
		DefaultLang: "en",
		DBPath:      filepath.Join(t.TempDir(), "tsi18n.db"),
		LogLevel:    "info",
		Workers:     2,
	}
}

func run(t *testing.T, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTr(t *testing.T) {
	t.Run("Tr_Russian", func(t *testing.T) {
		out, err := run(t, testConfig(t), "", "tr", "--lang", "ru-RU", "Error in line {}, position {}: '{}'", "3", "7", "#")
		if err != nil {
			t.Fatal(err)
		}
		if out != "Ошибка в строке 3, позиция 7: '#'\n" {
			t.Fatalf("got %q", out)
		}
	})
	t.Run("Tr_MissingKey", func(t *testing.T) {
		out, err := run(t, testConfig(t), "", "tr", "--lang", "ru", "Nope {}", "x")
		if err != nil {
			t.Fatal(err)
		}
		if out != "Nope x\n" {
			t.Fatalf("got %q", out)
		}
	})
	t.Run("Tr_EmbeddedFallback", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LocalesDir = filepath.Join(t.TempDir(), "missing")
		out, err := run(t, cfg, "", "tr", "--lang", "ru", "Run")
		if err != nil {
			t.Fatal(err)
		}
		if out != "Пуск\n" {
			t.Fatalf("got %q", out)
		}
	})
}

func TestLint(t *testing.T) {
	t.Run("Lint_Shipped", func(t *testing.T) {
		out, err := run(t, testConfig(t), "", "lint", "--fail")
		if err != nil {
			t.Fatalf("lint: %v\n%s", err, out)
		}
		if !strings.Contains(out, "Languages: [en ru]") || !strings.Contains(out, "Duplicates (warning):") {
			t.Fatalf("got:\n%s", out)
		}
	})
	t.Run("Lint_EmbeddedFallback", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LocalesDir = filepath.Join(t.TempDir(), "missing")
		out, err := run(t, cfg, "", "lint", "--fail")
		if err != nil {
			t.Fatalf("lint: %v\n%s", err, out)
		}
		if !strings.Contains(out, "Languages: [en ru]") {
			t.Fatalf("got:\n%s", out)
		}
	})
	t.Run("Lint_Strict", func(t *testing.T) {
		_, err := run(t, testConfig(t), "", "lint", "--fail", "--strict")
		if !errors.Is(err, errIssues) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestLex(t *testing.T) {
	out, err := run(t, testConfig(t), "var a = 1 # 2;", "--lang", "ru", "lex", "-")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Код", "ключевое слово", "Ошибки", "Сообщение"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestConvert(t *testing.T) {
	out, err := run(t, testConfig(t), "", "convert", "--to", "flat", "../../../locales/ru.ts")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "# Russian translation\n") || !strings.Contains(out, "\nHelp=Помощь\n") {
		t.Fatalf("got:\n%s", out)
	}
}

func TestImportExport(t *testing.T) {
	cfg := testConfig(t)
	out, err := run(t, cfg, "", "import", "../../../locales")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ru: ") {
		t.Fatalf("import:\n%s", out)
	}

	out, err = run(t, cfg, "", "export", "--lang", "ru", "--to", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Пуск") {
		t.Fatalf("export:\n%s", out)
	}

	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Fatal(err)
	}

	t.Run("Export_MatchesRegionalTag", func(t *testing.T) {
		cfg.Lang = "ru-RU"
		out, err := run(t, cfg, "", "export", "--to", "yaml")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Пуск") {
			t.Fatalf("export:\n%s", out)
		}
	})
	t.Run("Export_UnknownFallsBackToDefault", func(t *testing.T) {
		cfg.Lang = "fr"
		out, err := run(t, cfg, "", "export", "--to", "yaml")
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(out, "Пуск") || !strings.Contains(out, "Run") {
			t.Fatalf("export:\n%s", out)
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("Parse_Clean", func(t *testing.T) {
		out, err := run(t, testConfig(t), `let a = {"x": 1};`, "parse", "-")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Syntax analysis completed: 1 declarations, 0 errors") || strings.Contains(out, "== Errors ==") {
			t.Fatalf("got:\n%s", out)
		}
	})
	t.Run("Parse_Errors_Russian", func(t *testing.T) {
		out, err := run(t, testConfig(t), "let a {\"x\": 1};", "--lang", "ru", "parse", "--trace", "-")
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{
			"Ошибка в строке 1, позиция 7: Ожидался оператор присваивания '='",
			"== Ошибки ==",
			"Значение",
			"recovery: '=' inserted",
		} {
			if !strings.Contains(out, want) {
				t.Fatalf("missing %q in:\n%s", want, out)
			}
		}
	})
}

func TestSearch(t *testing.T) {
	t.Run("Search_SNILS_Russian", func(t *testing.T) {
		out, err := run(t, testConfig(t), "112-233-445 95\n112-233-445 96", "--lang", "ru", "search", "-")
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"СНИЛС (формат: XXX-XXX-XXX XX)", "Проверка", "верно", "неверно", "Найдено совпадений: 2"} {
			if !strings.Contains(out, want) {
				t.Fatalf("missing %q in:\n%s", want, out)
			}
		}
	})
	t.Run("Search_Elements", func(t *testing.T) {
		out, err := run(t, testConfig(t), "Fe + S = FeS", "search", "--kind", "chemical_element", "-")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Found 2 matches") {
			t.Fatalf("got:\n%s", out)
		}
	})
	t.Run("Search_Empty", func(t *testing.T) {
		out, err := run(t, testConfig(t), "  ", "search", "-")
		if err != nil {
			t.Fatal(err)
		}
		if out != "No text to search\n" {
			t.Fatalf("got %q", out)
		}
	})
	t.Run("Search_UnknownKind", func(t *testing.T) {
		if _, err := run(t, testConfig(t), "x", "search", "--kind", "iban", "-"); err == nil {
			t.Fatal("expected error")
		}
	})
}
