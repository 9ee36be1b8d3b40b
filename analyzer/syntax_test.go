package analyzer

import (
	"slices"
	"strings"
	"testing"

	"github.com/lifei6671/tsi18n"
)

func TestAnalyzeSyntax(t *testing.T) {
	bundle := tsi18n.Default()

	t.Run("AnalyzeSyntax_Clean_English", func(t *testing.T) {
		res := AnalyzeSyntax(`let a = {"x": 1};`, bundle.Locale("en"))
		want := []string{
			"Starting syntax analysis...",
			"Syntax analysis completed: 1 declarations, 0 errors",
			"No syntax errors detected",
		}
		if !res.OK() || !slices.Equal(res.Console, want) {
			t.Fatalf("console:\n%s", strings.Join(res.Console, "\n"))
		}
	})
	t.Run("AnalyzeSyntax_Errors_Russian", func(t *testing.T) {
		res := AnalyzeSyntax(`let a = {x: 1}`, bundle.Locale("ru"))
		if len(res.Errors) != 2 {
			t.Fatalf("errors = %+v", res.Errors)
		}
		d := res.Errors[0]
		if d.Line != 1 || d.Position != 10 || d.Value != "x" {
			t.Fatalf("diagnostic = %+v", d)
		}
		if d.Message != "Ожидалась строка в кавычках или закрывающая фигурная скобка '}'" {
			t.Fatalf("message = %q", d.Message)
		}
		if d.String() != "Ошибка в строке 1, позиция 10: "+d.Message {
			t.Fatalf("line = %q", d.String())
		}
		if res.Errors[1].Message != "Незавершенное объявление: отсутствует точка с запятой ';'" {
			t.Fatalf("message = %q", res.Errors[1].Message)
		}
		if res.Console[1] != "Синтаксический анализ завершен: объявлений 0, ошибок 2" {
			t.Fatalf("console:\n%s", strings.Join(res.Console, "\n"))
		}
	})
	t.Run("AnalyzeSyntax_LexicalArgument_Russian", func(t *testing.T) {
		res := AnalyzeSyntax(`let a = {"x": 1 @};`, bundle.Locale("ru"))
		if len(res.Errors) != 1 || res.Errors[0].Message != "Лексическая ошибка: '@'" {
			t.Fatalf("errors = %+v", res.Errors)
		}
	})
	t.Run("AnalyzeSyntax_Empty", func(t *testing.T) {
		res := AnalyzeSyntax("", bundle.Locale("en"))
		if len(res.Console) != 1 || res.Console[0] != "No text to analyze" {
			t.Fatalf("console = %v", res.Console)
		}
	})
}
