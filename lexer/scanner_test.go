package lexer

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	t.Run("Tokenize_AssociativeArray", func(t *testing.T) {
		toks := Tokenize(`let user = {name: "Tom", age: 42};`)
		want := []struct {
			kind  Kind
			value string
		}{
			{Keyword, "let"},
			{Identifier, "user"},
			{Assignment, "="},
			{LeftBrace, "{"},
			{Identifier, "name"},
			{Colon, ":"},
			{String, `"Tom"`},
			{Comma, ","},
			{Identifier, "age"},
			{Colon, ":"},
			{Number, "42"},
			{RightBrace, "}"},
			{Semicolon, ";"},
		}
		if len(toks) != len(want) {
			t.Fatalf("got %d tokens %v, want %d", len(toks), toks, len(want))
		}
		for i, w := range want {
			if toks[i].Kind != w.kind || toks[i].Value != w.value {
				t.Fatalf("token %d = %v, want %s %q", i, toks[i], w.kind, w.value)
			}
		}
	})
	t.Run("Tokenize_Positions", func(t *testing.T) {
		toks := Tokenize("var a = 1;\n  const b = 2.5;")
		if toks[0].Line != 1 || toks[0].Column != 1 {
			t.Fatalf("first token at %d:%d", toks[0].Line, toks[0].Column)
		}
		var c Token
		for _, tok := range toks {
			if tok.Value == "const" {
				c = tok
			}
		}
		if c.Line != 2 || c.Column != 3 || c.Kind != Keyword {
			t.Fatalf("const = %v, want keyword at 2:3", c)
		}
		if last := toks[len(toks)-2]; last.Value != "2.5" || last.Kind != Number {
			t.Fatalf("number = %v", last)
		}
	})
	t.Run("Tokenize_InvalidSymbols", func(t *testing.T) {
		toks := Tokenize("let x = 5 # 3;\nlet y = 'a';")
		var bad []Token
		for _, tok := range toks {
			if tok.Kind == Invalid {
				bad = append(bad, tok)
			}
		}
		if len(bad) != 3 {
			t.Fatalf("invalid tokens = %v, want 3", bad)
		}
		if bad[0].Value != "#" || bad[0].Line != 1 || bad[0].Column != 11 {
			t.Fatalf("first invalid = %v", bad[0])
		}
		if bad[1].Value != "'" || bad[1].Line != 2 || bad[1].Column != 9 {
			t.Fatalf("second invalid = %v", bad[1])
		}
	})
	t.Run("Tokenize_KeywordBoundaries", func(t *testing.T) {
		toks := Tokenize("letter 1let const_ var")
		kinds := []Kind{Identifier, Number, Identifier, Identifier, Keyword}
		if len(toks) != len(kinds) {
			t.Fatalf("tokens = %v", toks)
		}
		for i, k := range kinds {
			if toks[i].Kind != k {
				t.Fatalf("token %d = %v, want %s", i, toks[i], k)
			}
		}
	})
	t.Run("Tokenize_Strings", func(t *testing.T) {
		toks := Tokenize(`"a \"b\"" "open`)
		if toks[0].Kind != String || toks[0].Value != `"a \"b\""` {
			t.Fatalf("escaped string = %v", toks[0])
		}
		if toks[1].Kind != Invalid || toks[1].Value != `"` {
			t.Fatalf("unterminated quote = %v", toks[1])
		}
		if toks[2].Kind != Identifier || toks[2].Value != "open" {
			t.Fatalf("after quote = %v", toks[2])
		}
	})
	t.Run("Tokenize_MultilineStringKeepsLines", func(t *testing.T) {
		toks := Tokenize("\"a\nb\" x")
		if toks[1].Line != 2 || toks[1].Column != 4 {
			t.Fatalf("x at %d:%d, want 2:4", toks[1].Line, toks[1].Column)
		}
	})
	t.Run("Tokenize_Cyrillic", func(t *testing.T) {
		toks := Tokenize("a=ж")
		if toks[2].Kind != Invalid || toks[2].Column != 3 {
			t.Fatalf("cyrillic rune = %v", toks[2])
		}
	})
	t.Run("Tokenize_UnicodeBoundaries", func(t *testing.T) {
		cases := []struct {
			src   string
			kinds []Kind
			value string
		}{
			{"letж = 1", []Kind{Identifier, Invalid, Assignment, Number}, "let"},
			{"éconst", []Kind{Invalid, Identifier}, "é"},
			{"x = ٣", []Kind{Identifier, Assignment, Number}, "x"},
			{"var٣", []Kind{Identifier, Number}, "var"},
			{"ж var", []Kind{Invalid, Keyword}, "ж"},
		}
		for _, c := range cases {
			toks := Tokenize(c.src)
			if len(toks) != len(c.kinds) {
				t.Fatalf("%q: tokens = %v", c.src, toks)
			}
			for i, k := range c.kinds {
				if toks[i].Kind != k {
					t.Fatalf("%q: token %d = %v, want %s", c.src, i, toks[i], k)
				}
			}
			if toks[0].Value != c.value {
				t.Fatalf("%q: first token = %v", c.src, toks[0])
			}
		}
		if toks := Tokenize("x = ٣"); toks[2].Value != "٣" || toks[2].Column != 5 {
			t.Fatalf("arabic-indic digit = %v", toks[2])
		}
	})
	t.Run("Tokenize_Empty", func(t *testing.T) {
		if toks := Tokenize(" \n\t"); len(toks) != 0 {
			t.Fatalf("tokens = %v", toks)
		}
	})
}

func TestKind(t *testing.T) {
	if Keyword.Code() != 1 || Semicolon.Code() != 11 || Invalid.Code() != 12 {
		t.Fatal("unexpected token codes")
	}
	if LeftBrace.String() != "opening brace" {
		t.Fatalf("LeftBrace = %q", LeftBrace.String())
	}
	if Kind(99).String() != "Kind(99)" {
		t.Fatalf("Kind(99) = %q", Kind(99).String())
	}
}
