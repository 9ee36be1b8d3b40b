package search

import (
	"errors"
	"testing"
)

func TestFind(t *testing.T) {
	t.Run("Find_SNILS", func(t *testing.T) {
		got, err := Find("a\nСНИЛС 112-233-445 95, старый 112-233-445 96", SNILS)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("matches = %+v", got)
		}
		m := got[0]
		if m.Text != "112-233-445 95" || m.Line != 2 || m.Column != 7 || m.Start != 8 || m.End != 22 {
			t.Fatalf("first = %+v", m)
		}
		if !SNILS.Validate(got[0].Text) || SNILS.Validate(got[1].Text) {
			t.Fatalf("checksums: %q %q", got[0].Text, got[1].Text)
		}
	})
	t.Run("Find_SNILS_NoBreakSpace", func(t *testing.T) {
		got, _ := Find("112-233-445\u00a095", SNILS)
		if len(got) != 1 {
			t.Fatalf("matches = %+v", got)
		}
	})
	t.Run("Find_MirCard", func(t *testing.T) {
		got, _ := Find("card 2200123456789019; long 22001234567890190; visa 4111111111111111", MirCard)
		if len(got) != 1 || got[0].Text != "2200123456789019" || got[0].Column != 6 {
			t.Fatalf("matches = %+v", got)
		}
	})
	t.Run("Find_ChemicalElement", func(t *testing.T) {
		got, _ := Find("He and Fe, NaCl, Xyz", ChemicalElement)
		var texts []string
		for _, m := range got {
			texts = append(texts, m.Text)
		}
		if len(texts) != 2 || texts[0] != "He" || texts[1] != "Fe" {
			t.Fatalf("matches = %q", texts)
		}
		if got[1].Column != 8 {
			t.Fatalf("Fe = %+v", got[1])
		}
	})
	t.Run("Find_UnicodeBoundaries", func(t *testing.T) {
		for _, text := range []string{"ЖFe", "Fe٣", "_Fe", "112-233-445 95ж"} {
			kind := ChemicalElement
			if text[0] == '1' {
				kind = SNILS
			}
			got, _ := Find(text, kind)
			if len(got) != 0 {
				t.Fatalf("%q: matches = %+v", text, got)
			}
		}
	})
	t.Run("Find_UnknownKind", func(t *testing.T) {
		if _, err := Find("x", Kind("iban")); !errors.Is(err, ErrUnknownKind) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestValid(t *testing.T) {
	cases := []struct {
		name  string
		kind  Kind
		value string
		want  bool
	}{
		{"ValidSNILS_OK", SNILS, "112-233-445 95", true},
		{"ValidSNILS_BadChecksum", SNILS, "112-233-445 96", false},
		{"ValidSNILS_BadFormat", SNILS, "11223344595", false},
		{"ValidMirCard_OK", MirCard, "2200123456789019", true},
		{"ValidMirCard_BadChecksum", MirCard, "2200123456789010", false},
		{"ValidMirCard_BadPrefix", MirCard, "2205123456789019", false},
		{"Validate_Element", ChemicalElement, "Og", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.kind.Validate(c.value); got != c.want {
				t.Fatalf("Validate(%q) = %v", c.value, got)
			}
		})
	}
}

func TestKind(t *testing.T) {
	t.Run("ParseKind_Known", func(t *testing.T) {
		k, err := ParseKind("mir_card")
		if err != nil || k != MirCard {
			t.Fatalf("ParseKind = %q, %v", k, err)
		}
	})
	t.Run("ParseKind_Unknown", func(t *testing.T) {
		if _, err := ParseKind("iban"); !errors.Is(err, ErrUnknownKind) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("Kind_Description", func(t *testing.T) {
		if SNILS.Description() != "SNILS (format: XXX-XXX-XXX XX)" {
			t.Fatalf("Description = %q", SNILS.Description())
		}
	})
}
