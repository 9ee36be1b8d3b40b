package store

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/lifei6671/tsi18n"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "tsi18n.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	bundle := tsi18n.Default()
	ru, _ := bundle.Catalog("ru")
	en, _ := bundle.Catalog("en")

	t.Run("Store_SaveCatalog_RoundTrip", func(t *testing.T) {
		if err := s.SaveCatalog(ctx, ru); err != nil {
			t.Fatalf("SaveCatalog: %v", err)
		}
		if err := s.SaveCatalog(ctx, en); err != nil {
			t.Fatalf("SaveCatalog: %v", err)
		}
		back, err := s.LoadCatalog(ctx, "ru")
		if err != nil {
			t.Fatalf("LoadCatalog: %v", err)
		}
		if back.Len() != ru.Len() || back.Version != "2.1" {
			t.Fatalf("loaded %d units (v%s), want %d", back.Len(), back.Version, ru.Len())
		}
		if !slices.Equal(back.Keys(), ru.Keys()) {
			t.Fatal("key order changed")
		}
		if len(back.Duplicates()) != 1 {
			t.Fatalf("duplicates = %+v", back.Duplicates())
		}
	})
	t.Run("Store_Languages", func(t *testing.T) {
		langs, err := s.Languages(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(langs, []string{"en", "ru"}) {
			t.Fatalf("Languages = %v", langs)
		}
	})
	t.Run("Store_Lookup", func(t *testing.T) {
		u, err := s.Lookup(ctx, "ru", tsi18n.Key{Context: "MainWindow", Source: "Help"})
		if err != nil {
			t.Fatal(err)
		}
		if u.Translation != "Помощь" {
			t.Fatalf("Help = %q", u.Translation)
		}
		_, err = s.Lookup(ctx, "ru", tsi18n.Key{Context: "MainWindow", Source: "Nope"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("Store_SaveCatalog_Replaces", func(t *testing.T) {
		c := tsi18n.NewCatalog("ru")
		c.Add(&tsi18n.Unit{
			Key:         tsi18n.Key{Context: "MainWindow", Source: "Run"},
			Translation: "Запуск",
			Type:        tsi18n.TypeUnfinished,
			Locations:   []tsi18n.Location{{Filename: "interf.py", Line: 820}},
		})
		if err := s.SaveCatalog(ctx, c); err != nil {
			t.Fatal(err)
		}
		back, err := s.LoadCatalog(ctx, "ru")
		if err != nil {
			t.Fatal(err)
		}
		units := back.Units()
		if len(units) != 1 || units[0].Type != tsi18n.TypeUnfinished {
			t.Fatalf("units = %+v", units)
		}
		if len(units[0].Locations) != 1 || units[0].Locations[0].Line != 820 {
			t.Fatalf("locations = %+v", units[0].Locations)
		}
	})
	t.Run("Store_Bundle", func(t *testing.T) {
		b, err := s.Bundle(ctx, tsi18n.Config{})
		if err != nil {
			t.Fatal(err)
		}
		if got := b.Locale("ru").Tr("MainWindow", "Run"); got != "Запуск" {
			t.Fatalf("Run = %q", got)
		}
	})
	t.Run("Store_LoadCatalog_Missing", func(t *testing.T) {
		_, err := s.LoadCatalog(ctx, "fr")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tsi18n.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	c := tsi18n.NewCatalog("en")
	c.Set("MainWindow", "File", "File")
	if err := s.SaveCatalog(ctx, c); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	langs, err := s.Languages(ctx)
	if err != nil || len(langs) != 1 {
		t.Fatalf("Languages = %v, %v", langs, err)
	}
}
