// Package store keeps translation catalogs in a SQLite database so that
// several TS/YAML sources can be merged, queried and exported again.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/lifei6671/tsi18n"
)

// ErrNotFound is returned when a language or message is not stored.
var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite-backed catalog repository.
type Store struct {
	db *sqlx.DB
	sq sq.StatementBuilderType
}

// Open opens (creating if needed) the database at dbPath and applies
// pending migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("make db dir: %w", err)
		}
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, sq: sq.StatementBuilder}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        name TEXT PRIMARY KEY,
        applied_at TEXT NOT NULL
    )`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var n int
		err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if n > 0 {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations(name, applied_at) VALUES (?, ?)`, name, now()); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		log.Debug().Str("migration", name).Msg("migration applied")
	}
	return nil
}

type unitRow struct {
	ID           int64  `db:"id"`
	Position     int    `db:"position"`
	Context      string `db:"context"`
	Source       string `db:"source"`
	Translation  string `db:"translation"`
	Type         string `db:"type"`
	Comment      string `db:"comment"`
	ExtraComment string `db:"extra_comment"`
}

type locationRow struct {
	UnitID   int64  `db:"unit_id"`
	Filename string `db:"filename"`
	Line     int    `db:"line"`
}

type catalogRow struct {
	Language       string `db:"language"`
	Version        string `db:"version"`
	SourceLanguage string `db:"source_language"`
	UpdatedAt      string `db:"updated_at"`
}

func (r unitRow) unit() *tsi18n.Unit {
	return &tsi18n.Unit{
		Key:          tsi18n.Key{Context: r.Context, Source: r.Source},
		Translation:  r.Translation,
		Type:         r.Type,
		Comment:      r.Comment,
		ExtraComment: r.ExtraComment,
	}
}

// SaveCatalog replaces everything stored for c.Language with the units of
// c, keeping their order and duplicates.
func (s *Store) SaveCatalog(ctx context.Context, c *tsi18n.Catalog) error {
	if c.Language == "" {
		return errors.New("save catalog: language is empty")
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		del, args, err := s.sq.Delete("catalogs").Where(sq.Eq{"language": c.Language}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, del, args...); err != nil {
			return fmt.Errorf("delete catalog %s: %w", c.Language, err)
		}

		ins, args, err := s.sq.Insert("catalogs").
			Columns("language", "version", "source_language", "updated_at").
			Values(c.Language, c.Version, c.SourceLanguage, now()).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, ins, args...); err != nil {
			return fmt.Errorf("insert catalog %s: %w", c.Language, err)
		}

		for i, u := range c.Units() {
			q, args, err := s.sq.Insert("units").
				Columns("language", "position", "context", "source", "translation", "type", "comment", "extra_comment").
				Values(c.Language, i, u.Context, u.Source, u.Translation, u.Type, u.Comment, u.ExtraComment).
				ToSql()
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, q, args...)
			if err != nil {
				return fmt.Errorf("insert unit %s: %w", u.Key, err)
			}
			if len(u.Locations) == 0 {
				continue
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for _, l := range u.Locations {
				q, args, err := s.sq.Insert("locations").
					Columns("unit_id", "filename", "line").
					Values(id, l.Filename, l.Line).
					ToSql()
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, q, args...); err != nil {
					return fmt.Errorf("insert location %s: %w", u.Key, err)
				}
			}
		}
		log.Info().Str("lang", c.Language).Int("messages", c.Len()).Msg("catalog stored")
		return nil
	})
}

// LoadCatalog rebuilds the stored catalog of lang.
func (s *Store) LoadCatalog(ctx context.Context, lang string) (*tsi18n.Catalog, error) {
	q, args, err := s.sq.Select("language", "version", "source_language", "updated_at").
		From("catalogs").Where(sq.Eq{"language": lang}).ToSql()
	if err != nil {
		return nil, err
	}
	var head catalogRow
	if err := s.db.GetContext(ctx, &head, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("catalog %s: %w", lang, ErrNotFound)
		}
		return nil, fmt.Errorf("load catalog %s: %w", lang, err)
	}

	q, args, err = s.sq.Select("id", "position", "context", "source", "translation", "type", "comment", "extra_comment").
		From("units").Where(sq.Eq{"language": lang}).OrderBy("position").ToSql()
	if err != nil {
		return nil, err
	}
	var rows []unitRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("load units %s: %w", lang, err)
	}

	q, args, err = s.sq.Select("l.unit_id", "l.filename", "l.line").
		From("locations l").Join("units u ON u.id = l.unit_id").
		Where(sq.Eq{"u.language": lang}).OrderBy("l.rowid").ToSql()
	if err != nil {
		return nil, err
	}
	var locs []locationRow
	if err := s.db.SelectContext(ctx, &locs, q, args...); err != nil {
		return nil, fmt.Errorf("load locations %s: %w", lang, err)
	}
	byUnit := make(map[int64][]tsi18n.Location)
	for _, l := range locs {
		byUnit[l.UnitID] = append(byUnit[l.UnitID], tsi18n.Location{Filename: l.Filename, Line: l.Line})
	}

	c := tsi18n.NewCatalog(head.Language)
	c.Version = head.Version
	c.SourceLanguage = head.SourceLanguage
	for _, r := range rows {
		u := r.unit()
		u.Locations = byUnit[r.ID]
		c.Add(u)
	}
	return c, nil
}

// Languages lists the stored languages, sorted.
func (s *Store) Languages(ctx context.Context) ([]string, error) {
	q, args, err := s.sq.Select("language").From("catalogs").OrderBy("language").ToSql()
	if err != nil {
		return nil, err
	}
	var out []string
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	return out, nil
}

// Lookup returns the effective unit for key in lang: the last stored
// occurrence, like Catalog.Lookup.
func (s *Store) Lookup(ctx context.Context, lang string, key tsi18n.Key) (*tsi18n.Unit, error) {
	q, args, err := s.sq.Select("id", "position", "context", "source", "translation", "type", "comment", "extra_comment").
		From("units").
		Where(sq.Eq{"language": lang, "context": key.Context, "source": key.Source}).
		OrderBy("position DESC").Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	var r unitRow
	if err := s.db.GetContext(ctx, &r, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", lang, key, ErrNotFound)
		}
		return nil, fmt.Errorf("lookup %s %s: %w", lang, key, err)
	}
	return r.unit(), nil
}

// Bundle loads every stored catalog into a new bundle.
func (s *Store) Bundle(ctx context.Context, cfg tsi18n.Config) (*tsi18n.Bundle, error) {
	langs, err := s.Languages(ctx)
	if err != nil {
		return nil, err
	}
	if len(langs) == 0 {
		return nil, tsi18n.ErrNoCatalogs
	}
	b := tsi18n.New(cfg)
	for _, lang := range langs {
		c, err := s.LoadCatalog(ctx, lang)
		if err != nil {
			return nil, err
		}
		b.Register(c)
	}
	return b, nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
