// Package config reads the command line tool settings from the environment,
// after loading a .env file when one is present.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	LocalesDir  string `env:"TSI18N_LOCALES_DIR" envDefault:"./locales"`
	Lang        string `env:"TSI18N_LANG"`
	DefaultLang string `env:"TSI18N_DEFAULT_LANG" envDefault:"en"`
	DBPath      string `env:"TSI18N_DB" envDefault:"tsi18n.db"`
	LogLevel    string `env:"TSI18N_LOG_LEVEL" envDefault:"info"`
	Workers     int    `env:"TSI18N_WORKERS" envDefault:"4"`
}

// Load reads .env (if any) and the TSI18N_* variables. Without TSI18N_LANG
// the language is taken from LC_ALL, LC_MESSAGES or LANG.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Lang == "" {
		cfg.Lang = systemLang()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}

// Level returns the zerolog level named by LogLevel, info when unknown.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// systemLang turns a POSIX locale such as "ru_RU.UTF-8" into "ru-RU".
func systemLang() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(k)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		return strings.ReplaceAll(v, "_", "-")
	}
	return ""
}
