package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lifei6671/tsi18n"
	"github.com/lifei6671/tsi18n/analyzer"
	"github.com/lifei6671/tsi18n/cmd/tsi18n/checker"
	"github.com/lifei6671/tsi18n/internal/config"
	"github.com/lifei6671/tsi18n/search"
	"github.com/lifei6671/tsi18n/store"
)

const searchContext = "Search"

// errIssues makes lint exit non-zero without printing a usage message.
var errIssues = errors.New("catalog check failed")

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, cancel := setupContext()
	defer cancel()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errIssues) {
			log.Error().Err(err).Msg("Command failed")
		}
		cancel()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tsi18n",
		Short:         "Qt TS translation catalogs: lookup, checks, conversion and storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.LocalesDir, "locales", cfg.LocalesDir, "directory of .ts/.yaml catalogs (embedded catalogs when missing)")
	rootCmd.PersistentFlags().StringVar(&cfg.Lang, "lang", cfg.Lang, "interface language")
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite catalog database")

	rootCmd.AddCommand(lintCmd(cfg))
	rootCmd.AddCommand(trCmd(cfg))
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(lexCmd(cfg))
	rootCmd.AddCommand(parseCmd(cfg))
	rootCmd.AddCommand(searchCmd(cfg))
	rootCmd.AddCommand(importCmd(cfg))
	rootCmd.AddCommand(exportCmd(cfg))

	return rootCmd
}

func lintCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check that all catalogs share keys, placeholders and valid templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			base, _ := cmd.Flags().GetString("base")
			failOnError, _ := cmd.Flags().GetBool("fail")
			strict, _ := cmd.Flags().GetBool("strict")
			if dir == "" {
				dir = cfg.LocalesDir
			}

			res, err := lintCatalogs(cfg, dir, base)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)

			if failOnError && (res.HasErrors() || (strict && res.HasWarnings())) {
				return errIssues
			}
			return nil
		},
	}

	cmd.Flags().StringP("dir", "d", "", "directory of catalog files (default: --locales)")
	cmd.Flags().String("base", "en", "reference language for redundant keys")
	cmd.Flags().Bool("fail", false, "exit with code 1 if any issue found")
	cmd.Flags().Bool("strict", false, "with --fail, also fail on duplicates and unfinished entries")

	return cmd
}

func trCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tr <source> [args...]",
		Short: "Translate a source string, filling {} placeholders with args",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgContext, _ := cmd.Flags().GetString("context")

			b, err := loadBundle(cfg)
			if err != nil {
				return err
			}
			loc := b.Locale(b.Match(cfg.Lang))

			values := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				values = append(values, a)
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc.Tr(msgContext, args[0], values...))
			return nil
		},
	}

	cmd.Flags().String("context", analyzer.WindowContext, "message context, empty for any")

	return cmd
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a catalog file to another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			c, err := tsi18n.DecodeCatalog(args[0], data)
			if err != nil {
				return err
			}
			return tsi18n.Export(to, cmd.OutOrStdout(), c)
		},
	}

	cmd.Flags().String("to", "yaml", "output format: "+strings.Join(tsi18n.Formats(), ", "))

	return cmd
}

func lexCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "lex <file|->",
		Short: "Run the JavaScript lexical analyzer and print localized results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			b, err := loadBundle(cfg)
			if err != nil {
				return err
			}
			loc := b.Locale(b.Match(cfg.Lang))

			printAnalysis(cmd.OutOrStdout(), loc, analyzer.Analyze(data, loc))
			return nil
		},
	}
}

func parseCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Check associative array declarations and print localized errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, _ := cmd.Flags().GetBool("trace")

			data, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			b, err := loadBundle(cfg)
			if err != nil {
				return err
			}
			loc := b.Locale(b.Match(cfg.Lang))

			res := analyzer.AnalyzeSyntax(data, loc)
			printSyntax(cmd.OutOrStdout(), loc, res)
			if trace {
				fmt.Fprintln(cmd.OutOrStdout())
				for _, line := range res.Trace {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("trace", false, "print the automaton states and recoveries")

	return cmd
}

func searchCmd(cfg *config.Config) *cobra.Command {
	kinds := make([]string, 0, len(search.Kinds))
	for _, k := range search.Kinds {
		kinds = append(kinds, string(k))
	}

	cmd := &cobra.Command{
		Use:   "search <file|->",
		Short: "Find SNILS numbers, Mir card numbers or chemical elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("kind")
			kind, err := search.ParseKind(name)
			if err != nil {
				return err
			}

			data, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			b, err := loadBundle(cfg)
			if err != nil {
				return err
			}
			loc := b.Locale(b.Match(cfg.Lang))

			w := cmd.OutOrStdout()
			if strings.TrimSpace(data) == "" {
				fmt.Fprintln(w, loc.Tr(searchContext, "No text to search"))
				return nil
			}
			matches, err := search.Find(data, kind)
			if err != nil {
				return err
			}
			printMatches(w, loc, kind, matches)
			return nil
		},
	}

	cmd.Flags().String("kind", string(search.SNILS), "pattern: "+strings.Join(kinds, ", "))

	return cmd
}

// readSource reads path, or stdin for "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}

func importCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <directory>",
		Short: "Load catalog files into the SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := tsi18n.New(tsi18n.Config{DefaultLang: cfg.DefaultLang, Workers: cfg.Workers})
			if err := b.LoadDir(args[0]); err != nil {
				return err
			}

			s, err := store.Open(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, lang := range b.Languages() {
				c, _ := b.Catalog(lang)
				if err := s.SaveCatalog(cmd.Context(), c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d messages\n", lang, c.Len())
			}
			return nil
		},
	}
}

func exportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored catalog in the given format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")

			s, err := store.Open(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			langs, err := s.Languages(cmd.Context())
			if err != nil {
				return err
			}
			lang := tsi18n.MatchLanguage(langs, cfg.DefaultLang, cfg.Lang)
			log.Debug().Str("requested", cfg.Lang).Str("lang", lang).Msg("Exporting stored catalog")

			c, err := s.LoadCatalog(cmd.Context(), lang)
			if err != nil {
				return err
			}
			return tsi18n.Export(to, cmd.OutOrStdout(), c)
		},
	}

	cmd.Flags().String("to", "ts", "output format: "+strings.Join(tsi18n.Formats(), ", "))

	return cmd
}

// lintCatalogs checks the catalogs under dir, or the embedded catalogs when
// dir does not exist.
func lintCatalogs(cfg *config.Config, dir, base string) (*checker.Result, error) {
	if isDir(dir) {
		return checker.CheckLocales(dir, base)
	}

	b := tsi18n.New(tsi18n.Config{DefaultLang: cfg.DefaultLang, Workers: cfg.Workers})
	if err := b.LoadEmbedded(); err != nil {
		return nil, err
	}
	log.Debug().Str("dir", dir).Msg("Locales directory missing, checking embedded catalogs")

	var catalogs []*tsi18n.Catalog
	for _, lang := range b.Languages() {
		c, _ := b.Catalog(lang)
		catalogs = append(catalogs, c)
	}
	return checker.CheckCatalogs(base, catalogs...), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// loadBundle reads cfg.LocalesDir, or the embedded catalogs when the
// directory does not exist.
func loadBundle(cfg *config.Config) (*tsi18n.Bundle, error) {
	b := tsi18n.New(tsi18n.Config{DefaultLang: cfg.DefaultLang, Workers: cfg.Workers})

	if isDir(cfg.LocalesDir) {
		if err := b.LoadDir(cfg.LocalesDir); err != nil {
			return nil, err
		}
		log.Debug().Str("dir", filepath.Clean(cfg.LocalesDir)).Strs("langs", b.Languages()).Msg("Catalogs loaded")
		return b, nil
	}

	if err := b.LoadEmbedded(); err != nil {
		return nil, err
	}
	log.Debug().Strs("langs", b.Languages()).Msg("Embedded catalogs loaded")
	return b, nil
}

func printResult(w io.Writer, res *checker.Result) {
	fmt.Fprintln(w, "=== TS CATALOG CHECK RESULT ===")
	fmt.Fprintln(w, "Languages:", res.Languages)
	fmt.Fprintln(w, "Total keys:", len(res.AllKeys))

	for _, lang := range res.Languages {
		fmt.Fprintf(w, "\n--- [%s] ---\n", lang)

		printKeys(w, "Missing keys", res.MissingKeys[lang])
		printKeys(w, "Redundant keys", res.RedundantKeys[lang])
		printKeys(w, "Empty entries", res.EmptyEntries[lang])

		if arr := res.Placeholders[lang]; len(arr) > 0 {
			fmt.Fprintln(w, "Placeholder mismatches:")
			for _, m := range arr {
				fmt.Fprintf(w, "  - %s: source has %d, translation has %d\n", m.Key, m.SourceCount, m.TranslationCount)
			}
		} else {
			fmt.Fprintln(w, "Placeholder mismatches: None")
		}

		// syntax errors
		if errs := res.SyntaxErrors[lang]; len(errs) > 0 {
			fmt.Fprintln(w, "Syntax errors:")
			for _, key := range res.AllKeys {
				if err, ok := errs[key]; ok {
					fmt.Fprintf(w, "  - %s: %v\n", key, err)
				}
			}
		} else {
			fmt.Fprintln(w, "Syntax errors: None")
		}

		if arr := res.Duplicates[lang]; len(arr) > 0 {
			fmt.Fprintln(w, "Duplicates (warning):")
			for _, d := range arr {
				note := "same translation"
				if d.Conflicting() {
					note = "conflicting, last wins: " + d.Translations[len(d.Translations)-1]
				}
				fmt.Fprintf(w, "  - %s x%d (%s)\n", d.Key, len(d.Translations), note)
			}
		}
		if arr := res.Unfinished[lang]; len(arr) > 0 {
			printKeys(w, "Unfinished (warning)", arr)
		}
	}
}

func printKeys(w io.Writer, title string, keys []tsi18n.Key) {
	if len(keys) == 0 {
		fmt.Fprintf(w, "%s: None\n", title)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintln(w, "  -", k)
	}
}

func printAnalysis(w io.Writer, loc *tsi18n.Locale, res *analyzer.Result) {
	fmt.Fprintf(w, "== %s ==\n", loc.T("Console"))
	for _, line := range res.Console {
		fmt.Fprintln(w, line)
	}
	if len(res.Rows) == 0 && len(res.Errors) == 0 {
		return
	}

	fmt.Fprintf(w, "\n== %s ==\n", loc.T("Analysis Results"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		loc.T("Code"), loc.T("Type"), loc.T("Value"), loc.T("Line"), loc.T("Position"))
	for _, r := range res.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", r.Code, r.Type, r.Value, r.Line, r.Position)
	}
	_ = tw.Flush()

	if len(res.Errors) == 0 {
		return
	}
	fmt.Fprintf(w, "\n== %s ==\n", loc.T("Errors"))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", loc.T("Line"), loc.T("Position"), loc.T("Message"))
	for _, d := range res.Errors {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", d.Line, d.Position, d.Message)
	}
	_ = tw.Flush()
}

func printSyntax(w io.Writer, loc *tsi18n.Locale, res *analyzer.SyntaxResult) {
	fmt.Fprintf(w, "== %s ==\n", loc.T("Console"))
	for _, line := range res.Console {
		fmt.Fprintln(w, line)
	}
	if len(res.Errors) == 0 {
		return
	}

	fmt.Fprintf(w, "\n== %s ==\n", loc.T("Errors"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", loc.T("Line"), loc.T("Position"), loc.T("Value"), loc.T("Message"))
	for _, d := range res.Errors {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", d.Line, d.Position, d.Value, d.Message)
	}
	_ = tw.Flush()
}

func printMatches(w io.Writer, loc *tsi18n.Locale, kind search.Kind, matches []search.Match) {
	fmt.Fprintf(w, "== %s ==\n", loc.Tr(searchContext, kind.Description()))
	if len(matches) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", loc.T("Value"), loc.T("Line"), loc.T("Position"), loc.Tr(searchContext, "Check"))
		for _, m := range matches {
			check := "valid"
			if !kind.Validate(m.Text) {
				check = "invalid"
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", m.Text, m.Line, m.Column, loc.Tr(searchContext, check))
		}
		_ = tw.Flush()
	}
	fmt.Fprintln(w, loc.Tr(searchContext, "Found {} matches", len(matches)))
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
