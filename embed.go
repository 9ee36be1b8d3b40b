package tsi18n

import "embed"

//go:embed locales/*.ts
var embeddedLocales embed.FS

// LoadEmbedded loads the catalogs shipped with the package (English and
// Russian strings of the text editor and its scanner).
func (b *Bundle) LoadEmbedded() error {
	return b.LoadFS(embeddedLocales, "locales/*.ts")
}

// Default returns a bundle with the embedded catalogs loaded.
func Default() *Bundle {
	b := New(Config{DefaultLang: "en"})
	if err := b.LoadEmbedded(); err != nil {
		panic(err)
	}
	return b
}
