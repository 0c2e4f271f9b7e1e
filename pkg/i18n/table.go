// Package i18n resolves message keys to user-visible strings.
//
// Translations are loaded per language on demand and cached for the life of
// the Table. A key missing from the requested language falls back to the
// fallback language, then to the raw key.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"
)

// DefaultLanguage is used when no preference is stored.
const DefaultLanguage = "de"

// FallbackLanguage backs up missing keys and languages.
const FallbackLanguage = "en"

// Supported lists the languages shipped with the client.
var Supported = []string{"de", "en"}

//go:embed locales/*.json
var embedded embed.FS

// Loader fetches the key to template mapping for one language.
type Loader interface {
	Load(lang string) (map[string]string, error)
}

// FSLoader reads <Dir>/<lang>.json from FS.
type FSLoader struct {
	FS  fs.FS
	Dir string
}

// Embedded returns a loader over the translations compiled into the binary.
func Embedded() FSLoader {
	return FSLoader{FS: embedded, Dir: "locales"}
}

func (l FSLoader) Load(lang string) (map[string]string, error) {
	name := path.Join(l.Dir, lang+".json")
	if l.Dir == "" {
		name = lang + ".json"
	}
	data, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, fmt.Errorf("unable to read translations for %s: %w", lang, err)
	}

	var strs map[string]string
	if err := json.Unmarshal(data, &strs); err != nil {
		return nil, fmt.Errorf("unable to parse translations for %s: %w", lang, err)
	}
	return strs, nil
}

// Table caches loaded languages. It is safe for concurrent use.
type Table struct {
	loader   Loader
	fallback string

	mu    sync.RWMutex
	langs map[string]map[string]string
}

// NewTable creates a table backed by loader.
func NewTable(loader Loader, fallback string) *Table {
	if fallback == "" {
		fallback = FallbackLanguage
	}
	return &Table{
		loader:   loader,
		fallback: fallback,
		langs:    make(map[string]map[string]string),
	}
}

// Load fetches lang unless it is already cached. Loaded tables are immutable.
func (t *Table) Load(lang string) error {
	if t.Loaded(lang) {
		return nil
	}

	strs, err := t.loader.Load(lang)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.langs[lang]; !ok {
		t.langs[lang] = strs
		slog.Debug("Translations loaded", "lang", lang, "keys", len(strs))
	}
	return nil
}

// Loaded reports whether lang is cached.
func (t *Table) Loaded(lang string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.langs[lang]
	return ok
}

// Has reports whether key resolves in lang or the fallback language.
func (t *Table) Has(lang, key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.langs[lang][key]; ok {
		return true
	}
	_, ok := t.langs[t.fallback][key]
	return ok
}

// Translate resolves key for lang and substitutes {name} placeholders.
func (t *Table) Translate(lang, key string, data map[string]string) string {
	return strings.TrimSpace(Substitute(t.lookup(lang, key), data))
}

func (t *Table) lookup(lang, key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	active, ok := t.langs[lang]
	if !ok {
		active = t.langs[t.fallback]
	}
	if text, ok := active[key]; ok {
		return text
	}

	if lang != t.fallback {
		if text, ok := t.langs[t.fallback][key]; ok {
			slog.Warn("Translation key missing, using fallback", "key", key, "lang", lang, "fallback", t.fallback)
			return text + " [" + key + "]"
		}
	}

	slog.Warn("Translation key missing", "key", key, "lang", lang)
	return key
}

// Substitute replaces every {name} token with data[name] in one pass, so
// values that contain braces are never substituted again.
func Substitute(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for name, value := range data {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
