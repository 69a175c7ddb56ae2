// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every other catalog falls back to.
const BaseLocale = "en-US"

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*/errors.yaml
var embeddedLocales embed.FS

var (
	catalogsMu sync.RWMutex
	// catalogs holds embedded, override and runtime-registered catalogs by locale.
	catalogs = map[string]*Catalog{}
	matcher  language.Matcher
	tags     []language.Tag
)

func init() {
	loaded, err := LoadFromFS(embeddedLocales)
	if err != nil {
		panic(err)
	}
	if _, ok := loaded[BaseLocale]; !ok {
		panic(fmt.Sprintf("base locale %s is not defined in catalogs", BaseLocale))
	}
	locales := make([]string, 0, len(loaded))
	for locale := range loaded {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	// The base locale goes first so the matcher falls back to it.
	tags = append(tags, language.MustParse(BaseLocale))
	for _, locale := range locales {
		catalogs[locale] = loaded[locale]
		if locale != BaseLocale {
			tags = append(tags, language.MustParse(locale))
		}
	}
	matcher = language.NewMatcher(tags)
}

// LoadFromFS loads catalogs stored as locales/<locale>/errors.yaml.
func LoadFromFS(catalogFS fs.FS) (map[string]*Catalog, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/errors.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	out := make(map[string]*Catalog, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		locale := strings.TrimSpace(file.Locale)
		if want := path.Base(path.Dir(p)); locale != want {
			return nil, fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, want)
		}
		if _, err := language.Parse(locale); err != nil {
			return nil, fmt.Errorf("catalog %s: parse locale: %w", p, err)
		}
		if len(file.Messages) == 0 {
			return nil, fmt.Errorf("catalog %s: messages map is required", p)
		}
		out[locale] = NewCatalog(locale, file.Messages)
	}
	return out, nil
}

// GetCatalog returns the catalog best matching the given locale or
// Accept-Language style list. Falls back to en-US.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}
	if c, ok := lookupCatalog(requested); ok {
		return c
	}

	resolved := BaseLocale
	if prefs, _, err := language.ParseAcceptLanguage(requested); err == nil && len(prefs) > 0 {
		_, index, confidence := matcher.Match(prefs...)
		if confidence != language.No {
			resolved = tags[index].String()
		}
	}
	if c, ok := lookupCatalog(resolved); ok {
		return c
	}
	c, _ := lookupCatalog(BaseLocale)
	return c
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the base locale message and then to the code itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok && c.locale != BaseLocale {
		if base, found := lookupCatalog(BaseLocale); found {
			tmpl, ok = base.messages[code]
		}
	}
	if !ok {
		return code
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers a new catalog for the given locale.
// This is primarily for testing purposes.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}
