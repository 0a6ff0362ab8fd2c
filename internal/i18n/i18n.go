package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every catalog key must exist in.
const BaseLocale = "en-US"

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds translated messages for every loaded locale.
type Bundle struct {
	builder  *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	messages map[string]map[string]string
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
	defaultErr    error
)

// Default returns the bundle built from the embedded catalogs.
func Default() *Bundle {
	defaultOnce.Do(func() {
		defaultBundle, defaultErr = LoadFromFS(embeddedFS)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("i18n: load embedded catalogs: %v", defaultErr))
	}
	return defaultBundle
}

// LoadFromFS reads locales/<locale>/*.yaml from fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{
		builder:  catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale))),
		messages: map[string]map[string]string{},
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := bundle.add(p, file); err != nil {
			return nil, err
		}
	}

	base, ok := bundle.messages[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	for locale, messages := range bundle.messages {
		for key := range messages {
			if _, ok := base[key]; !ok {
				return nil, fmt.Errorf("locale %s: key %q missing from %s", locale, key, BaseLocale)
			}
		}
	}

	// The base locale goes first so the matcher falls back to it.
	sort.SliceStable(bundle.tags, func(i, j int) bool {
		return bundle.tags[i].String() == BaseLocale && bundle.tags[j].String() != BaseLocale
	})
	bundle.matcher = language.NewMatcher(bundle.tags)
	return bundle, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	locale := strings.TrimSpace(file.Locale)
	if fromPath := path.Base(path.Dir(p)); locale != fromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, fromPath)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", p, err)
	}

	messages, ok := b.messages[locale]
	if !ok {
		messages = map[string]string{}
		b.messages[locale] = messages
		b.tags = append(b.tags, tag)
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, dup := messages[key]; dup {
			return fmt.Errorf("catalog %s: duplicate key %q", p, key)
		}
		messages[key] = value
		if err := b.builder.SetString(tag, key, value); err != nil {
			return fmt.Errorf("catalog %s: key %q: %w", p, key, err)
		}
	}
	return nil
}

// Locales returns the loaded locale identifiers.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.messages))
	for locale := range b.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the best supported locale for an Accept-Language header, falling
// back to fallback and then to the base locale.
func (b *Bundle) Resolve(acceptLanguage, fallback string) language.Tag {
	var preferred []language.Tag
	if acceptLanguage != "" {
		preferred, _, _ = language.ParseAcceptLanguage(acceptLanguage)
	}
	if tag, err := language.Parse(fallback); err == nil && fallback != "" {
		preferred = append(preferred, tag)
	}
	if len(preferred) == 0 {
		return b.tags[0]
	}
	_, index, confidence := b.matcher.Match(preferred...)
	if confidence == language.No {
		return b.tags[0]
	}
	return b.tags[index]
}

// Printer returns a message printer for tag backed by this bundle.
func (b *Bundle) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(b.builder))
}

// Translate returns a key based formatter for tag.
func (b *Bundle) Translate(tag language.Tag) func(key string, args ...any) string {
	p := b.Printer(tag)
	return func(key string, args ...any) string {
		return p.Sprintf(key, args...)
	}
}
