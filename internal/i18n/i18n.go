// Package i18n localizes the deterministic narrative text.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/abhisek/quizlens/internal/logger"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is used when a caller asks for nothing more specific.
const DefaultLanguage = "vi"

type ctxKey struct{}

// Bundle holds every embedded locale.
type Bundle struct {
	bundle *i18n.Bundle
	log    *logger.Logger
}

// New loads all embedded locale files. defaultLang is the bundle's source
// language and the last resort for unknown requests.
func New(defaultLang string, log *logger.Logger) (*Bundle, error) {
	if defaultLang == "" {
		defaultLang = DefaultLanguage
	}
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", defaultLang, err)
	}
	if log == nil {
		log = logger.Nop()
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		log.Debug("loaded locale file", "file", e.Name())
	}

	return &Bundle{bundle: b, log: log}, nil
}

// MustNew is New for the embedded locales, which are known to parse.
func MustNew(defaultLang string, log *logger.Logger) *Bundle {
	b, err := New(defaultLang, log)
	if err != nil {
		panic(err)
	}
	return b
}

// Languages lists the loaded locale tags.
func (b *Bundle) Languages() []string {
	tags := b.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

// Localizer returns a localizer for the given preferences, which may be
// plain tags or Accept-Language header values.
func (b *Bundle) Localizer(langs ...string) *Localizer {
	return &Localizer{loc: i18n.NewLocalizer(b.bundle, langs...), log: b.log}
}

// Localizer translates message ids for one language preference list.
type Localizer struct {
	loc *i18n.Localizer
	log *logger.Logger
}

// T translates a message by ID.
func (l *Localizer) T(msgID string) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func (l *Localizer) Td(msgID string, data map[string]any) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message by ID.
func (l *Localizer) Tp(msgID string, count int) string {
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (l *Localizer) localize(cfg *i18n.LocalizeConfig) string {
	s, err := l.loc.Localize(cfg)
	if err != nil {
		l.log.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}

// WithLanguage stores a language preference in the context.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LanguageFrom returns the language stored by WithLanguage, or "".
func LanguageFrom(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKey{}).(string); ok {
		return s
	}
	return ""
}
