package analytic

import (
	"context"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TranslationService resolves user facing strings (card labels, footnotes,
// empty states) for a locale.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// ResolveLocalizedValue selects the best translation for the provided locale
// and falls back to the supplied value. Region tags (`es-mx`) fall back to
// their base language (`es`).
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	return fallback
}

// FormatCount renders an integer with the grouping of the locale. Unknown
// locales use English grouping.
func FormatCount(locale string, value int64) string {
	return printerFor(locale).Sprintf("%d", value)
}

func printerFor(locale string) *message.Printer {
	tag, err := language.Parse(normalizeLocale(locale))
	if err != nil || tag == language.Und {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, "default")
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(strings.ToLower(locale))
	return strings.ReplaceAll(locale, "_", "-")
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}

// StaticTranslations is a map backed TranslationService keyed by
// locale then message key.
type StaticTranslations map[string]map[string]string

// Translate implements TranslationService.
func (s StaticTranslations) Translate(_ context.Context, key, locale string, _ map[string]any) (string, error) {
	for _, candidate := range localeCandidates(locale) {
		if bundle, ok := s[candidate]; ok {
			if value := bundle[key]; value != "" {
				return value, nil
			}
		}
	}
	return "", nil
}
