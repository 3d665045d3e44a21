package analytic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMetricsFollowsSelectionOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReportItems = []ReportItem{
		{ID: 3, Name: ItemProfessionsOfFaith},
		{ID: 8, Name: "Video Completions"},
		{ID: 1, Name: ItemImpressions},
	}
	snap := &ReportSnapshot{Impressions: 2500000, Pofs: 17}

	cards := ResolveMetrics(cfg, snap, "en-US")
	require.Len(t, cards, 2)
	assert.Equal(t, "pofs", cards[0].Field)
	assert.Equal(t, "church", cards[0].Icon)
	assert.Equal(t, int64(17), cards[0].Value)
	assert.Equal(t, "impressions", cards[1].Field)
	assert.Equal(t, "2,500,000", cards[1].Display)
}

func TestResolveMetricsWithoutSnapshot(t *testing.T) {
	cards := ResolveMetrics(DefaultConfig(), nil, "")
	require.Len(t, cards, 3)
	for _, card := range cards {
		assert.Zero(t, card.Value)
		assert.Equal(t, "0", card.Display)
	}
}

func TestMetricField(t *testing.T) {
	field, ok := MetricField(ItemWebsiteViews)
	require.True(t, ok)
	assert.Equal(t, "sessions", field)
	_, ok = MetricField("Unknown")
	assert.False(t, ok)
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount("en", 1234567))
	assert.Equal(t, "1,234,567", FormatCount("", 1234567))
	assert.Equal(t, "1.234.567", FormatCount("de_DE", 1234567))
	assert.Equal(t, "42", FormatCount("not a locale", 42))
}

func TestResolveLocalizedValue(t *testing.T) {
	values := map[string]string{"es": "Impresiones", "default": "Impressions"}
	assert.Equal(t, "Impresiones", ResolveLocalizedValue(values, "es-MX", "x"))
	assert.Equal(t, "Impressions", ResolveLocalizedValue(values, "fr", "x"))
	assert.Equal(t, "x", ResolveLocalizedValue(nil, "fr", "x"))
}

func TestStaticTranslations(t *testing.T) {
	translations := StaticTranslations{
		"default": {"analytic.footnote": "Updated hourly"},
		"pt":      {"analytic.footnote": "Atualizado a cada hora"},
	}
	ctx := context.Background()

	value, err := translations.Translate(ctx, "analytic.footnote", "pt_BR", nil)
	require.NoError(t, err)
	assert.Equal(t, "Atualizado a cada hora", value)

	value, err = translations.Translate(ctx, "analytic.footnote", "ja", nil)
	require.NoError(t, err)
	assert.Equal(t, "Updated hourly", value)

	assert.Equal(t, "fallback", translateOrFallback(ctx, translations, "missing", "en", "fallback", nil))
	assert.Equal(t, "missing", translateOrFallback(ctx, nil, "missing", "en", "", nil))
}

func TestDefaultTheme(t *testing.T) {
	dark := DefaultTheme(SchemeDark)
	assert.Equal(t, DarkHostBackground, dark.Token("host-background"))
	assert.Equal(t, "analytic-dark", dark.Name)
	assert.NotEmpty(t, dark.ChartTheme)

	light := DefaultTheme("sepia")
	assert.Equal(t, SchemeLight, light.Scheme)
	assert.Equal(t, LightHostBackground, HostBackground(light.Scheme))

	inline := light.CSSVariablesInline()
	assert.True(t, len(inline) > 0)
	assert.Contains(t, inline, "--accent: #0f62fe;")
	assert.Equal(t, "--accent", inline[:len("--accent")], "variables are sorted")

	var empty *ThemeSelection
	assert.Empty(t, empty.CSSVariablesInline())
	assert.Empty(t, empty.Token("accent"))
}

type stubThemeProvider struct{}

func (stubThemeProvider) SelectTheme(_ context.Context, scheme ColorScheme, _ ViewerContext) (*ThemeSelection, error) {
	return &ThemeSelection{Name: "brand", Scheme: scheme, Tokens: map[string]string{"--accent": "hotpink"}}, nil
}

func TestResolveThemeUsesProvider(t *testing.T) {
	theme := resolveTheme(context.Background(), stubThemeProvider{}, SchemeDark, ViewerContext{})
	assert.Equal(t, "brand", theme.Name)
	assert.Equal(t, "--accent: hotpink;", theme.CSSVariablesInline())
	assert.Equal(t, chartThemeFor(SchemeDark), theme.ChartTheme)

	fallback := resolveTheme(context.Background(), nil, SchemeLight, ViewerContext{})
	assert.Equal(t, "analytic-light", fallback.Name)
}
