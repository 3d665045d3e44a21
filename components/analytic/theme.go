package analytic

import (
	"context"
	"sort"
	"strings"
)

// Host page backgrounds applied while an embed is mounted.
const (
	LightHostBackground = "white"
	DarkHostBackground  = "#424242"
)

// ThemeProvider lets hosts override the built-in palettes. It is optional.
type ThemeProvider interface {
	SelectTheme(ctx context.Context, scheme ColorScheme, viewer ViewerContext) (*ThemeSelection, error)
}

// ThemeSelection carries the resolved palette for a color scheme.
type ThemeSelection struct {
	Name       string
	Scheme     ColorScheme
	Tokens     map[string]string
	ChartTheme string
}

var schemeTokens = map[ColorScheme]map[string]string{
	SchemeLight: {
		"host-background": LightHostBackground,
		"surface":         "#ffffff",
		"card-background": "#f5f7fa",
		"text":            "#1f2933",
		"text-muted":      "#52606d",
		"accent":          "#0f62fe",
	},
	SchemeDark: {
		"host-background": DarkHostBackground,
		"surface":         "#303030",
		"card-background": "#383838",
		"text":            "#f5f5f5",
		"text-muted":      "#bdbdbd",
		"accent":          "#82b1ff",
	},
}

// DefaultTheme returns the built-in palette for a scheme; unknown schemes
// read as light.
func DefaultTheme(scheme ColorScheme) *ThemeSelection {
	if scheme != SchemeDark {
		scheme = SchemeLight
	}
	tokens := make(map[string]string, len(schemeTokens[scheme]))
	for key, value := range schemeTokens[scheme] {
		tokens[key] = value
	}
	return &ThemeSelection{
		Name:       "analytic-" + string(scheme),
		Scheme:     scheme,
		Tokens:     tokens,
		ChartTheme: chartThemeFor(scheme),
	}
}

// HostBackground is the color an embed paints the host page with.
func HostBackground(scheme ColorScheme) string {
	if scheme == SchemeDark {
		return DarkHostBackground
	}
	return LightHostBackground
}

// CSSVariables normalizes token keys into CSS variable names.
func (theme *ThemeSelection) CSSVariables() map[string]string {
	if theme == nil || len(theme.Tokens) == 0 {
		return nil
	}
	vars := make(map[string]string, len(theme.Tokens))
	for key, value := range theme.Tokens {
		name := normalizeCSSVariable(key)
		if name == "" {
			continue
		}
		vars[name] = value
	}
	return vars
}

// CSSVariablesInline renders the variables as a style attribute, sorted so
// output is stable.
func (theme *ThemeSelection) CSSVariablesInline() string {
	vars := theme.CSSVariables()
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for _, key := range keys {
		if vars[key] == "" {
			continue
		}
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(vars[key])
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}

// Token returns a single token value.
func (theme *ThemeSelection) Token(key string) string {
	if theme == nil {
		return ""
	}
	return theme.Tokens[key]
}

func normalizeCSSVariable(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "--") {
		return name
	}
	return "--" + name
}

func resolveTheme(ctx context.Context, provider ThemeProvider, scheme ColorScheme, viewer ViewerContext) *ThemeSelection {
	if provider != nil {
		if selection, err := provider.SelectTheme(ctx, scheme, viewer); err == nil && selection != nil {
			if selection.ChartTheme == "" {
				selection.ChartTheme = chartThemeFor(scheme)
			}
			return selection
		}
	}
	return DefaultTheme(scheme)
}
