package analytic

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// DefaultConfig returns the authoring defaults for a new analytic.
func DefaultConfig() Config {
	return Config{
		Platform:    AllPlatforms(),
		ReportItems: DefaultReportItems(),
		ColorScheme: SchemeLight,
		EmbedOption: EmbedReport,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Variant:     VariantClassic,
	}
}

// ApplyStoredDefaults fills fields missing from a partially stored record.
// Width and height are plain ints, so a zero value counts as missing and
// takes the default; SaveConfig never persists a zero because it is below
// the minimum. Any other present value, even an invalid one, is left for
// the validator.
func ApplyStoredDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Platform == nil {
		cfg.Platform = defaults.Platform
	}
	if cfg.ReportItems == nil {
		cfg.ReportItems = defaults.ReportItems
	}
	if cfg.ColorScheme == "" {
		cfg.ColorScheme = defaults.ColorScheme
	}
	if cfg.EmbedOption == "" {
		cfg.EmbedOption = defaults.EmbedOption
	}
	if cfg.Width == 0 {
		cfg.Width = defaults.Width
	}
	if cfg.Height == 0 {
		cfg.Height = defaults.Height
	}
	if cfg.Variant == "" {
		cfg.Variant = defaults.Variant
	}
	return cfg
}

// Clone returns a deep copy of the config.
func (c Config) Clone() Config {
	out := c
	out.Platform = cloneRef(c.Platform)
	out.HighlightCountry = cloneRef(c.HighlightCountry)
	out.StateName = cloneRef(c.StateName)
	if c.ReportItems != nil {
		out.ReportItems = append([]ReportItem{}, c.ReportItems...)
	}
	return out
}

// Effective returns the view of the config other components consume: the
// country is dropped for report embeds and the state is dropped unless the
// country is the United States on a map embed. Stored values are untouched.
func (c Config) Effective() Config {
	out := c.Clone()
	if !out.EmbedOption.ShowsMap() {
		out.HighlightCountry = nil
		out.StateName = nil
		return out
	}
	if out.HighlightCountry.IsZero() {
		out.HighlightCountry = nil
		out.StateName = nil
		return out
	}
	if out.HighlightCountry.ID != CountryUnitedStates || out.StateName.IsZero() {
		out.StateName = nil
	}
	return out
}

// SolicitsCountry reports whether the editor should offer the country field.
func (c Config) SolicitsCountry() bool {
	return c.EmbedOption.ShowsMap()
}

// SolicitsState reports whether the editor should offer the state field.
func (c Config) SolicitsState() bool {
	return c.SolicitsCountry() && !c.HighlightCountry.IsZero() && c.HighlightCountry.ID == CountryUnitedStates
}

// NormalizeConfig appends the Professions of Faith item to map embeds that
// lack it. Running it again is a no-op.
func NormalizeConfig(cfg Config) Config {
	if !cfg.EmbedOption.ShowsMap() || hasItem(cfg.ReportItems, ItemProfessionsOfFaith) {
		return cfg
	}
	out := cfg.Clone()
	out.ReportItems = append(out.ReportItems, professionsOfFaith)
	return out
}

// ConfigToMap converts a config into the candidate shape the validator reads.
func ConfigToMap(cfg Config) (map[string]any, error) {
	data, err := sonic.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("analytic: marshal config: %w", err)
	}
	var out map[string]any
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("analytic: normalize config: %w", err)
	}
	return out, nil
}

func cloneRef(ref *Ref) *Ref {
	if ref == nil {
		return nil
	}
	cp := *ref
	return &cp
}
