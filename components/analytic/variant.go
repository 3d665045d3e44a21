package analytic

import "strings"

// Variant selects one of the interchangeable layout strategies. Stored
// records address variants by their numeric id.
type Variant string

const (
	VariantClassic       Variant = "1"
	VariantSidebar       Variant = "2"
	VariantStackedRow    Variant = "3"
	VariantStackedColumn Variant = "4"
)

var variantNames = map[Variant]string{
	VariantClassic:       "classic",
	VariantSidebar:       "sidebar",
	VariantStackedRow:    "stacked-row",
	VariantStackedColumn: "stacked-column",
}

// Variants lists every known variant in id order.
func Variants() []Variant {
	return []Variant{VariantClassic, VariantSidebar, VariantStackedRow, VariantStackedColumn}
}

// ParseVariant accepts an id ("3") or a name ("stacked-row").
func ParseVariant(raw string) (Variant, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	if _, ok := variantNames[Variant(key)]; ok {
		return Variant(key), true
	}
	for id, name := range variantNames {
		if name == key {
			return id, true
		}
	}
	return "", false
}

// Name returns the human readable strategy name.
func (v Variant) Name() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return "unknown"
}

// Known reports whether the variant has a built-in strategy.
func (v Variant) Known() bool {
	_, ok := variantNames[v]
	return ok
}
