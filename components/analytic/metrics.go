package analytic

type metricBinding struct {
	field string
	icon  string
}

// metricTable binds report item names to snapshot fields.
var metricTable = map[string]metricBinding{
	ItemImpressions:        {field: "impressions", icon: "language"},
	ItemWebsiteViews:       {field: "sessions", icon: "play-circle"},
	ItemProfessionsOfFaith: {field: "pofs", icon: "church"},
}

// MetricCard is one resolved value in the metrics region.
type MetricCard struct {
	Item    ReportItem `json:"item"`
	Label   string     `json:"label"`
	Field   string     `json:"field"`
	Icon    string     `json:"icon"`
	Value   int64      `json:"value"`
	Display string     `json:"display"`
}

// MetricField returns the snapshot field a report item maps to.
func MetricField(itemName string) (string, bool) {
	binding, ok := metricTable[itemName]
	return binding.field, ok
}

// MappableItems filters report items down to those with a metric binding,
// preserving order.
func MappableItems(items []ReportItem) []ReportItem {
	out := make([]ReportItem, 0, len(items))
	for _, item := range items {
		if _, ok := metricTable[item.Name]; ok {
			out = append(out, item)
		}
	}
	return out
}

// ResolveMetrics maps the selected report items onto snapshot values. Items
// without a binding are skipped and a nil snapshot reads as all zero.
func ResolveMetrics(cfg Config, snap *ReportSnapshot, locale string) []MetricCard {
	var current ReportSnapshot
	if snap != nil {
		current = *snap
	}
	items := MappableItems(cfg.ReportItems)
	cards := make([]MetricCard, 0, len(items))
	for _, item := range items {
		binding := metricTable[item.Name]
		value, _ := current.Field(binding.field)
		cards = append(cards, MetricCard{
			Item:    item,
			Label:   item.Name,
			Field:   binding.field,
			Icon:    binding.icon,
			Value:   value,
			Display: FormatCount(locale, value),
		})
	}
	return cards
}
