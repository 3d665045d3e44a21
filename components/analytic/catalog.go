package analytic

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	ItemImpressions        = "Impressions"
	ItemWebsiteViews       = "Website Views"
	ItemProfessionsOfFaith = "Professions of Faith"

	// PlatformAll is the sentinel platform id meaning "every platform".
	PlatformAll = "All"
	// CountryUnitedStates is the only country that solicits a sub-region.
	CountryUnitedStates = "United States"

	catalogVersionV1 = "1"
	// CatalogVersion exposes the current catalog file format version.
	CatalogVersion = catalogVersionV1
)

var defaultReportItems = []ReportItem{
	{ID: 1, Name: ItemImpressions},
	{ID: 2, Name: ItemWebsiteViews},
	{ID: 3, Name: ItemProfessionsOfFaith},
}

// professionsOfFaith is the item auto-inserted for map embeds.
var professionsOfFaith = defaultReportItems[2]

// DefaultReportItems returns a copy of the fixed report item catalog.
func DefaultReportItems() []ReportItem {
	return append([]ReportItem(nil), defaultReportItems...)
}

// AllPlatforms is the sentinel platform selection.
func AllPlatforms() *Ref {
	return &Ref{ID: PlatformAll, Name: PlatformAll}
}

// Catalog holds the reference lists used to populate valid choices.
type Catalog struct {
	Version     string       `json:"version" yaml:"version"`
	Platforms   []Ref        `json:"platforms" yaml:"platforms"`
	Countries   []Ref        `json:"countries" yaml:"countries"`
	States      []Ref        `json:"states" yaml:"states"`
	ReportItems []ReportItem `json:"reportItems,omitempty" yaml:"reportItems,omitempty"`
	Source      string       `json:"-" yaml:"-"`
}

// DefaultCatalog returns the built-in reference lists.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Version: catalogVersionV1,
		Platforms: []Ref{
			{ID: "1", Name: "Facebook"},
			{ID: "2", Name: "Instagram"},
			{ID: "3", Name: "YouTube"},
			{ID: "4", Name: "TikTok"},
			{ID: "5", Name: "Google"},
		},
		Countries:   refsFromNames(defaultCountries),
		States:      refsFromNames(defaultUSStates),
		ReportItems: DefaultReportItems(),
	}
}

// PlatformChoices lists the selectable platforms, "All" first.
func (c *Catalog) PlatformChoices() []Ref {
	out := []Ref{*AllPlatforms()}
	if c == nil {
		return out
	}
	return append(out, c.Platforms...)
}

// Country finds a country by id or name.
func (c *Catalog) Country(key string) (Ref, bool) {
	if c == nil {
		return Ref{}, false
	}
	return findRef(c.Countries, key)
}

// State finds a US state by id or name.
func (c *Catalog) State(key string) (Ref, bool) {
	if c == nil {
		return Ref{}, false
	}
	return findRef(c.States, key)
}

// Validate ensures the catalog satisfies required fields.
func (c *Catalog) Validate() error {
	if c.Version != catalogVersionV1 {
		return fmt.Errorf("analytic: unsupported catalog version %q", c.Version)
	}
	for name, list := range map[string][]Ref{"platforms": c.Platforms, "countries": c.Countries, "states": c.States} {
		seen := make(map[string]struct{}, len(list))
		for idx, ref := range list {
			if ref.ID == "" {
				return fmt.Errorf("analytic: catalog %s entry %d is missing id", name, idx)
			}
			if _, dup := seen[ref.ID]; dup {
				return fmt.Errorf("analytic: catalog %s duplicates id %s", name, ref.ID)
			}
			seen[ref.ID] = struct{}{}
		}
	}
	return nil
}

func (c *Catalog) applyDefaults() {
	if c.Version == "" {
		c.Version = catalogVersionV1
	}
	if len(c.ReportItems) == 0 {
		c.ReportItems = DefaultReportItems()
	}
	for i := range c.Countries {
		if c.Countries[i].Name == "" {
			c.Countries[i].Name = c.Countries[i].ID
		}
	}
	for i := range c.States {
		if c.States[i].Name == "" {
			c.States[i].Name = c.States[i].ID
		}
	}
}

// ReadCatalog loads a catalog file from disk.
func ReadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("analytic: open catalog %s: %w", path, err)
	}
	defer f.Close()
	cat, err := DecodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("analytic: decode catalog %s: %w", path, err)
	}
	cat.Source = path
	return cat, nil
}

// DecodeCatalog reads a YAML (or JSON) catalog from any reader.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var cat Catalog
	if err := decoder.Decode(&cat); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("analytic: catalog is empty")
		}
		return nil, fmt.Errorf("analytic: parse catalog: %w", err)
	}
	cat.applyDefaults()
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// CatalogHolder shares a swappable catalog between readers and a reloader.
type CatalogHolder struct {
	mu  sync.RWMutex
	cat *Catalog
}

// NewCatalogHolder wraps the given catalog, defaulting to DefaultCatalog.
func NewCatalogHolder(cat *Catalog) *CatalogHolder {
	if cat == nil {
		cat = DefaultCatalog()
	}
	return &CatalogHolder{cat: cat}
}

// Catalog returns the current catalog.
func (h *CatalogHolder) Catalog() *Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cat
}

// Swap replaces the current catalog.
func (h *CatalogHolder) Swap(cat *Catalog) {
	if cat == nil {
		return
	}
	h.mu.Lock()
	h.cat = cat
	h.mu.Unlock()
}

func findRef(list []Ref, key string) (Ref, bool) {
	for _, ref := range list {
		if ref.ID == key || strings.EqualFold(ref.Name, key) {
			return ref, true
		}
	}
	return Ref{}, false
}

func refsFromNames(names []string) []Ref {
	out := make([]Ref, len(names))
	for i, name := range names {
		out[i] = Ref{ID: name, Name: name}
	}
	return out
}

var defaultCountries = []string{
	"Argentina", "Australia", "Brazil", "Canada", "Chile", "Colombia",
	"France", "Germany", "Ghana", "India", "Indonesia", "Italy", "Japan",
	"Kenya", "Mexico", "Nigeria", "Peru", "Philippines", "South Africa",
	"South Korea", "Spain", "United Kingdom", "United States",
}

var defaultUSStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "Florida", "Georgia", "Hawaii", "Idaho",
	"Illinois", "Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana", "Maine",
	"Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
	"Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
	"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio",
	"Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina",
	"South Dakota", "Tennessee", "Texas", "Utah", "Vermont", "Virginia",
	"Washington", "West Virginia", "Wisconsin", "Wyoming",
}
