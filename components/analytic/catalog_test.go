package analytic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
version: "1"
platforms:
  - id: "1"
    name: Facebook
  - id: "9"
    name: Threads
countries:
  - id: United States
  - id: Canada
    name: Canada
states:
  - id: Texas
`

func TestDecodeCatalog(t *testing.T) {
	cat, err := DecodeCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, CatalogVersion, cat.Version)
	assert.Len(t, cat.Platforms, 2)
	assert.Len(t, cat.ReportItems, 3, "report items default to the built-in catalog")

	country, ok := cat.Country("united states")
	require.True(t, ok)
	assert.Equal(t, CountryUnitedStates, country.Name)

	state, ok := cat.State("Texas")
	require.True(t, ok)
	assert.Equal(t, "Texas", state.Name)

	_, ok = cat.State("Ontario")
	assert.False(t, ok)

	choices := cat.PlatformChoices()
	require.Len(t, choices, 3)
	assert.Equal(t, PlatformAll, choices[0].ID)
}

func TestDecodeCatalogRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"unknown field": "version: \"1\"\nregions: []\n",
		"bad version":   "version: \"2\"\n",
		"missing id":    "platforms:\n  - name: Facebook\n",
		"duplicate id":  "states:\n  - id: Texas\n  - id: Texas\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCatalog(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestReadCatalogRecordsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	cat, err := ReadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, path, cat.Source)

	_, err = ReadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultCatalogIsValid(t *testing.T) {
	cat := DefaultCatalog()
	require.NoError(t, cat.Validate())
	_, ok := cat.Country(CountryUnitedStates)
	assert.True(t, ok)
	assert.Len(t, cat.States, 50)
}

func TestCatalogHolderSwap(t *testing.T) {
	holder := NewCatalogHolder(nil)
	assert.Len(t, holder.Catalog().Platforms, 5)

	next := &Catalog{Version: CatalogVersion, Platforms: []Ref{{ID: "1", Name: "Facebook"}}}
	holder.Swap(next)
	assert.Same(t, next, holder.Catalog())

	holder.Swap(nil)
	assert.Same(t, next, holder.Catalog())
}

func TestVariantParsing(t *testing.T) {
	variant, ok := ParseVariant("stacked-row")
	require.True(t, ok)
	assert.Equal(t, VariantStackedRow, variant)

	variant, ok = ParseVariant(" 2 ")
	require.True(t, ok)
	assert.Equal(t, VariantSidebar, variant)

	_, ok = ParseVariant("mosaic")
	assert.False(t, ok)
	assert.Equal(t, "classic", VariantClassic.Name())
	assert.Equal(t, "unknown", Variant("7").Name())
	assert.Len(t, Variants(), 4)
}
