package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `platform: {id: All, name: All}
reportItems:
  - {id: 1, name: Impressions}
colorScheme: dark
embedOption: both
width: 800
height: 600
variant: "2"
`

func TestValidateCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := &validateCmd{File: writeFile(t, "ok.yaml", validConfig)}

	require.NoError(t, cmd.Run(context.Background(), &out))
	assert.Contains(t, out.String(), "is valid (variant sidebar, both)")
}

func TestValidateCmdReportsFieldErrors(t *testing.T) {
	var out bytes.Buffer
	cmd := &validateCmd{File: writeFile(t, "bad.yaml", "platform: null\nreportItems: []\nwidth: 100\n")}

	require.Error(t, cmd.Run(context.Background(), &out))
	assert.Contains(t, out.String(), "Platform is required")
	assert.Contains(t, out.String(), "Minimum width will be 300px")
}

func TestLayoutCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := &layoutCmd{File: writeFile(t, "ok.yaml", validConfig), Name: "Reach", Mode: "embed"}

	require.NoError(t, cmd.Run(context.Background(), &out))
	assert.Contains(t, out.String(), `"direction": "row"`)
	assert.Contains(t, out.String(), "Reach - Professions of Faith")
}

func TestSnippetCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := &snippetCmd{File: writeFile(t, "ok.json", `{"width": 1000, "height": 450}`), ID: "a-1", Name: "Global Reach", BaseURL: "https://embeds.example.com/"}

	require.NoError(t, cmd.Run(context.Background(), &out))
	assert.Contains(t, out.String(), `id="analytic-global-reach"`)
	assert.Contains(t, out.String(), `src="https://embeds.example.com/analytic/a-1"`)
	assert.Contains(t, out.String(), `width="1000"`)
	assert.Contains(t, out.String(), `height="450"`)
}

func TestCatalogCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := &catalogCmd{File: writeFile(t, "catalog.yaml", "version: \"1\"\nplatforms:\n  - {id: \"1\", name: Facebook}\n")}

	require.NoError(t, cmd.Run(context.Background(), &out))
	assert.Contains(t, out.String(), "1 platforms")
}
