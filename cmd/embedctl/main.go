package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
)

type cli struct {
	Validate validateCmd `cmd:"" help:"Validate an analytic config file (YAML or JSON)."`
	Layout   layoutCmd   `cmd:"" help:"Resolve the layout a config file produces."`
	Snippet  snippetCmd  `cmd:"" help:"Print the iframe snippet for an analytic."`
	Catalog  catalogCmd  `cmd:"" help:"Validate a reference catalog file."`
}

type validateCmd struct {
	File string `arg:"" type:"existingfile" help:"Config file to validate."`
}

type layoutCmd struct {
	File     string `arg:"" type:"existingfile" help:"Config file to resolve."`
	Name     string `default:"Analytic" help:"Analytic name used in the title."`
	Viewport int    `help:"Viewport width in pixels; 0 means the configured width."`
	Mode     string `default:"embed" enum:"embed,preview" help:"Render mode."`
}

type snippetCmd struct {
	File    string `arg:"" type:"existingfile" help:"Config file holding width and height."`
	ID      string `required:"" help:"Analytic id."`
	Name    string `required:"" help:"Analytic name."`
	BaseURL string `name:"base-url" default:"http://localhost:8080" help:"Public base URL of the embed server."`
}

type catalogCmd struct {
	File string `arg:"" type:"existingfile" help:"Catalog YAML file."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Analytic embed configuration utility."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func (cmd *validateCmd) Run(_ context.Context, out io.Writer) error {
	candidate, err := readCandidate(cmd.File)
	if err != nil {
		return err
	}
	cfg, errs := analytic.NewValidator().Validate(candidate)
	if !errs.Empty() {
		for _, field := range sortedFields(errs) {
			fmt.Fprintf(out, "✗ %s: %s (%s)\n", field, errs[field].Message, errs[field].Code)
		}
		return fmt.Errorf("embedctl: %s is invalid", cmd.File)
	}
	fmt.Fprintf(out, "✓ %s is valid (variant %s, %s)\n", cmd.File, cfg.Variant.Name(), cfg.EmbedOption)
	return nil
}

func (cmd *layoutCmd) Run(_ context.Context, out io.Writer) error {
	candidate, err := readCandidate(cmd.File)
	if err != nil {
		return err
	}
	cfg, errs := analytic.NewValidator().Validate(candidate)
	if !analytic.IsSubmittable(cfg, errs) {
		return fmt.Errorf("embedctl: %s is not complete enough to preview", cmd.File)
	}
	layout, err := analytic.NewLayoutResolver().Resolve(analytic.LayoutInput{
		Name:          cmd.Name,
		Config:        analytic.ApplyStoredDefaults(cfg),
		Mode:          analytic.Mode(cmd.Mode),
		ViewportWidth: cmd.Viewport,
	})
	if err != nil {
		return err
	}
	data, err := sonic.ConfigStd.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("embedctl: encode layout: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func (cmd *snippetCmd) Run(_ context.Context, out io.Writer) error {
	candidate, err := readCandidate(cmd.File)
	if err != nil {
		return err
	}
	cfg, _ := analytic.NewValidator().Validate(candidate)
	record := analytic.Analytic{ID: cmd.ID, Name: cmd.Name, Config: cfg}
	_, err = fmt.Fprintln(out, analytic.EmbedSnippet(record, cmd.BaseURL))
	return err
}

func (cmd *catalogCmd) Run(_ context.Context, out io.Writer) error {
	cat, err := analytic.ReadCatalog(cmd.File)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ catalog v%s: %d platforms, %d countries, %d states, %d report items\n",
		cat.Version, len(cat.Platforms), len(cat.Countries), len(cat.States), len(cat.ReportItems))
	return nil
}

// readCandidate decodes YAML (a superset of JSON) into a raw candidate.
func readCandidate(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("embedctl: read %s: %w", path, err)
	}
	var candidate map[string]any
	if err := yaml.Unmarshal(data, &candidate); err != nil {
		return nil, fmt.Errorf("embedctl: parse %s: %w", path, err)
	}
	if candidate == nil {
		candidate = map[string]any{}
	}
	return candidate, nil
}

func sortedFields(errs analytic.FieldErrors) []string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
