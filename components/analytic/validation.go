package analytic

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const configSchemaName = "analytic-config.json"

// configSchema checks the structural shape of a candidate config. Rule
// checks (required, bounds) are left to the ozzo rules so each failure
// carries its own code.
const configSchema = `{
  "type": "object",
  "properties": {
    "platform": {"type": ["object", "null"], "properties": {"id": {"type": ["string", "number"]}, "name": {"type": "string"}}},
    "reportItems": {
      "type": ["array", "null"],
      "items": {"type": "object", "required": ["name"], "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}}
    },
    "colorScheme": {"enum": ["light", "dark", "", null]},
    "embedOption": {"enum": ["report", "map", "both", "", null]},
    "highlightCountry": {"type": ["object", "null"], "properties": {"id": {"type": ["string", "number"]}, "name": {"type": "string"}}},
    "stateName": {"type": ["object", "null"], "properties": {"id": {"type": ["string", "number"]}, "name": {"type": "string"}}},
    "width": {"type": ["number", "null"]},
    "height": {"type": ["number", "null"]},
    "variant": {"type": ["string", "null"]}
  }
}`

var legacyKeys = map[string]string{
	"platforms":     "platform",
	"state_name":    "stateName",
	"selectedEmbed": "variant",
}

var typeMessages = map[string]string{
	"width":  "Width must be a number",
	"height": "Height must be a number",
}

// Validator checks candidate configurations field by field.
type Validator struct {
	mu     sync.RWMutex
	schema *jsonschema.Schema
}

// NewValidator builds a validator; the schema compiles on first use.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate normalizes the candidate and returns a best-effort config plus
// the errors found. The config is usable for preview even when errors exist.
func (v *Validator) Validate(candidate map[string]any) (Config, FieldErrors) {
	_, cfg, errs := v.validate(candidate)
	return cfg, errs
}

// ValidateConfig validates a typed config.
func (v *Validator) ValidateConfig(cfg Config) (Config, FieldErrors) {
	payload, err := ConfigToMap(cfg)
	if err != nil {
		return cfg, FieldErrors{"config": {Field: "config", Code: CodeInvalidValue, Message: err.Error()}}
	}
	return v.Validate(payload)
}

func (v *Validator) validate(candidate map[string]any) (map[string]any, Config, FieldErrors) {
	errs := FieldErrors{}
	payload, err := canonicalPayload(candidate)
	if err != nil {
		errs.add("config", CodeInvalidValue, err.Error())
		return payload, Config{}, errs
	}
	payload = Normalize(payload)
	if err := v.schemaErrors(payload, errs); err != nil {
		errs.add("config", CodeInvalidValue, err.Error())
	}
	cfg := configFromPayload(payload, errs)
	ruleErrors(&cfg, errs)
	return payload, cfg, errs
}

// Normalize appends the Professions of Faith item to map and both embeds
// that lack it. It never removes items and running it twice is a no-op.
func Normalize(candidate map[string]any) map[string]any {
	out := make(map[string]any, len(candidate))
	for key, value := range candidate {
		out[key] = value
	}
	option, _ := out["embedOption"].(string)
	if !EmbedOption(option).ShowsMap() {
		return out
	}
	items, _ := out["reportItems"].([]any)
	for _, item := range items {
		if entry, ok := item.(map[string]any); ok && entry["name"] == ItemProfessionsOfFaith {
			return out
		}
	}
	next := make([]any, 0, len(items)+1)
	next = append(next, items...)
	next = append(next, map[string]any{"id": float64(professionsOfFaith.ID), "name": professionsOfFaith.Name})
	out["reportItems"] = next
	return out
}

// IsSubmittable reports whether the selection is complete enough to
// preview: a platform and at least one report item. Other field errors
// (width, height) do not block preview.
func IsSubmittable(cfg Config, errs FieldErrors) bool {
	if errs.Has("platform") || errs.Has("reportItems") {
		return false
	}
	return !cfg.Platform.IsZero() && len(cfg.ReportItems) > 0
}

func (v *Validator) schemaErrors(payload map[string]any, errs FieldErrors) error {
	schema, err := v.compiled()
	if err != nil {
		return err
	}
	err = schema.Validate(payload)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("analytic: validate config: %w", err)
	}
	for _, leaf := range leafErrors(verr) {
		field := topField(leaf.InstanceLocation)
		if field == "" {
			errs.add("config", CodeTypeError, "Configuration must be an object")
			continue
		}
		if strings.HasSuffix(leaf.KeywordLocation, "/type") {
			message := typeMessages[field]
			if message == "" {
				message = fieldLabel(field) + " has an invalid type"
			}
			errs.add(field, CodeTypeError, message)
			continue
		}
		errs.add(field, CodeInvalidValue, fieldLabel(field)+" has an unsupported value")
	}
	return nil
}

func (v *Validator) compiled() (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema := v.schema
	v.mu.RUnlock()
	if schema != nil {
		return schema, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(configSchemaName, strings.NewReader(configSchema)); err != nil {
		return nil, fmt.Errorf("analytic: load config schema: %w", err)
	}
	compiled, err := compiler.Compile(configSchemaName)
	if err != nil {
		return nil, fmt.Errorf("analytic: compile config schema: %w", err)
	}
	v.mu.Lock()
	v.schema = compiled
	v.mu.Unlock()
	return compiled, nil
}

func ruleErrors(cfg *Config, errs FieldErrors) {
	rules := []*validation.FieldRules{
		validation.Field(&cfg.Platform, validation.By(requiredRef)),
		validation.Field(&cfg.ReportItems,
			validation.Required.ErrorObject(validation.NewError(string(CodeMinSelection), "At least one report item must be selected."))),
		validation.Field(&cfg.EmbedOption,
			validation.Required.ErrorObject(validation.NewError(string(CodeRequired), "Required"))),
		validation.Field(&cfg.Variant, validation.By(knownVariant)),
	}
	if !errs.Has("width") {
		rules = append(rules, validation.Field(&cfg.Width,
			validation.Min(MinWidth).ErrorObject(validation.NewError(string(CodeMinNotMet), "Minimum width will be 300px")),
			validation.Max(MaxWidth).ErrorObject(validation.NewError(string(CodeMaxExceeded), "Maximum width will be 1200px")),
		))
	}
	if !errs.Has("height") {
		rules = append(rules, validation.Field(&cfg.Height,
			validation.Min(MinHeight).ErrorObject(validation.NewError(string(CodeMinNotMet), "Minimum height will be 400px")),
		))
	}
	err := validation.ValidateStruct(cfg, rules...)
	if err == nil {
		return
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		errs.add("config", CodeInvalidValue, err.Error())
		return
	}
	for field, ferr := range fieldErrs {
		code := CodeInvalidValue
		var coded validation.Error
		if errors.As(ferr, &coded) {
			code = ErrorCode(coded.Code())
		}
		errs.add(field, code, ferr.Error())
	}
}

func requiredRef(value any) error {
	ref, _ := value.(*Ref)
	if ref.IsZero() {
		return validation.NewError(string(CodeRequired), "Platform is required")
	}
	return nil
}

func knownVariant(value any) error {
	variant, _ := value.(Variant)
	if variant == "" || variant.Known() {
		return nil
	}
	return validation.NewError(string(CodeInvalidValue), "Variant is not supported")
}

// canonicalPayload rewrites legacy keys, converts typed values to their
// JSON shape and reads numeric strings as numbers.
func canonicalPayload(candidate map[string]any) (map[string]any, error) {
	if candidate == nil {
		return map[string]any{}, nil
	}
	data, err := sonic.Marshal(candidate)
	if err != nil {
		return nil, fmt.Errorf("analytic: marshal candidate: %w", err)
	}
	var payload map[string]any
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("analytic: decode candidate: %w", err)
	}
	for legacy, canonical := range legacyKeys {
		value, ok := payload[legacy]
		if !ok {
			continue
		}
		if _, exists := payload[canonical]; !exists {
			payload[canonical] = value
		}
		delete(payload, legacy)
	}
	if raw, ok := payload["variant"].(float64); ok {
		payload["variant"] = strconv.Itoa(int(raw))
	}
	for _, key := range []string{"width", "height"} {
		raw, ok := payload[key].(string)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			delete(payload, key)
			continue
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			payload[key] = n
		}
	}
	return payload, nil
}

// configFromPayload builds the best-effort config. Fields that failed the
// structural check are left zero.
func configFromPayload(payload map[string]any, errs FieldErrors) Config {
	var cfg Config
	if !errs.Has("platform") {
		cfg.Platform = refFrom(payload["platform"])
	}
	if !errs.Has("reportItems") {
		if items, ok := payload["reportItems"].([]any); ok {
			cfg.ReportItems = make([]ReportItem, 0, len(items))
			for _, item := range items {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				name, _ := entry["name"].(string)
				cfg.ReportItems = append(cfg.ReportItems, ReportItem{ID: int(toInt64(entry["id"])), Name: name})
			}
		}
	}
	if !errs.Has("colorScheme") {
		scheme, _ := payload["colorScheme"].(string)
		cfg.ColorScheme = ColorScheme(scheme)
	}
	if !errs.Has("embedOption") {
		option, _ := payload["embedOption"].(string)
		cfg.EmbedOption = EmbedOption(option)
	}
	if !errs.Has("highlightCountry") {
		cfg.HighlightCountry = refFrom(payload["highlightCountry"])
	}
	if !errs.Has("stateName") {
		cfg.StateName = refFrom(payload["stateName"])
	}
	if !errs.Has("width") {
		cfg.Width = roundInt(payload["width"])
	}
	if !errs.Has("height") {
		cfg.Height = roundInt(payload["height"])
	}
	if !errs.Has("variant") {
		raw, _ := payload["variant"].(string)
		if variant, ok := ParseVariant(raw); ok {
			cfg.Variant = variant
		} else {
			cfg.Variant = Variant(raw)
		}
	}
	return cfg
}

func refFrom(value any) *Ref {
	entry, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	var id string
	switch raw := entry["id"].(type) {
	case string:
		id = raw
	case float64:
		id = strconv.FormatFloat(raw, 'f', -1, 64)
	}
	name, _ := entry["name"].(string)
	if id == "" && name == "" {
		return nil
	}
	return &Ref{ID: id, Name: name}
}

func roundInt(value any) int {
	f, ok := toFloat(value)
	if !ok {
		return 0
	}
	return int(math.Round(f))
}

func leafErrors(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, leafErrors(cause)...)
	}
	return out
}

func topField(instanceLocation string) string {
	trimmed := strings.TrimPrefix(instanceLocation, "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}

func fieldLabel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
