package analytic

import (
	"sync"
)

// Draft is the mutable editor model. Every setter writes one field and
// re-validates the whole configuration, so the draft never holds a partially
// checked state. Raw input (for example a non numeric width) is kept so the
// author can fix it.
type Draft struct {
	// writeMu serializes setters across copy, validate and swap.
	writeMu   sync.Mutex
	mu        sync.RWMutex
	validator *Validator
	values    map[string]any
	cfg       Config
	errs      FieldErrors
}

// NewDraft seeds a draft from a stored config.
func NewDraft(validator *Validator, initial Config) *Draft {
	if validator == nil {
		validator = NewValidator()
	}
	values, err := ConfigToMap(initial)
	if err != nil {
		values = map[string]any{}
	}
	d := &Draft{validator: validator}
	d.revalidate(values)
	return d
}

// NewDraftFromMap seeds a draft from a raw candidate.
func NewDraftFromMap(validator *Validator, candidate map[string]any) *Draft {
	if validator == nil {
		validator = NewValidator()
	}
	d := &Draft{validator: validator}
	d.revalidate(candidate)
	return d
}

func (d *Draft) SetPlatform(ref *Ref) FieldErrors { return d.set("platform", refValue(ref)) }

func (d *Draft) SetReportItems(items []ReportItem) FieldErrors {
	values := make([]any, 0, len(items))
	for _, item := range items {
		values = append(values, map[string]any{"id": item.ID, "name": item.Name})
	}
	return d.set("reportItems", values)
}

func (d *Draft) SetColorScheme(scheme ColorScheme) FieldErrors {
	return d.set("colorScheme", string(scheme))
}

func (d *Draft) SetEmbedOption(option EmbedOption) FieldErrors {
	return d.set("embedOption", string(option))
}

func (d *Draft) SetHighlightCountry(ref *Ref) FieldErrors {
	return d.set("highlightCountry", refValue(ref))
}

func (d *Draft) SetStateName(ref *Ref) FieldErrors { return d.set("stateName", refValue(ref)) }

// SetWidth accepts raw input: numbers, numeric strings or anything else,
// which is reported as a type error.
func (d *Draft) SetWidth(raw any) FieldErrors { return d.set("width", raw) }

// SetHeight accepts raw input like SetWidth.
func (d *Draft) SetHeight(raw any) FieldErrors { return d.set("height", raw) }

func (d *Draft) SetVariant(variant Variant) FieldErrors { return d.set("variant", string(variant)) }

// Config returns the best-effort normalized config.
func (d *Draft) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg.Clone()
}

// Errors returns a copy of the current field errors.
func (d *Draft) Errors() FieldErrors {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(FieldErrors, len(d.errs))
	for key, value := range d.errs {
		out[key] = value
	}
	return out
}

// Valid is the persistence threshold: no field errors at all.
func (d *Draft) Valid() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.errs.Empty()
}

// Submittable is the preview threshold: selection completeness only.
func (d *Draft) Submittable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return IsSubmittable(d.cfg, d.errs)
}

// Values returns the raw candidate, normalized.
func (d *Draft) Values() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]any, len(d.values))
	for key, value := range d.values {
		out[key] = value
	}
	return out
}

func (d *Draft) set(field string, value any) FieldErrors {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	d.mu.RLock()
	next := make(map[string]any, len(d.values)+1)
	for key, current := range d.values {
		next[key] = current
	}
	if value == nil {
		delete(next, field)
	} else {
		next[field] = value
	}
	d.mu.RUnlock()
	d.revalidate(next)
	return d.Errors()
}

func (d *Draft) revalidate(candidate map[string]any) {
	payload, cfg, errs := d.validator.validate(candidate)
	d.mu.Lock()
	d.values = payload
	d.cfg = cfg
	d.errs = errs
	d.mu.Unlock()
}

func refValue(ref *Ref) any {
	if ref.IsZero() {
		return nil
	}
	return map[string]any{"id": ref.ID, "name": ref.Name}
}
