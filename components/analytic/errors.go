package analytic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSuperseded is returned for a fetch whose result lost to a newer request.
	ErrSuperseded = errors.New("analytic: request superseded by a newer one")
	// ErrClosed is returned once an orchestrator or session has been closed.
	ErrClosed = errors.New("analytic: closed")
	// ErrNotSubmittable is returned when a preview lacks platform or report items.
	ErrNotSubmittable = errors.New("analytic: configuration is not submittable")

	errNoClient = errors.New("analytic: report client not configured")
)

// ErrorCode classifies a field error.
type ErrorCode string

const (
	CodeRequired     ErrorCode = "Required"
	CodeMinSelection ErrorCode = "MinSelection"
	CodeTypeError    ErrorCode = "TypeError"
	CodeMinNotMet    ErrorCode = "MinNotMet"
	CodeMaxExceeded  ErrorCode = "MaxExceeded"
	CodeInvalidValue ErrorCode = "InvalidValue"
)

// FieldError is the first failure recorded for a field.
type FieldError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// FieldErrors maps a field name to its error.
type FieldErrors map[string]FieldError

// Has reports whether the field failed.
func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// Empty reports whether no field failed.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Messages flattens the errors to field -> message.
func (f FieldErrors) Messages() map[string]string {
	if len(f) == 0 {
		return nil
	}
	out := make(map[string]string, len(f))
	for field, fe := range f {
		out[field] = fe.Message
	}
	return out
}

func (f FieldErrors) add(field string, code ErrorCode, message string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = FieldError{Field: field, Code: code, Message: message}
}

// ValidationError wraps field errors so they can travel as an error value.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "analytic: validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key].Message))
	}
	return "analytic: validation failed: " + strings.Join(parts, "; ")
}

// FetchError reports a failed report or configuration load.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("analytic: %s failed: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFoundError reports an analytic id that does not resolve.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("analytic: analytic %q not found", e.ID)
}

// PlatformCapabilityError reports that the host cannot provide a feature
// such as native fullscreen. It is recovered internally.
type PlatformCapabilityError struct {
	Capability string
	Reason     string
}

func (e *PlatformCapabilityError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("analytic: %s unavailable", e.Capability)
	}
	return fmt.Sprintf("analytic: %s unavailable: %s", e.Capability, e.Reason)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
