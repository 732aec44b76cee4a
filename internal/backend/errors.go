package backend

import (
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors classifying every failure mode of the client. Callers are
// expected to match them with errors.Is and must not see raw transport errors.
var (
	// ErrUnavailable covers connection failures, timeouts and 5xx responses.
	ErrUnavailable = fmt.Errorf("task api unavailable")
	// ErrUnauthorized covers 401/403 responses for an unrecognized identity.
	ErrUnauthorized = fmt.Errorf("task api rejected identity")
	// ErrInvalid covers 400 responses where the payload was rejected.
	ErrInvalid = fmt.Errorf("task api rejected payload")
)

// InvalidError is an ErrInvalid carrying the field errors the API returned.
type InvalidError struct {
	Fields map[string][]string
}

func (e *InvalidError) Error() string {
	detail := e.Detail()
	if detail == "" {
		return ErrInvalid.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalid.Error(), detail)
}

// Unwrap makes errors.Is(err, ErrInvalid) hold for InvalidError values.
func (e *InvalidError) Unwrap() error {
	return ErrInvalid
}

// Detail flattens field errors into a single human-readable line.
func (e *InvalidError) Detail() string {
	if len(e.Fields) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs := e.Fields[f]
		if len(msgs) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(msgs, " ")))
	}
	return strings.Join(parts, "; ")
}
