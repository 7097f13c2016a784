package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Callers branch on these with errors.Is.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidState     = errors.New("invalid state")
	ErrNotFound         = errors.New("not found")
	ErrStorage          = errors.New("storage error")
)

// ValidationErrors maps a field name to a readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrValidationFailed) match.
func (v ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
