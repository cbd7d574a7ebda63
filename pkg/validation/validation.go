// Package validation accumulates field-level input failures so callers can
// report every problem with a request at once instead of the first one found.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidInput is matched by every accumulated validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Error carries the accumulated field messages of a failed validation.
type Error struct {
	Messages []string `json:"messages"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(e.Messages, "; "))
}

// Unwrap allows errors.Is(err, ErrInvalidInput).
func (e *Error) Unwrap() error {
	return ErrInvalidInput
}

// Errors collects messages in the order they are reported.
// The zero value is ready to use.
type Errors struct {
	messages []string
}

// Add records a message for field.
func (v *Errors) Add(field, message string) {
	v.messages = append(v.messages, fmt.Sprintf("%s: %s", field, message))
}

// Addf records a formatted message for field.
func (v *Errors) Addf(field, format string, args ...any) {
	v.Add(field, fmt.Sprintf(format, args...))
}

// Check records message for field when ok is false and reports ok.
func (v *Errors) Check(ok bool, field, message string) bool {
	if !ok {
		v.Add(field, message)
	}
	return ok
}

// Required records a "must not be blank" message when value is blank.
func (v *Errors) Required(field, value string) bool {
	return v.Check(!Blank(value), field, "must not be blank")
}

// Merge appends every message from other, prefixing fields with prefix.
func (v *Errors) Merge(prefix string, other *Errors) {
	for _, m := range other.messages {
		v.messages = append(v.messages, prefix+m)
	}
}

// Len returns the number of recorded messages.
func (v *Errors) Len() int {
	return len(v.messages)
}

// Err returns nil when nothing was recorded, otherwise an *Error.
func (v *Errors) Err() error {
	if len(v.messages) == 0 {
		return nil
	}
	msgs := make([]string, len(v.messages))
	copy(msgs, v.messages)
	return &Error{Messages: msgs}
}

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// MapHTTPStatus maps validation failures to 400.
func MapHTTPStatus(err error) (int, bool) {
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest, true
	}
	return 0, false
}
