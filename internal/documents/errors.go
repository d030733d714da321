// Package documents creates numbered transport documents. It owns the error
// taxonomy shared by bilties and challans and the validate, allocate, persist
// sequence every numbered document goes through.
package documents

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/carrierdesk/carrierdesk/internal/platform/db"
	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
)

// Machine-readable failure reasons.
const (
	ReasonValidation = httpx.CodeValidation
	ReasonContention = httpx.CodeContention
	ReasonPersist    = httpx.CodePersist
	ReasonNotFound   = httpx.CodeNotFound
	ReasonDuplicate  = httpx.CodeDuplicate
)

// ErrNotFound is returned when an operation addresses a document that does not exist.
var ErrNotFound = fmt.Errorf("document %w", httpx.ErrNotFound)

// ErrNumberTaken means a stored document already holds the allocated number,
// which happens when a counter is reset behind existing rows.
var ErrNumberTaken = fmt.Errorf("document number %w", httpx.ErrDuplicate)

// InsertError classifies a failed insert of a numbered document.
func InsertError(kind string, number int64, scope string, err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%s number %d in scope %q: %w: %w", kind, number, scope, ErrNumberTaken, err)
	}
	return fmt.Errorf("insert %s: %w", kind, err)
}

// ValidationError lists every rejected field of a payload.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records a message for field. The first message per field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Check adds msg for field when ok is false.
func (e *ValidationError) Check(ok bool, field, msg string) {
	if !ok {
		e.Add(field, msg)
	}
}

// Err returns e when it holds at least one field, otherwise nil.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldErrors implements httpx.FieldErrorer.
func (e *ValidationError) FieldErrors() map[string]string { return e.Fields }

// Unwrap lets errors.Is match httpx.ErrValidation.
func (e *ValidationError) Unwrap() error { return httpx.ErrValidation }

// PersistError reports a storage failure after Number was allocated. The number
// stays consumed.
type PersistError struct {
	Number int64
	Scope  string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist document number %d (scope %q): %v", e.Number, e.Scope, e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the storage cause.
func (e *PersistError) Unwrap() []error { return []error{httpx.ErrPersist, e.Err} }

// Reason maps err to its machine-readable reason, or "" when err is not part of
// the taxonomy.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, httpx.ErrValidation):
		return ReasonValidation
	case errors.Is(err, httpx.ErrContention):
		return ReasonContention
	case errors.Is(err, httpx.ErrDuplicate):
		return ReasonDuplicate
	case errors.Is(err, httpx.ErrPersist):
		return ReasonPersist
	case errors.Is(err, httpx.ErrNotFound):
		return ReasonNotFound
	default:
		return ""
	}
}
