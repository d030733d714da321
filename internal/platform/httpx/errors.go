// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer. Domain errors wrap these so handlers can map them
// without importing every domain package.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrContention = errors.New("allocation contention")
	ErrPersist    = errors.New("persist failed")
	ErrBadRequest = errors.New("bad request")
)

// Machine-readable reasons carried in problem responses.
const (
	CodeValidation = "validation_failed"
	CodeContention = "allocation_contention"
	CodePersist    = "persist_failed"
	CodeNotFound   = "not_found"
	CodeDuplicate  = "duplicate"
	CodeBadRequest = "bad_request"
	CodeInternal   = "internal"
)

// FieldErrorer is implemented by validation errors that carry per-field messages.
type FieldErrorer interface {
	FieldErrors() map[string]string
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		var fe FieldErrorer
		var fields map[string]string
		if errors.As(err, &fe) {
			fields = fe.FieldErrors()
		}
		write(w, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Code:   CodeValidation,
			Detail: err.Error(),
			Fields: fields,
		})
	case errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", CodeBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", CodeNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", CodeDuplicate, err.Error())
	case errors.Is(err, ErrContention):
		w.Header().Set("Retry-After", "1")
		Problem(w, http.StatusServiceUnavailable, "Allocation Contention", CodeContention, err.Error())
	case errors.Is(err, ErrPersist):
		Problem(w, http.StatusInternalServerError, "Creation Failed", CodePersist, err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", CodeInternal, "")
	}
}
