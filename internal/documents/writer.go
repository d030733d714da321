package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carrierdesk/carrierdesk/internal/numbering"
	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
)

// Payload is the type-specific body of a numbered document.
type Payload interface {
	// Validate returns a *ValidationError listing every rejected field, or nil.
	Validate() error
	// DocumentDate is the business date that selects the numbering scope.
	DocumentDate() time.Time
}

// Stamp carries the server-assigned values handed to a persist function.
type Stamp struct {
	Number    int64
	Scope     string
	CreatedAt time.Time
}

// PersistFunc stores a validated, numbered payload and returns its id.
type PersistFunc func(ctx context.Context, stamp Stamp) (int64, error)

// Created is the result of a successful Create.
type Created struct {
	ID     int64  `json:"id"`
	Number int64  `json:"number"`
	Scope  string `json:"scope"`
}

// Allocator is satisfied by *numbering.Allocator.
type Allocator interface {
	Next(ctx context.Context, docType numbering.DocType, scope string) (int64, error)
	Peek(ctx context.Context, docType numbering.DocType, scope string) (int64, error)
}

// Writer validates, numbers and persists documents.
type Writer struct {
	alloc  Allocator
	policy numbering.ScopePolicy
	now    func() time.Time
	logger *slog.Logger
}

// NewWriter constructs a Writer.
func NewWriter(alloc Allocator, policy numbering.ScopePolicy, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{alloc: alloc, policy: policy, now: time.Now, logger: logger}
}

// SetClock overrides the createdAt source.
func (w *Writer) SetClock(now func() time.Time) {
	if now != nil {
		w.now = now
	}
}

// Scope returns the numbering scope for a document dated on date.
func (w *Writer) Scope(date time.Time) string {
	return w.policy.Key(date)
}

// Create validates payload, allocates the next number for kind and persists.
// An invalid payload never reaches the allocator. Once a number is allocated it is
// consumed whatever happens to the persist step.
func (w *Writer) Create(ctx context.Context, kind numbering.DocType, payload Payload, persist PersistFunc) (Created, error) {
	if err := payload.Validate(); err != nil {
		return Created{}, err
	}

	scope := w.policy.Key(payload.DocumentDate())
	number, err := w.alloc.Next(ctx, kind, scope)
	if err != nil {
		if errors.Is(err, numbering.ErrContention) {
			return Created{}, fmt.Errorf("%w: %w", httpx.ErrContention, err)
		}
		return Created{}, fmt.Errorf("allocate %s number: %w", kind, err)
	}

	id, err := persist(ctx, Stamp{Number: number, Scope: scope, CreatedAt: w.now().UTC()})
	if err != nil {
		w.logger.Error("document persist failed after allocation",
			slog.String("doc_type", string(kind)),
			slog.String("scope", scope),
			slog.Int64("number", number),
			slog.Any("error", err))
		return Created{}, &PersistError{Number: number, Scope: scope, Err: err}
	}

	return Created{ID: id, Number: number, Scope: scope}, nil
}

// PeekNumber previews the number the next document of kind dated on date would get.
func (w *Writer) PeekNumber(ctx context.Context, kind numbering.DocType, date time.Time) (int64, string, error) {
	scope := w.policy.Key(date)
	n, err := w.alloc.Peek(ctx, kind, scope)
	if err != nil {
		return 0, "", err
	}
	return n, scope, nil
}
