package numbering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxAttempts bounds the read/commit loop.
const DefaultMaxAttempts = 5

// Allocator hands out the next number for a (doc type, scope).
type Allocator struct {
	store       Store
	maxAttempts int
	newBackOff  func() backoff.BackOff
	metrics     *Metrics
	logger      *slog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMaxAttempts sets the number of read/commit attempts before giving up.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithBackOff overrides the wait policy between conflicting attempts.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(a *Allocator) {
		if fn != nil {
			a.newBackOff = fn
		}
	}
}

// WithMetrics records allocations and conflicts.
func WithMetrics(m *Metrics) Option {
	return func(a *Allocator) { a.metrics = m }
}

// WithLogger sets the logger used for contention warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAllocator constructs an allocator over store.
func NewAllocator(store Store, opts ...Option) *Allocator {
	a := &Allocator{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		newBackOff:  defaultBackOff,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 80 * time.Millisecond
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	return b
}

// Next reserves and returns the next number. The returned number is consumed even if
// the caller later fails to persist its document.
func (a *Allocator) Next(ctx context.Context, docType DocType, scope string) (int64, error) {
	if !docType.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDocType, docType)
	}

	var (
		allocated int64
		attempts  int
	)
	op := func() error {
		attempts++
		current, _, err := a.store.Read(ctx, docType, scope)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read counter: %w", err))
		}
		candidate := current + 1
		err = a.store.Commit(ctx, docType, scope, current, candidate)
		if errors.Is(err, ErrConflict) {
			a.metrics.conflict(docType)
			return err
		}
		if err != nil {
			return backoff.Permanent(fmt.Errorf("commit counter: %w", err))
		}
		allocated = candidate
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), uint64(a.maxAttempts-1)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, ErrConflict) {
			a.metrics.contention(docType)
			a.logger.Warn("number allocation exhausted retries",
				slog.String("doc_type", string(docType)),
				slog.String("scope", scope),
				slog.Int("attempts", attempts))
			return 0, fmt.Errorf("%w: %s scope %q after %d attempts", ErrContention, docType, scope, attempts)
		}
		return 0, err
	}

	a.metrics.allocated(docType)
	return allocated, nil
}

// Peek returns the number the next successful allocation would receive right now.
// It reserves nothing and is only meant for display on entry forms.
func (a *Allocator) Peek(ctx context.Context, docType DocType, scope string) (int64, error) {
	if !docType.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDocType, docType)
	}
	current, _, err := a.store.Read(ctx, docType, scope)
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return current + 1, nil
}
