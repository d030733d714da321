// Package numbering allocates unique, strictly increasing document numbers per
// document type and scope. Counters live in a shared store and are advanced with
// compare-and-swap commits, so several service instances can allocate concurrently
// without sharing process state.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DocType identifies an independently numbered document family.
type DocType string

const (
	DocBilty   DocType = "bilty"
	DocChallan DocType = "challan"
)

// IsValid checks if the document type is known.
func (t DocType) IsValid() bool {
	switch t {
	case DocBilty, DocChallan:
		return true
	default:
		return false
	}
}

var (
	// ErrConflict is returned by Store.Commit when the stored value no longer equals prev.
	ErrConflict = errors.New("numbering: counter changed concurrently")
	// ErrContention is returned by Allocator.Next when every attempt hit a conflict.
	ErrContention = errors.New("numbering: allocation contention")
	// ErrInvalidDocType is returned for unknown document types.
	ErrInvalidDocType = errors.New("numbering: invalid document type")
	// ErrNotMonotonic is returned when a commit would not increase the counter.
	ErrNotMonotonic = errors.New("numbering: counter must only increase")
)

// Store persists one counter per (doc type, scope).
//
// Read returns found=false when no counter exists yet; callers treat that as 0.
// Commit must be atomic: it stores next only if the current value still equals prev
// (prev == 0 also matches an absent counter, which is then created) and returns
// ErrConflict otherwise.
type Store interface {
	Read(ctx context.Context, docType DocType, scope string) (value int64, found bool, err error)
	Commit(ctx context.Context, docType DocType, scope string, prev, next int64) error
}

// ScopePolicy decides how a document date maps to a numbering scope.
type ScopePolicy string

const (
	// ScopeFiscalYear restarts numbering every Indian fiscal year (April to March), key "2024-25".
	ScopeFiscalYear ScopePolicy = "fiscal_year"
	// ScopeCalendarYear restarts numbering every January, key "2024".
	ScopeCalendarYear ScopePolicy = "calendar_year"
	// ScopeGlobal never restarts, key "".
	ScopeGlobal ScopePolicy = "global"
)

// ParseScopePolicy validates a configured policy name.
func ParseScopePolicy(s string) (ScopePolicy, error) {
	switch p := ScopePolicy(s); p {
	case ScopeFiscalYear, ScopeCalendarYear, ScopeGlobal:
		return p, nil
	default:
		return "", fmt.Errorf("numbering: unknown scope policy %q", s)
	}
}

// Key returns the scope key for a document dated on date.
func (p ScopePolicy) Key(date time.Time) string {
	switch p {
	case ScopeFiscalYear:
		y := date.Year()
		if date.Month() < time.April {
			y--
		}
		return fmt.Sprintf("%d-%02d", y, (y+1)%100)
	case ScopeCalendarYear:
		return fmt.Sprintf("%d", date.Year())
	default:
		return ""
	}
}

func checkCommit(docType DocType, prev, next int64) error {
	if !docType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDocType, docType)
	}
	if prev < 0 || next <= prev {
		return fmt.Errorf("%w: %d -> %d", ErrNotMonotonic, prev, next)
	}
	return nil
}
