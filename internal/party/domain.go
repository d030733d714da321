// Package party maintains the customer directory: consignors, consignees and
// brokers the carrier issues documents for.
package party

import (
	"fmt"
	"time"

	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
)

// Type classifies how a party appears on documents.
type Type string

const (
	TypeConsignor Type = "consignor"
	TypeConsignee Type = "consignee"
	TypeBoth      Type = "both"
	TypeBroker    Type = "broker"
)

// IsValid checks if the party type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeConsignor, TypeConsignee, TypeBoth, TypeBroker:
		return true
	default:
		return false
	}
}

// ErrNotFound indicates the requested party does not exist.
var ErrNotFound = fmt.Errorf("party %w", httpx.ErrNotFound)

// Party is a directory entry. GSTIN is a required 15 character tax id.
// Phone is stored in E.164 form.
type Party struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GSTIN     string    `json:"gstin"`
	Type      Type      `json:"type"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result wraps a saved party with non-fatal policy warnings.
type Result struct {
	Party    Party    `json:"party"`
	Warnings []string `json:"warnings,omitempty"`
}
