// Package reminder builds click-to-chat payment reminders for parties with
// unpaid to-pay bilties and keeps a log of what was sent.
package reminder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sources of a reminder.
const (
	SourceManual = "manual"
	SourceDigest = "digest"
)

// Reminder is one generated chat link.
type Reminder struct {
	ID        uuid.UUID       `json:"id"`
	PartyID   int64           `json:"party_id"`
	Amount    decimal.Decimal `json:"amount"`
	Link      string          `json:"link"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
}

// Outstanding is the to-pay balance of one consignee.
type Outstanding struct {
	PartyID   int64           `json:"party_id"`
	PartyName string          `json:"party_name"`
	Phone     string          `json:"phone,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Bilties   []string        `json:"bilties"`
}

// SendRequest is the body of a manual reminder. A zero amount means the
// party's current outstanding balance.
type SendRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Bilties []string        `json:"bilties"`
}
