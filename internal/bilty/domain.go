// Package bilty manages consignment notes. Each bilty gets its number from the
// shared allocator at creation and keeps it for life.
package bilty

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
)

// PaymentMode records who pays the freight.
type PaymentMode string

const (
	PaymentToPay      PaymentMode = "to_pay"
	PaymentPaid       PaymentMode = "paid"
	PaymentToBeBilled PaymentMode = "to_be_billed"
)

// ErrNotFound indicates the requested bilty does not exist.
var ErrNotFound = fmt.Errorf("bilty %w", httpx.ErrNotFound)

// PartyRef is the consignor or consignee as printed on the bilty. Name and GSTIN
// are copied from the directory at save time so later edits there do not
// rewrite issued documents.
type PartyRef struct {
	ID    *int64 `json:"id,omitempty"`
	Name  string `json:"name"`
	GSTIN string `json:"gstin,omitempty"`
}

// GoodsLine is one consignment line.
type GoodsLine struct {
	Description string          `json:"description"`
	Packages    int             `json:"packages"`
	Weight      decimal.Decimal `json:"weight"`
}

// Bilty is a persisted consignment note.
type Bilty struct {
	ID           int64           `json:"id"`
	Number       int64           `json:"number"`
	Scope        string          `json:"scope"`
	Date         time.Time       `json:"date"`
	Consignor    PartyRef        `json:"consignor"`
	Consignee    PartyRef        `json:"consignee"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Goods        []GoodsLine     `json:"goods"`
	Freight      decimal.Decimal `json:"freight"`
	Hamali       decimal.Decimal `json:"hamali"`
	OtherCharges decimal.Decimal `json:"other_charges"`
	Total        decimal.Decimal `json:"total"`
	PaymentMode  PaymentMode     `json:"payment_mode"`
	InvoiceNo    string          `json:"invoice_no,omitempty"`
	InvoiceValue decimal.Decimal `json:"invoice_value"`
	VehicleNo    string          `json:"vehicle_no,omitempty"`
	Remarks      string          `json:"remarks,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ComputeTotal returns freight plus hamali plus other charges.
func (b Bilty) ComputeTotal() decimal.Decimal {
	return b.Freight.Add(b.Hamali).Add(b.OtherCharges)
}

// TotalPackages sums packages over all goods lines.
func (b Bilty) TotalPackages() int {
	return lo.SumBy(b.Goods, func(g GoodsLine) int { return g.Packages })
}

// TotalWeight sums weight over all goods lines.
func (b Bilty) TotalWeight() decimal.Decimal {
	return lo.Reduce(b.Goods, func(acc decimal.Decimal, g GoodsLine, _ int) decimal.Decimal {
		return acc.Add(g.Weight)
	}, decimal.Zero)
}

// ListFilter narrows List. Limit 0 returns every match.
type ListFilter struct {
	From        *time.Time
	To          *time.Time
	Scope       *string
	PartyID     int64
	PaymentMode PaymentMode
	Search      string
	Limit       int
	Offset      int
}
