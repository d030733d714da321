// Package challan manages truck manifests. A challan lists the consignments
// loaded on one vehicle for one trip and is numbered like a bilty.
package challan

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
)

// ErrNotFound indicates the requested challan does not exist.
var ErrNotFound = fmt.Errorf("challan %w", httpx.ErrNotFound)

// Item is one consignment loaded on the vehicle.
type Item struct {
	BiltyNumber int64           `json:"bilty_number,omitempty"`
	Consignor   string          `json:"consignor"`
	Consignee   string          `json:"consignee"`
	Packages    int             `json:"packages"`
	Weight      decimal.Decimal `json:"weight"`
	Freight     decimal.Decimal `json:"freight"`
}

// Challan is a persisted manifest.
type Challan struct {
	ID          int64           `json:"id"`
	Number      int64           `json:"number"`
	Scope       string          `json:"scope"`
	Date        time.Time       `json:"date"`
	VehicleNo   string          `json:"vehicle_no"`
	DriverName  string          `json:"driver_name,omitempty"`
	DriverPhone string          `json:"driver_phone,omitempty"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Items       []Item          `json:"items"`
	Advance     decimal.Decimal `json:"advance"`
	Freight     decimal.Decimal `json:"freight"`
	Balance     decimal.Decimal `json:"balance"`
	Remarks     string          `json:"remarks,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TotalFreight sums freight over all items.
func (c Challan) TotalFreight() decimal.Decimal {
	return lo.Reduce(c.Items, func(acc decimal.Decimal, it Item, _ int) decimal.Decimal {
		return acc.Add(it.Freight)
	}, decimal.Zero)
}

// TotalPackages sums packages over all items.
func (c Challan) TotalPackages() int {
	return lo.SumBy(c.Items, func(it Item) int { return it.Packages })
}

// TotalWeight sums weight over all items.
func (c Challan) TotalWeight() decimal.Decimal {
	return lo.Reduce(c.Items, func(acc decimal.Decimal, it Item, _ int) decimal.Decimal {
		return acc.Add(it.Weight)
	}, decimal.Zero)
}

func (c *Challan) computeTotals() {
	c.Freight = c.TotalFreight()
	c.Balance = c.Freight.Sub(c.Advance)
}

// ListFilter narrows List. Limit 0 returns every match.
type ListFilter struct {
	From      *time.Time
	To        *time.Time
	Scope     *string
	VehicleNo string
	Search    string
	Limit     int
	Offset    int
}
