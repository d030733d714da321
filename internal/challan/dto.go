package challan

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/shared"
)

// ItemInput is one item of a request.
type ItemInput struct {
	BiltyNumber int64           `json:"bilty_number" validate:"gte=0"`
	Consignor   string          `json:"consignor" validate:"max=200"`
	Consignee   string          `json:"consignee" validate:"required,max=200"`
	Packages    int             `json:"packages" validate:"gte=0"`
	Weight      decimal.Decimal `json:"weight"`
	Freight     decimal.Decimal `json:"freight"`
}

// Request is the body for creating or replacing a challan.
type Request struct {
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	VehicleNo   string          `json:"vehicle_no" validate:"required,vehicle"`
	DriverName  string          `json:"driver_name" validate:"omitempty,max=100"`
	DriverPhone string          `json:"driver_phone" validate:"omitempty,max=30"`
	From        string          `json:"from" validate:"required,max=100"`
	To          string          `json:"to" validate:"required,max=100"`
	Items       []ItemInput     `json:"items" validate:"min=1,dive"`
	Advance     decimal.Decimal `json:"advance"`
	Remarks     string          `json:"remarks" validate:"omitempty,max=1000"`

	region string
}

// Validate checks required fields and amounts. A challan needs at least one item.
func (r Request) Validate() error {
	verr := documents.NewValidationError()
	shared.ValidateInto(r, verr)

	verr.Check(!r.Advance.IsNegative(), "advance", "must not be negative")
	for i, it := range r.Items {
		prefix := "items[" + strconv.Itoa(i) + "]."
		verr.Check(!it.Weight.IsNegative(), prefix+"weight", "must not be negative")
		verr.Check(!it.Freight.IsNegative(), prefix+"freight", "must not be negative")
	}
	if r.DriverPhone != "" {
		if _, err := shared.NormalizePhone(r.DriverPhone, r.region); err != nil {
			verr.Add("driver_phone", "must be a valid phone number")
		}
	}
	return verr.Err()
}

// DocumentDate implements documents.Payload. Callers validate first.
func (r Request) DocumentDate() time.Time {
	d, _ := shared.ParseDate(r.Date)
	return d
}

func (r *Request) normalize(region string) {
	r.region = region
	r.Date = strings.TrimSpace(r.Date)
	r.VehicleNo = documents.NormalizeVehicleNo(r.VehicleNo)
	r.DriverName = strings.TrimSpace(r.DriverName)
	r.DriverPhone = strings.TrimSpace(r.DriverPhone)
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)
	for i := range r.Items {
		r.Items[i].Consignor = strings.TrimSpace(r.Items[i].Consignor)
		r.Items[i].Consignee = strings.TrimSpace(r.Items[i].Consignee)
	}
}

// apply copies request fields onto c. Identity fields are left alone.
func (r Request) apply(c *Challan) {
	c.Date = r.DocumentDate()
	c.VehicleNo = r.VehicleNo
	c.DriverName = r.DriverName
	c.DriverPhone = ""
	if r.DriverPhone != "" {
		c.DriverPhone, _ = shared.NormalizePhone(r.DriverPhone, r.region)
	}
	c.From = r.From
	c.To = r.To
	c.Items = make([]Item, len(r.Items))
	for i, it := range r.Items {
		c.Items[i] = Item(it)
	}
	c.Advance = r.Advance
	c.Remarks = strings.TrimSpace(r.Remarks)
	c.computeTotals()
}
