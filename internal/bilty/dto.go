package bilty

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/shared"
)

// PartyInput names a party either by directory id or by free text.
type PartyInput struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required,max=200"`
	GSTIN string `json:"gstin" validate:"omitempty,gstin"`
}

// GoodsInput is one goods line of a request.
type GoodsInput struct {
	Description string          `json:"description" validate:"required,max=200"`
	Packages    int             `json:"packages" validate:"gte=0"`
	Weight      decimal.Decimal `json:"weight"`
}

// Request is the body for creating or replacing a bilty.
type Request struct {
	Date         string          `json:"date" validate:"required,datetime=2006-01-02"`
	Consignor    PartyInput      `json:"consignor"`
	Consignee    PartyInput      `json:"consignee"`
	From         string          `json:"from" validate:"required,max=100"`
	To           string          `json:"to" validate:"required,max=100"`
	Goods        []GoodsInput    `json:"goods" validate:"min=1,dive"`
	Freight      decimal.Decimal `json:"freight"`
	Hamali       decimal.Decimal `json:"hamali"`
	OtherCharges decimal.Decimal `json:"other_charges"`
	PaymentMode  PaymentMode     `json:"payment_mode" validate:"omitempty,oneof=to_pay paid to_be_billed"`
	InvoiceNo    string          `json:"invoice_no" validate:"omitempty,max=50"`
	InvoiceValue decimal.Decimal `json:"invoice_value"`
	VehicleNo    string          `json:"vehicle_no" validate:"omitempty,vehicle"`
	Remarks      string          `json:"remarks" validate:"omitempty,max=1000"`
}

// Validate checks required fields, amounts and tax ids. It never touches storage.
func (r Request) Validate() error {
	verr := documents.NewValidationError()
	shared.ValidateInto(r, verr)

	nonNegative := func(field string, d decimal.Decimal) {
		verr.Check(!d.IsNegative(), field, "must not be negative")
	}
	nonNegative("freight", r.Freight)
	nonNegative("hamali", r.Hamali)
	nonNegative("other_charges", r.OtherCharges)
	nonNegative("invoice_value", r.InvoiceValue)
	for i, g := range r.Goods {
		nonNegative("goods["+strconv.Itoa(i)+"].weight", g.Weight)
	}
	return verr.Err()
}

// DocumentDate implements documents.Payload. Callers validate first.
func (r Request) DocumentDate() time.Time {
	d, _ := shared.ParseDate(r.Date)
	return d
}

func (r *Request) normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)
	r.Consignor.Name = strings.TrimSpace(r.Consignor.Name)
	r.Consignee.Name = strings.TrimSpace(r.Consignee.Name)
	r.Consignor.GSTIN = documents.NormalizeGSTIN(r.Consignor.GSTIN)
	r.Consignee.GSTIN = documents.NormalizeGSTIN(r.Consignee.GSTIN)
	if r.VehicleNo != "" {
		r.VehicleNo = documents.NormalizeVehicleNo(r.VehicleNo)
	}
	if r.PaymentMode == "" {
		r.PaymentMode = PaymentToPay
	}
}

// apply copies request fields onto b. Identity fields are left alone.
func (r Request) apply(b *Bilty) {
	b.Date = r.DocumentDate()
	b.Consignor = partyRef(r.Consignor)
	b.Consignee = partyRef(r.Consignee)
	b.From = r.From
	b.To = r.To
	b.Goods = make([]GoodsLine, len(r.Goods))
	for i, g := range r.Goods {
		b.Goods[i] = GoodsLine{Description: strings.TrimSpace(g.Description), Packages: g.Packages, Weight: g.Weight}
	}
	b.Freight = r.Freight
	b.Hamali = r.Hamali
	b.OtherCharges = r.OtherCharges
	b.PaymentMode = r.PaymentMode
	b.InvoiceNo = strings.TrimSpace(r.InvoiceNo)
	b.InvoiceValue = r.InvoiceValue
	b.VehicleNo = r.VehicleNo
	b.Remarks = strings.TrimSpace(r.Remarks)
	b.Total = b.ComputeTotal()
}

func partyRef(in PartyInput) PartyRef {
	ref := PartyRef{Name: in.Name, GSTIN: in.GSTIN}
	if in.ID > 0 {
		id := in.ID
		ref.ID = &id
	}
	return ref
}
