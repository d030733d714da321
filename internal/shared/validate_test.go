package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carrierdesk/carrierdesk/internal/documents"
)

type sampleLine struct {
	Description string `json:"description" validate:"required"`
}

type sampleForm struct {
	Name    string       `json:"name" validate:"required"`
	GSTIN   string       `json:"gstin" validate:"omitempty,gstin"`
	Vehicle string       `json:"vehicle_no" validate:"omitempty,vehicle"`
	Mode    string       `json:"mode" validate:"oneof=to_pay paid"`
	Lines   []sampleLine `json:"lines" validate:"min=1,dive"`
}

func TestValidateIntoCollectsFields(t *testing.T) {
	verr := documents.NewValidationError()
	ValidateInto(sampleForm{
		GSTIN:   "27AAPFU0939F1Z",
		Vehicle: "not a truck",
		Mode:    "cash",
		Lines:   []sampleLine{{}},
	}, verr)

	assert.Equal(t, "is required", verr.Fields["name"])
	assert.Equal(t, "must be a 15 character GSTIN", verr.Fields["gstin"])
	assert.Equal(t, "must be a vehicle registration number", verr.Fields["vehicle_no"])
	assert.Equal(t, "must be one of to_pay paid", verr.Fields["mode"])
	assert.Equal(t, "is required", verr.Fields["lines[0].description"])
}

func TestValidateIntoAcceptsValidForm(t *testing.T) {
	verr := documents.NewValidationError()
	ValidateInto(sampleForm{
		Name:    "Sharma Traders",
		GSTIN:   "27aapfu0939f1zv",
		Vehicle: "MH 12 AB 1234",
		Mode:    "paid",
		Lines:   []sampleLine{{Description: "cartons"}},
	}, verr)
	assert.NoError(t, verr.Err())
}

func TestValidateIntoEmptySlice(t *testing.T) {
	verr := documents.NewValidationError()
	ValidateInto(sampleForm{Name: "x", Mode: "paid"}, verr)
	assert.Equal(t, "must have at least 1 entries", verr.Fields["lines"])
}
