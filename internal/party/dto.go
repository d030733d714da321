package party

// Request is the body for creating or replacing a party.
type Request struct {
	Name    string `json:"name" validate:"required,max=200"`
	GSTIN   string `json:"gstin" validate:"required,gstin"`
	Type    Type   `json:"type" validate:"omitempty,oneof=consignor consignee both broker"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"omitempty,max=500"`
	City    string `json:"city" validate:"omitempty,max=100"`
	State   string `json:"state" validate:"omitempty,max=100"`
	Notes   string `json:"notes" validate:"omitempty,max=1000"`
}

// ListFilter narrows List. Limit 0 returns every match.
type ListFilter struct {
	Search string
	Type   Type
	Limit  int
	Offset int
}
