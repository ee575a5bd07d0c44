package models

// ItemValidationRequest validates a batch of item codes
type ItemValidationRequest struct {
	ItemCodes []string `json:"item_codes" validate:"required"`
}

// ItemValidationResult reports which item codes were accepted
type ItemValidationResult struct {
	TotalChecked     int      `json:"total_checked"`
	ValidItemCodes   []string `json:"valid_item_codes"`
	InvalidItemCodes []string `json:"invalid_item_codes"`
	Message          string   `json:"message,omitempty"`
}

// AllValid reports whether every checked item code was accepted
func (r *ItemValidationResult) AllValid() bool {
	return len(r.InvalidItemCodes) == 0
}
