package domain

import "time"

// customizationControlKeys are form-plumbing keys that must never be stored
// as part of a customization payload.
var customizationControlKeys = []string{
	"optionId",
	"optionCode",
	"error_message",
	"success_url",
	"error_url",
}

// OptionSelection records that an option was chosen for a cart item, together
// with the customer's customization payload and immutable price snapshots taken
// at selection time. At most one row exists per (cart_item_id, product_option_id).
type OptionSelection struct {
	ID                string         `json:"id"`
	CartItemID        string         `json:"cart_item_id"`
	ProductOptionID   string         `json:"product_option_id"`
	Price             int64          `json:"price"`
	TaxedPrice        int64          `json:"taxed_price"`
	Quantity          int            `json:"quantity"`
	CustomizationData map[string]any `json:"customization_data,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// SanitizeCustomization returns a copy of the form data with control keys
// removed, leaving only the customer-entered customization values.
func SanitizeCustomization(formData map[string]any) map[string]any {
	if formData == nil {
		return nil
	}
	out := make(map[string]any, len(formData))
	for k, v := range formData {
		out[k] = v
	}
	for _, key := range customizationControlKeys {
		delete(out, key)
	}
	return out
}
