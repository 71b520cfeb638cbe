package domain

import "time"

// Product is the catalog projection this service works with. Options are
// themselves products, gathered under a dedicated hidden category.
type Product struct {
	ID        string    `json:"id"`
	Ref       string    `json:"ref"`
	Title     string    `json:"title"`
	IsOnline  bool      `json:"is_online"`
	TaxRuleID *string   `json:"tax_rule_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductPrice is the default sale price record of a product.
type ProductPrice struct {
	ProductID  string `json:"product_id"`
	Price      int64  `json:"price"`
	PromoPrice int64  `json:"promo_price"`
	IsPromo    bool   `json:"is_promo"`
	Currency   string `json:"currency"`
}

// UnitPrice returns the requested unit price: the promo price when promo is
// asked for, the regular price otherwise. A record carries both amounts; the
// IsPromo flag marks the active promotion but does not gate the selection.
func (p *ProductPrice) UnitPrice(promo bool) int64 {
	if promo {
		return p.PromoPrice
	}
	return p.Price
}

// CartItem is the cart line an option surcharge is folded into. Price and
// PromoPrice are per-unit amounts in cents.
type CartItem struct {
	ID         string    `json:"id"`
	CartID     string    `json:"cart_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	Price      int64     `json:"price"`
	PromoPrice int64     `json:"promo_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Category is a catalog category. The service owns one hidden category that
// groups all option products.
type Category struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Locale    string    `json:"locale"`
	IsVisible bool      `json:"is_visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
