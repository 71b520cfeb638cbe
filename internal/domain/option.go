package domain

import "time"

// Association source constants. They record which side of the pair initiated
// the attachment, so cascade removal can distinguish owner from option.
const (
	SourceAddedByProduct = "ADDED_BY_PRODUCT"
	SourceAddedByOption  = "ADDED_BY_OPTION"
)

// ProductOption links an option product to an owning product, with an optional
// per-association price override. At most one row exists per
// (product_id, option_id) pair.
type ProductOption struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	OptionID   string    `json:"option_id"`
	Price      *int64    `json:"price,omitempty"`
	PromoPrice *int64    `json:"promo_price,omitempty"`
	IsPromo    bool      `json:"is_promo"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidSources returns the set of valid association sources.
func ValidSources() []string {
	return []string{SourceAddedByProduct, SourceAddedByOption}
}

// IsValidSource checks whether the given source string is a valid association source.
func IsValidSource(source string) bool {
	for _, s := range ValidSources() {
		if s == source {
			return true
		}
	}
	return false
}

// OptionListRow is a flattened row for the admin options table.
type OptionListRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Ref      string `json:"ref"`
	Price    int64  `json:"price"`
	IsOnline bool   `json:"is_online"`
}

// ColumnDefinition describes one column of the admin options table.
type ColumnDefinition struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Orderable  bool   `json:"orderable"`
	Searchable bool   `json:"searchable"`
	// ORMName is the internal storage column backing this display column. It
	// is stripped from responses served to non-admin callers.
	ORMName string `json:"orm_name,omitempty"`
}
