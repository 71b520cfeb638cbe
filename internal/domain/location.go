package domain

// Country is a delivery country, identified by its ISO alpha-2 code.
type Country struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// State is an optional delivery subdivision within a country.
type State struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}
