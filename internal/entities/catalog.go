package entities

// CatalogItem is one orderable product of a business.
type CatalogItem struct {
	ID         int64   `json:"id"`
	BusinessID int64   `json:"business_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Available  bool    `json:"available"`
}
