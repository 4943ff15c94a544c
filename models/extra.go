package models

// CatalogExtra is an add-on as served by the extras catalog.
type CatalogExtra struct {
	ID          string  `bson:"id" json:"id"`
	Name        string  `bson:"name" json:"name"`
	PricePerDay float64 `bson:"price_per_day" json:"pricePerDay"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
}
