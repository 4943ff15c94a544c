package models

// Vehicle is a rentable vehicle as served by the catalog.
type Vehicle struct {
	// The validate tags are enforced on strict session writes; a base
	// reservation must carry a priced, identifiable vehicle.
	ID           string  `bson:"id" json:"id" validate:"required"`
	Name         string  `bson:"name" json:"name" validate:"required"`
	Category     string  `bson:"category" json:"category"`
	Transmission string  `bson:"transmission" json:"transmission"`
	Seats        int     `bson:"seats" json:"seats"`
	PricePerDay  float64 `bson:"price_per_day" json:"pricePerDay" validate:"gt=0"`
	// TaxRate is the VAT rate applied to this vehicle's base price. Pricing
	// always reads it from here, never from a constant.
	TaxRate  float64 `bson:"tax_rate" json:"taxRate" validate:"gte=0"`
	ImageURL string  `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
}

// ProtectionPolicy is the coverage option chosen with the vehicle.
type ProtectionPolicy struct {
	ID          string  `bson:"id" json:"id"`
	Name        string  `bson:"name" json:"name"`
	PricePerDay float64 `bson:"price_per_day" json:"pricePerDay"`
}
