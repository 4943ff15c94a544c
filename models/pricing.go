package models

import "math"

// PricingBreakdown is derived from the base reservation and the selected
// extras. It is recomputable at any time and never the source of truth.
type PricingBreakdown struct {
	BaseBeforeTax float64 `json:"baseBeforeTax"`
	TaxAmount     float64 `json:"taxAmount"`
	ExtrasTotal   float64 `json:"extrasTotal"`
	Discount      float64 `json:"discount"`
	Total         float64 `json:"total"`
}

// Round2 rounds a monetary amount to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputePricing recomputes the full breakdown for a base reservation and its
// extras. The tax rate comes from the vehicle record.
func ComputePricing(base ReservationBase, extras []SelectedExtra) PricingBreakdown {
	days := base.RentalDays()

	beforeTax := base.Vehicle.PricePerDay * float64(days)
	if base.Protection != nil {
		beforeTax += base.Protection.PricePerDay * float64(days)
	}
	beforeTax = Round2(beforeTax)

	tax := Round2(beforeTax * base.Vehicle.TaxRate)

	extrasTotal := 0.0
	for _, e := range extras {
		extrasTotal += e.UnitPricePerDay * float64(e.Quantity) * float64(days)
	}
	extrasTotal = Round2(extrasTotal)

	discount := 0.0
	if base.Pricing != nil {
		discount = base.Pricing.Discount
	}

	return PricingBreakdown{
		BaseBeforeTax: beforeTax,
		TaxAmount:     tax,
		ExtrasTotal:   extrasTotal,
		Discount:      discount,
		Total:         Round2(beforeTax + tax + extrasTotal - discount),
	}
}
