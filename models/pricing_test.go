package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func pricingBase(days int) ReservationBase {
	pickup := time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)
	return ReservationBase{
		Vehicle: Vehicle{
			ID:          "veh-1",
			Name:        "Seat Ibiza",
			PricePerDay: 50,
			TaxRate:     0.10,
		},
		PickupLocation: "Madrid",
		ReturnLocation: "Madrid",
		PickupTime:     pickup,
		ReturnTime:     pickup.Add(time.Duration(days) * 24 * time.Hour),
	}
}

func TestComputePricingBaseOnly(t *testing.T) {
	p := ComputePricing(pricingBase(3), nil)

	assert.InDelta(t, 150.00, p.BaseBeforeTax, 0.001)
	assert.InDelta(t, 15.00, p.TaxAmount, 0.001)
	assert.InDelta(t, 0.0, p.ExtrasTotal, 0.001)
	assert.InDelta(t, 165.00, p.Total, 0.001)
}

func TestComputePricingWithExtras(t *testing.T) {
	p := ComputePricing(pricingBase(3), []SelectedExtra{
		{ID: "gps", UnitPricePerDay: 10, Quantity: 1},
	})

	assert.InDelta(t, 30.00, p.ExtrasTotal, 0.001)
	assert.InDelta(t, 195.00, p.Total, 0.001)
}

func TestComputePricingWithProtection(t *testing.T) {
	base := pricingBase(3)
	base.Protection = &ProtectionPolicy{ID: "full", Name: "Full cover", PricePerDay: 12}

	p := ComputePricing(base, nil)

	// (50 + 12) * 3 days, taxed at the vehicle rate.
	assert.InDelta(t, 186.00, p.BaseBeforeTax, 0.001)
	assert.InDelta(t, 18.60, p.TaxAmount, 0.001)
	assert.InDelta(t, 204.60, p.Total, 0.001)
}

func TestComputePricingCarriesDiscount(t *testing.T) {
	base := pricingBase(3)
	base.Pricing = &PricingBreakdown{Discount: 20}

	p := ComputePricing(base, nil)

	assert.InDelta(t, 20.00, p.Discount, 0.001)
	assert.InDelta(t, 145.00, p.Total, 0.001)
}

func TestComputePricingQuantityAndRounding(t *testing.T) {
	base := pricingBase(3)
	base.Vehicle.PricePerDay = 33.33
	base.Vehicle.TaxRate = 0.21

	p := ComputePricing(base, []SelectedExtra{
		{ID: "child-seat", UnitPricePerDay: 7.5, Quantity: 2},
	})

	assert.InDelta(t, 99.99, p.BaseBeforeTax, 0.001)
	assert.InDelta(t, 21.00, p.TaxAmount, 0.001, "tax is rounded before summing")
	assert.InDelta(t, 45.00, p.ExtrasTotal, 0.001)
	assert.InDelta(t, 165.99, p.Total, 0.001)
}

func TestRentalDays(t *testing.T) {
	pickup := time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		ret    time.Time
		expect int
	}{
		{"exact three days", pickup.Add(72 * time.Hour), 3},
		{"partial day rounds up", pickup.Add(50 * time.Hour), 3},
		{"same day counts as one", pickup.Add(2 * time.Hour), 1},
		{"zero duration counts as one", pickup, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			base := pricingBase(1)
			base.ReturnTime = tc.ret
			assert.Equal(t, tc.expect, base.RentalDays())
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{165.004, 165.00},
		{165.006, 165.01},
		{-0.005, -0.01},
		{0, 0},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, Round2(tc.in), 0.0001)
	}
}
