package reservation

import (
	"context"
	"encoding/json"
	"testing"

	"rentify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateExtrasRecomputesPricing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	require.NoError(t, e.svc.UpdateExtras(ctx, testNS, []models.SelectedExtra{
		{ID: "gps", Name: "GPS navigation", UnitPricePerDay: 10, Quantity: 1},
	}, nil))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.NotNil(t, view)
	// 150 base + 15 tax + 30 extras over 3 days.
	assert.InDelta(t, 195.00, view.Pricing.Total, 0.001)
	assert.InDelta(t, 30.00, view.Pricing.ExtrasTotal, 0.001)
	assert.Equal(t, models.StepConductor, view.Step)
}

func TestUpdateExtrasMergesPricingHint(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	hint := &models.PricingBreakdown{
		BaseBeforeTax: 150,
		TaxAmount:     15,
		ExtrasTotal:   30,
		Discount:      10,
		Total:         185,
	}
	require.NoError(t, e.svc.UpdateExtras(ctx, testNS, []models.SelectedExtra{
		{ID: "gps", Name: "GPS navigation", UnitPricePerDay: 10, Quantity: 1},
	}, hint))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	assert.Equal(t, *hint, view.Pricing, "a supplied breakdown is used as-is on later reads")
}

func TestUpdateExtrasAfterPaymentStepLeavesSessionUntouched(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))
	require.NoError(t, e.svc.UpdateExtras(ctx, testNS, []models.SelectedExtra{
		{ID: "gps", Name: "GPS navigation", UnitPricePerDay: 5, Quantity: 1},
	}, nil))
	require.NoError(t, e.svc.UpdateConductorData(ctx, testNS, conductorFixture()))

	// Re-submitting extras from the payment step is a backward transition;
	// the refusal must not mutate the stored slices or the pricing.
	err := e.svc.UpdateExtras(ctx, testNS, []models.SelectedExtra{
		{ID: "child-seat", Name: "Child seat", UnitPricePerDay: 7.5, Quantity: 2},
	}, nil)
	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "invalidStepTransition", serr.Code)

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.Len(t, view.Extras, 1)
	assert.Equal(t, "gps", view.Extras[0].ID)
	assert.InDelta(t, 15.00, view.Pricing.ExtrasTotal, 0.001)
	assert.InDelta(t, 180.00, view.Pricing.Total, 0.001)
	assert.Equal(t, models.StepPayment, view.Step)
}

func TestUpdateExtrasValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	tests := []struct {
		name   string
		extras []models.SelectedExtra
	}{
		{"zero quantity", []models.SelectedExtra{{ID: "gps", UnitPricePerDay: 5, Quantity: 0}}},
		{"negative price", []models.SelectedExtra{{ID: "gps", UnitPricePerDay: -1, Quantity: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := e.svc.UpdateExtras(ctx, testNS, tc.extras, nil)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestLegacyBareIDExtrasAreRehydrated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	// An older client persisted identifiers only, including one the catalog
	// no longer offers.
	stored, err := json.Marshal([]models.SelectedExtra{
		{ID: "gps", Quantity: 1},
		{ID: "roof-box", Quantity: 1},
	})
	require.NoError(t, err)
	require.NoError(t, e.store.Save(ctx, testNS, keyExtras, stored))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.Len(t, view.Extras, 1, "unresolvable ids are dropped, not fatal")
	assert.Equal(t, "GPS navigation", view.Extras[0].Name)
	assert.InDelta(t, 5.0, view.Extras[0].UnitPricePerDay, 0.001)
	assert.Equal(t, 1, e.catalog.calls)

	// The hydrated list is persisted; further reads skip the catalog.
	_, err = e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	assert.Equal(t, 1, e.catalog.calls)
}

func TestPricingRebuiltAroundBareTotal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// A migrated session may carry only a total.
	base := baseFixture()
	base.Pricing = &models.PricingBreakdown{Total: 171.5}
	data, err := json.Marshal(base)
	require.NoError(t, err)
	require.NoError(t, e.store.Save(ctx, testNS, keyBase, data))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.InDelta(t, 150.00, view.Pricing.BaseBeforeTax, 0.001)
	assert.InDelta(t, 15.00, view.Pricing.TaxAmount, 0.001)
	assert.InDelta(t, 171.5, view.Pricing.Total, 0.001, "the stored total wins over the recomputed one")
}

func TestLegacyViewAdapter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)

	legacy := models.ToLegacyView(*view)
	assert.InDelta(t, 165.00, legacy.DetallesReserva.Total, 0.001)
	require.NotNil(t, legacy.Coche)
	assert.Equal(t, "veh-1", legacy.Coche.ID)
	assert.Equal(t, "Madrid", legacy.LugarRecogida)
}
