package reservation

import (
	"context"
	"testing"
	"time"

	"rentify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveThenReadRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	base := baseFixture()

	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, base))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.NotNil(t, view)
	require.NotNil(t, view.Base)

	assert.Equal(t, base.Vehicle, view.Base.Vehicle)
	assert.Equal(t, base.PickupLocation, view.Base.PickupLocation)
	assert.Equal(t, base.ReturnLocation, view.Base.ReturnLocation)
	assert.True(t, base.PickupTime.Equal(view.Base.PickupTime))
	assert.True(t, base.ReturnTime.Equal(view.Base.ReturnTime))
	assert.Equal(t, models.StepExtras, view.Step)
	assert.InDelta(t, 165.00, view.Pricing.Total, 0.001)
}

func TestReadWithoutSessionReturnsNil(t *testing.T) {
	e := newEnv(t)
	view, err := e.svc.CompleteReservationData(context.Background(), testNS)
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestSaveValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.ReservationBase)
	}{
		{"missing pickup location", func(b *models.ReservationBase) { b.PickupLocation = "" }},
		{"missing vehicle", func(b *models.ReservationBase) { b.Vehicle = models.Vehicle{} }},
		{"vehicle without id", func(b *models.ReservationBase) { b.Vehicle.ID = "" }},
		{"vehicle without price", func(b *models.ReservationBase) { b.Vehicle.PricePerDay = 0 }},
		{"return before pickup", func(b *models.ReservationBase) { b.ReturnTime = b.PickupTime.Add(-time.Hour) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			base := baseFixture()
			tc.mutate(&base)
			err := e.svc.SaveReservationData(ctx, testNS, base)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestSaveResetsExistingSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))
	require.NoError(t, e.svc.UpdateExtras(ctx, testNS, []models.SelectedExtra{
		{ID: "gps", Name: "GPS navigation", UnitPricePerDay: 5, Quantity: 1},
	}, nil))

	e.advance(20 * time.Minute)
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Empty(t, view.Extras, "fresh base save discards previous slices")
	assert.Equal(t, models.StepExtras, view.Step)

	remaining, err := e.svc.Remaining(ctx, testNS)
	require.NoError(t, err)
	assert.Equal(t, testTTL, remaining, "fresh base save restarts the countdown")
}

func TestUpdateExtrasWithoutSession(t *testing.T) {
	e := newEnv(t)
	err := e.svc.UpdateExtras(context.Background(), testNS, []models.SelectedExtra{
		{ID: "gps", UnitPricePerDay: 5, Quantity: 1},
	}, nil)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestUpdateConductorWithoutSession(t *testing.T) {
	e := newEnv(t)
	err := e.svc.UpdateConductorData(context.Background(), testNS, conductorFixture())
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestConductorStrictValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	bad := conductorFixture()
	bad.Email = "not-an-email"
	err := e.svc.UpdateConductorData(ctx, testNS, bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, e.svc.UpdateConductorData(ctx, testNS, conductorFixture()))
	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.NotNil(t, view.Conductor)
	assert.Equal(t, "Juan", view.Conductor.FirstName)
	assert.Equal(t, models.StepPayment, view.Step)
}

func TestIntermediateConductorNeverErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// No session and no legacy blob: nothing to attach to.
	saved := e.svc.UpdateConductorDataIntermediate(ctx, testNS, models.Conductor{FirstName: "Juan"})
	assert.False(t, saved)

	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	assert.True(t, e.svc.UpdateConductorDataIntermediate(ctx, testNS, models.Conductor{FirstName: "Juan"}))
	assert.True(t, e.svc.UpdateConductorDataIntermediate(ctx, testNS, models.Conductor{LastName: "García"}))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.NotNil(t, view.Conductor)
	assert.Equal(t, "Juan", view.Conductor.FirstName)
	assert.Equal(t, "García", view.Conductor.LastName)
	assert.Equal(t, models.StepExtras, view.Step, "intermediate writes do not advance the flow")
}

func TestStepAdvancesForwardOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))

	// Completing from the extras step is not a legal transition.
	err := e.svc.MarkCompleted(ctx, testNS)
	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "invalidStepTransition", serr.Code)

	require.NoError(t, e.svc.UpdateExtras(ctx, testNS, nil, nil))
	require.NoError(t, e.svc.UpdateConductorData(ctx, testNS, conductorFixture()))
	require.NoError(t, e.svc.MarkCompleted(ctx, testNS))

	view, err := e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, view.Step)

	// A driver write against a completed session is refused without mutating
	// the stored record.
	other := conductorFixture()
	other.FirstName = "Ana"
	err = e.svc.UpdateConductorData(ctx, testNS, other)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "invalidStepTransition", serr.Code)

	view, err = e.svc.CompleteReservationData(ctx, testNS)
	require.NoError(t, err)
	require.NotNil(t, view.Conductor)
	assert.Equal(t, "Juan", view.Conductor.FirstName)
}

func TestCompletedSessionStaysActiveWithoutTimer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.SaveReservationData(ctx, testNS, baseFixture()))
	require.NoError(t, e.svc.UpdateExtras(ctx, testNS, nil, nil))
	require.NoError(t, e.svc.UpdateConductorData(ctx, testNS, conductorFixture()))
	require.NoError(t, e.svc.MarkCompleted(ctx, testNS))

	_, ok, err := e.store.Load(ctx, testNS, keyTimerStart)
	require.NoError(t, err)
	assert.False(t, ok, "completed sessions drop the countdown")

	e.advance(2 * time.Hour)
	assert.True(t, e.svc.HasActiveReservation(ctx, testNS))
}
