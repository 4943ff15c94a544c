package payment

import (
	"context"
	"fmt"

	"rentify/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// SubmissionService receives the fully consolidated reservation and charges
// it. The session manager never calls this directly; it only supplies the
// read model.
type SubmissionService interface {
	SubmitReservation(ctx context.Context, view models.ReservationView, email string) (*Receipt, error)
}

// Receipt is the outcome of a submitted reservation.
type Receipt struct {
	PaymentID string  `json:"paymentId"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// StripeSubmissionService implements SubmissionService on Stripe payment
// intents.
type StripeSubmissionService struct {
	Logger *zap.Logger
}

func NewStripeSubmissionService(logger *zap.Logger) *StripeSubmissionService {
	return &StripeSubmissionService{Logger: logger}
}

// SubmitReservation creates a payment intent for the consolidated total.
func (svc *StripeSubmissionService) SubmitReservation(ctx context.Context, view models.ReservationView, email string) (*Receipt, error) {
	if view.Base == nil {
		return nil, fmt.Errorf("cannot submit a reservation without base data")
	}
	if view.Pricing.Total <= 0 {
		return nil, fmt.Errorf("cannot submit a reservation with total %.2f", view.Pricing.Total)
	}

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(int64(view.Pricing.Total * 100)),
		Currency:     stripe.String(string(stripe.CurrencyEUR)),
		ReceiptEmail: stripe.String(email),
		Description:  stripe.String("Vehicle rental: " + view.Base.Vehicle.Name),
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	svc.Logger.Info("reservation submitted",
		zap.String("paymentIntent", intent.ID),
		zap.Float64("amount", view.Pricing.Total))

	return &Receipt{
		PaymentID: intent.ID,
		Status:    string(intent.Status),
		Amount:    view.Pricing.Total,
		Currency:  string(intent.Currency),
	}, nil
}
