package reservation

import (
	"context"
	"time"

	"rentify/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ReservationSessionService manages the ephemeral, time-boxed reservation
// session across the booking steps. One namespace per browsing session.
type ReservationSessionService interface {
	SaveReservationData(ctx context.Context, namespace string, base models.ReservationBase) error
	UpdateExtras(ctx context.Context, namespace string, extras []models.SelectedExtra, pricingHint *models.PricingBreakdown) error
	UpdateConductorData(ctx context.Context, namespace string, conductor models.Conductor) error
	UpdateConductorDataIntermediate(ctx context.Context, namespace string, partial models.Conductor) bool
	CompleteReservationData(ctx context.Context, namespace string) (*models.ReservationView, error)
	HasActiveReservation(ctx context.Context, namespace string) bool
	Remaining(ctx context.Context, namespace string) (time.Duration, error)
	FormattedRemaining(ctx context.Context, namespace string) (string, error)
	ExtendTimer(ctx context.Context, namespace string) error
	MarkCompleted(ctx context.Context, namespace string) error
	CancelAll(ctx context.Context, namespace string) error
	Revalidate(ctx context.Context, namespace string) error
	OnWarning(fn func(namespace string))
	OnExpiration(fn func(namespace string))
}

// ExtrasCatalog is the external collaborator used to rehydrate extras that
// were persisted as bare identifiers by older clients.
type ExtrasCatalog interface {
	ListAvailableExtras(ctx context.Context) ([]models.CatalogExtra, error)
}

// DefaultReservationSessionService implements ReservationSessionService.
type DefaultReservationSessionService struct {
	Store    SessionStore
	Timer    *TimerController
	Catalog  ExtrasCatalog
	Logger   *zap.Logger
	validate *validator.Validate
}

func NewReservationSessionService(store SessionStore, timer *TimerController, catalog ExtrasCatalog, logger *zap.Logger) *DefaultReservationSessionService {
	return &DefaultReservationSessionService{
		Store:    store,
		Timer:    timer,
		Catalog:  catalog,
		Logger:   logger,
		validate: validator.New(),
	}
}
