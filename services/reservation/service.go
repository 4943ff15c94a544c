package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rentify/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// SaveReservationData creates a fresh session for the namespace: any previous
// slices are discarded, the step resets to extras, and the countdown starts.
func (s *DefaultReservationSessionService) SaveReservationData(ctx context.Context, namespace string, base models.ReservationBase) error {
	if err := s.validate.Struct(base); err != nil {
		return asValidationError(err)
	}
	if base.Pricing == nil {
		pricing := models.ComputePricing(base, nil)
		base.Pricing = &pricing
	}

	if err := s.Store.Clear(ctx, namespace); err != nil {
		return err
	}
	if err := s.saveJSON(ctx, namespace, keyBase, base); err != nil {
		return err
	}
	if err := s.Store.Save(ctx, namespace, keyStep, []byte(models.StepExtras)); err != nil {
		return err
	}
	if err := s.Timer.Start(ctx, namespace); err != nil {
		return err
	}

	s.Logger.Info("reservation session started",
		zap.String("namespace", namespace),
		zap.String("vehicle", base.Vehicle.ID))
	return nil
}

// UpdateConductorData is the strict, validate-once driver write. It advances
// the flow to the payment step.
func (s *DefaultReservationSessionService) UpdateConductorData(ctx context.Context, namespace string, conductor models.Conductor) error {
	if err := s.ensureActive(ctx, namespace); err != nil {
		return err
	}
	if err := s.checkAdvance(ctx, namespace, models.StepPayment); err != nil {
		return err
	}
	if err := s.validate.Struct(conductor); err != nil {
		return asValidationError(err)
	}
	if err := s.saveJSON(ctx, namespace, keyConductor, conductor); err != nil {
		return err
	}
	return s.advanceStep(ctx, namespace, models.StepPayment)
}

// UpdateConductorDataIntermediate persists a partial, unvalidated driver
// snapshot while the user is still typing. It never fails: keystroke-level
// writes must not interrupt the UI. The step does not advance.
func (s *DefaultReservationSessionService) UpdateConductorDataIntermediate(ctx context.Context, namespace string, partial models.Conductor) bool {
	if err := s.ensureActive(ctx, namespace); err != nil {
		return false
	}
	var current models.Conductor
	if _, err := s.loadJSON(ctx, namespace, keyConductor, &current); err != nil {
		return false
	}
	mergeConductor(&current, partial)
	if err := s.saveJSON(ctx, namespace, keyConductor, current); err != nil {
		s.Logger.Warn("intermediate conductor write failed",
			zap.String("namespace", namespace), zap.Error(err))
		return false
	}
	return true
}

// HasActiveReservation reports whether the namespace holds a live session,
// attempting recovery of healable shapes first.
func (s *DefaultReservationSessionService) HasActiveReservation(ctx context.Context, namespace string) bool {
	return s.ensureActive(ctx, namespace) == nil
}

// Remaining returns the time left in the countdown window.
func (s *DefaultReservationSessionService) Remaining(ctx context.Context, namespace string) (time.Duration, error) {
	return s.Timer.Remaining(ctx, namespace)
}

// FormattedRemaining renders the countdown as MM:SS.
func (s *DefaultReservationSessionService) FormattedRemaining(ctx context.Context, namespace string) (string, error) {
	return s.Timer.FormattedRemaining(ctx, namespace)
}

// ExtendTimer restarts the countdown at the full TTL and clears the warning
// flag for the new cycle.
func (s *DefaultReservationSessionService) ExtendTimer(ctx context.Context, namespace string) error {
	return s.Timer.Extend(ctx, namespace)
}

// MarkCompleted moves a paid session to its terminal stage. Completed
// sessions stay readable without a countdown, so the timer keys are dropped.
func (s *DefaultReservationSessionService) MarkCompleted(ctx context.Context, namespace string) error {
	if err := s.ensureActive(ctx, namespace); err != nil {
		return err
	}
	if step := s.currentStep(ctx, namespace); step != models.StepPayment {
		return &SessionError{
			Code:    "invalidStepTransition",
			Message: "cannot complete a reservation from step " + string(step),
		}
	}
	if err := s.Store.Save(ctx, namespace, keyStep, []byte(models.StepCompleted)); err != nil {
		return err
	}
	s.Timer.Cancel(namespace)
	if err := s.Store.Remove(ctx, namespace, keyTimerStart); err != nil {
		return err
	}
	if err := s.Store.Remove(ctx, namespace, keyUserWarned); err != nil {
		return err
	}
	s.Logger.Info("reservation session completed", zap.String("namespace", namespace))
	return nil
}

// CancelAll purges the session and stops any scheduled callbacks without
// firing them. Safe to call on an already-empty namespace.
func (s *DefaultReservationSessionService) CancelAll(ctx context.Context, namespace string) error {
	s.Timer.Cancel(namespace)
	if err := s.Store.Clear(ctx, namespace); err != nil {
		return fmt.Errorf("failed to cancel reservation session: %w", err)
	}
	return nil
}

// Revalidate is the tab-foreground hook: it re-arms the scheduler from the
// persisted timer state, expiring sessions already past their window.
func (s *DefaultReservationSessionService) Revalidate(ctx context.Context, namespace string) error {
	return s.Timer.Revalidate(ctx, namespace)
}

// OnWarning registers a listener for the pre-expiry warning.
func (s *DefaultReservationSessionService) OnWarning(fn func(namespace string)) {
	s.Timer.OnWarning(fn)
}

// OnExpiration registers a listener invoked when a session expires.
func (s *DefaultReservationSessionService) OnExpiration(fn func(namespace string)) {
	s.Timer.OnExpiration(fn)
}

func (s *DefaultReservationSessionService) saveJSON(ctx context.Context, namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Store.Save(ctx, namespace, key, data)
}

func (s *DefaultReservationSessionService) loadJSON(ctx context.Context, namespace, key string, v any) (bool, error) {
	data, ok, err := s.Store.Load(ctx, namespace, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return true, nil
}

// mergeConductor overlays the non-zero fields of an intermediate snapshot on
// the stored record.
func mergeConductor(dst *models.Conductor, src models.Conductor) {
	if src.FirstName != "" {
		dst.FirstName = src.FirstName
	}
	if src.LastName != "" {
		dst.LastName = src.LastName
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.Phone != "" {
		dst.Phone = src.Phone
	}
	if src.DocumentType != "" {
		dst.DocumentType = src.DocumentType
	}
	if src.DocumentID != "" {
		dst.DocumentID = src.DocumentID
	}
	if src.BirthDate != "" {
		dst.BirthDate = src.BirthDate
	}
	if src.Address != "" {
		dst.Address = src.Address
	}
	if src.City != "" {
		dst.City = src.City
	}
	if src.PostalCode != "" {
		dst.PostalCode = src.PostalCode
	}
	if src.Country != "" {
		dst.Country = src.Country
	}
	if src.SecondDriver != nil {
		dst.SecondDriver = src.SecondDriver
	}
}

// asValidationError converts validator failures to the service's taxonomy.
func asValidationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		first := verrs[0]
		return &ValidationError{
			Field:   first.Namespace(),
			Message: "failed on the '" + first.Tag() + "' rule",
		}
	}
	return &ValidationError{Field: "", Message: err.Error()}
}
