package reservation

import (
	"context"
	"encoding/json"
	"time"

	"rentify/models"

	"go.uber.org/zap"
)

// ensureActive verifies the namespace holds an active, non-expired session,
// healing recoverable shapes first. It is idempotent and safe to call
// speculatively before any slice write.
//
// Two failure shapes are healed in place:
//  1. base data without a timer (older persistence shape or a reload race):
//     a fresh countdown is armed, unless the flow already completed.
//  2. a legacy flat blob instead of segmented slices: migrated, or discarded
//     when too corrupted to validate.
func (s *DefaultReservationSessionService) ensureActive(ctx context.Context, namespace string) error {
	_, hasBase, err := s.Store.Load(ctx, namespace, keyBase)
	if err != nil {
		return err
	}
	if !hasBase {
		if !s.migrateLegacyBlob(ctx, namespace) {
			return ErrNoActiveSession
		}
	}

	// Completed sessions stay active without a countdown.
	if s.currentStep(ctx, namespace) == models.StepCompleted {
		return nil
	}

	_, hasTimer, err := s.Store.Load(ctx, namespace, keyTimerStart)
	if err != nil {
		return err
	}
	if !hasTimer {
		s.Logger.Info("healing session without timer", zap.String("namespace", namespace))
		return s.Timer.Start(ctx, namespace)
	}

	// Revalidate expires overdue sessions and re-arms torn-down schedules.
	if err := s.Timer.Revalidate(ctx, namespace); err != nil {
		return err
	}
	if _, ok, err := s.Store.Load(ctx, namespace, keyBase); err != nil {
		return err
	} else if !ok {
		return ErrSessionExpired
	}
	return nil
}

// legacyBlob is the unsegmented shape a previous client version persisted
// under a single key.
type legacyBlob struct {
	Car             *models.Vehicle   `json:"car"`
	Fechas          *legacyDates      `json:"fechas"`
	PickupLocation  string            `json:"pickupLocation"`
	DropoffLocation string            `json:"dropoffLocation"`
	Extras          []json.RawMessage `json:"extras"`
	Conductor       *models.Conductor `json:"conductor"`
	Total           float64           `json:"total"`
	Step            string            `json:"step"`
}

type legacyDates struct {
	PickupLocation string `json:"pickupLocation"`
	PickupDate     string `json:"pickupDate"`
	DropoffDate    string `json:"dropoffDate"`
}

// migrateLegacyBlob splits a legacy blob into the segmented slices. Corrupted
// blobs are discarded with a log entry, never surfaced to the user.
func (s *DefaultReservationSessionService) migrateLegacyBlob(ctx context.Context, namespace string) bool {
	raw, ok, err := s.Store.Load(ctx, namespace, keyLegacyBlob)
	if err != nil || !ok {
		return false
	}

	discard := func(reason string, err error) bool {
		s.Logger.Warn("discarding unrecoverable legacy reservation data",
			zap.String("namespace", namespace),
			zap.String("reason", reason),
			zap.Error(err))
		_ = s.Store.Remove(ctx, namespace, keyLegacyBlob)
		return false
	}

	var blob legacyBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return discard("unparseable blob", err)
	}
	if blob.Car == nil {
		return discard("missing vehicle", nil)
	}

	// The top-level location is often absent in old blobs; fall back to the
	// nested fechas record before giving up.
	pickup := blob.PickupLocation
	if pickup == "" && blob.Fechas != nil {
		pickup = blob.Fechas.PickupLocation
	}
	if pickup == "" {
		return discard("missing pickup location", nil)
	}
	dropoff := blob.DropoffLocation
	if dropoff == "" {
		dropoff = pickup
	}
	if blob.Fechas == nil {
		return discard("missing dates", nil)
	}
	pickupTime, err := parseLegacyDate(blob.Fechas.PickupDate)
	if err != nil {
		return discard("bad pickup date", err)
	}
	returnTime, err := parseLegacyDate(blob.Fechas.DropoffDate)
	if err != nil {
		return discard("bad dropoff date", err)
	}

	base := models.ReservationBase{
		Vehicle:        *blob.Car,
		PickupLocation: pickup,
		ReturnLocation: dropoff,
		PickupTime:     pickupTime,
		ReturnTime:     returnTime,
	}
	if blob.Total > 0 {
		base.Pricing = &models.PricingBreakdown{Total: blob.Total}
	}
	if err := s.saveJSON(ctx, namespace, keyBase, base); err != nil {
		return discard("failed to persist migrated base", err)
	}

	if extras := parseLegacyExtras(blob.Extras); len(extras) > 0 {
		if err := s.saveJSON(ctx, namespace, keyExtras, extras); err != nil {
			s.Logger.Warn("failed to persist migrated extras", zap.Error(err))
		}
	}
	if blob.Conductor != nil {
		if err := s.saveJSON(ctx, namespace, keyConductor, blob.Conductor); err != nil {
			s.Logger.Warn("failed to persist migrated conductor", zap.Error(err))
		}
	}

	step := models.Step(blob.Step)
	if stepRank(step) < 0 {
		step = models.StepExtras
	}
	if err := s.Store.Save(ctx, namespace, keyStep, []byte(step)); err != nil {
		s.Logger.Warn("failed to persist migrated step", zap.Error(err))
	}

	_ = s.Store.Remove(ctx, namespace, keyLegacyBlob)
	s.Logger.Info("migrated legacy reservation data", zap.String("namespace", namespace))
	return true
}

// parseLegacyExtras accepts both full records and the degraded bare-id form
// (string or numeric). Bare ids become unhydrated entries with quantity 1 for
// the consolidator to resolve.
func parseLegacyExtras(raw []json.RawMessage) []models.SelectedExtra {
	extras := make([]models.SelectedExtra, 0, len(raw))
	for _, entry := range raw {
		var full models.SelectedExtra
		if err := json.Unmarshal(entry, &full); err == nil && full.ID != "" {
			if full.Quantity < 1 {
				full.Quantity = 1
			}
			extras = append(extras, full)
			continue
		}
		var id string
		if err := json.Unmarshal(entry, &id); err == nil && id != "" {
			extras = append(extras, models.SelectedExtra{ID: id, Quantity: 1})
			continue
		}
		var num json.Number
		if err := json.Unmarshal(entry, &num); err == nil {
			extras = append(extras, models.SelectedExtra{ID: num.String(), Quantity: 1})
		}
	}
	return extras
}

func parseLegacyDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
