package reservation

import (
	"context"
	"errors"
	"fmt"

	"rentify/models"

	"go.uber.org/zap"
)

// UpdateExtras persists the selected extras and advances the flow to the
// driver step. Extras are stored as full records whenever the caller has
// them; a precomputed pricing hint is merged into the base snapshot so later
// reads need not recompute from scratch.
func (s *DefaultReservationSessionService) UpdateExtras(ctx context.Context, namespace string, extras []models.SelectedExtra, pricingHint *models.PricingBreakdown) error {
	if err := s.ensureActive(ctx, namespace); err != nil {
		return err
	}
	if err := s.checkAdvance(ctx, namespace, models.StepConductor); err != nil {
		return err
	}
	for i, e := range extras {
		if e.Quantity < 1 {
			return NewValidationError(fmt.Sprintf("extras[%d].quantity", i), "must be at least 1")
		}
		if e.UnitPricePerDay < 0 {
			return NewValidationError(fmt.Sprintf("extras[%d].unitPricePerDay", i), "must not be negative")
		}
	}

	if err := s.saveJSON(ctx, namespace, keyExtras, extras); err != nil {
		return err
	}

	var base models.ReservationBase
	if ok, err := s.loadJSON(ctx, namespace, keyBase, &base); err != nil || !ok {
		if err == nil {
			err = ErrNoActiveSession
		}
		return err
	}
	if pricingHint != nil {
		base.Pricing = pricingHint
	} else {
		pricing := models.ComputePricing(base, extras)
		base.Pricing = &pricing
	}
	if err := s.saveJSON(ctx, namespace, keyBase, base); err != nil {
		return err
	}

	return s.advanceStep(ctx, namespace, models.StepConductor)
}

// CompleteReservationData merges every slice into the unified read model the
// next step's UI consumes. It returns nil when no session exists.
func (s *DefaultReservationSessionService) CompleteReservationData(ctx context.Context, namespace string) (*models.ReservationView, error) {
	if err := s.ensureActive(ctx, namespace); err != nil {
		if errors.Is(err, ErrNoActiveSession) || errors.Is(err, ErrSessionExpired) {
			return nil, nil
		}
		return nil, err
	}

	var base models.ReservationBase
	if ok, err := s.loadJSON(ctx, namespace, keyBase, &base); err != nil || !ok {
		return nil, err
	}

	var extras []models.SelectedExtra
	if _, err := s.loadJSON(ctx, namespace, keyExtras, &extras); err != nil {
		return nil, err
	}
	extras, err := s.rehydrateExtras(ctx, namespace, extras)
	if err != nil {
		return nil, err
	}

	view := &models.ReservationView{
		Base:    &base,
		Extras:  extras,
		Step:    s.currentStep(ctx, namespace),
		Pricing: s.consolidatePricing(base, extras),
	}

	var conductor models.Conductor
	if ok, err := s.loadJSON(ctx, namespace, keyConductor, &conductor); err != nil {
		return nil, err
	} else if ok {
		view.Conductor = &conductor
	}

	return view, nil
}

// rehydrateExtras resolves entries persisted as bare identifiers against the
// extras catalog. Identifiers that no longer resolve are dropped with a log
// entry rather than failing the read.
func (s *DefaultReservationSessionService) rehydrateExtras(ctx context.Context, namespace string, extras []models.SelectedExtra) ([]models.SelectedExtra, error) {
	needsCatalog := false
	for _, e := range extras {
		if !e.Hydrated() {
			needsCatalog = true
			break
		}
	}
	if !needsCatalog {
		return extras, nil
	}

	available, err := s.Catalog.ListAvailableExtras(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve legacy extras: %w", err)
	}
	byID := make(map[string]models.CatalogExtra, len(available))
	for _, a := range available {
		byID[a.ID] = a
	}

	resolved := make([]models.SelectedExtra, 0, len(extras))
	for _, e := range extras {
		if e.Hydrated() {
			resolved = append(resolved, e)
			continue
		}
		record, ok := byID[e.ID]
		if !ok {
			s.Logger.Warn("dropping unresolvable legacy extra",
				zap.String("namespace", namespace),
				zap.String("extraId", e.ID))
			continue
		}
		e.Name = record.Name
		e.UnitPricePerDay = record.PricePerDay
		if e.Quantity < 1 {
			e.Quantity = 1
		}
		resolved = append(resolved, e)
	}

	// Persist the hydrated list so the catalog lookup happens once.
	if err := s.saveJSON(ctx, namespace, keyExtras, resolved); err != nil {
		s.Logger.Warn("failed to persist rehydrated extras",
			zap.String("namespace", namespace), zap.Error(err))
	}
	return resolved, nil
}

// consolidatePricing keeps the derived breakdown self-consistent: a missing
// snapshot is recomputed, and a migrated snapshot carrying only a total gets
// its components reconstructed around that total.
func (s *DefaultReservationSessionService) consolidatePricing(base models.ReservationBase, extras []models.SelectedExtra) models.PricingBreakdown {
	stored := base.Pricing
	if stored == nil || stored.Total == 0 {
		return models.ComputePricing(base, extras)
	}
	if stored.BaseBeforeTax == 0 && stored.TaxAmount == 0 {
		rebuilt := models.ComputePricing(base, extras)
		rebuilt.Discount = stored.Discount
		rebuilt.Total = stored.Total
		return rebuilt
	}
	return *stored
}
