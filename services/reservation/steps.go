package reservation

import (
	"context"

	"rentify/models"
)

// stepRank orders the booking stages. Transitions only move forward except
// via an explicit base reset or a full purge.
func stepRank(s models.Step) int {
	switch s {
	case models.StepExtras:
		return 0
	case models.StepConductor:
		return 1
	case models.StepPayment:
		return 2
	case models.StepCompleted:
		return 3
	default:
		return -1
	}
}

func canAdvance(from, to models.Step) bool {
	return stepRank(to) >= stepRank(from)
}

// currentStep loads the persisted step, defaulting to extras when the key is
// missing or unreadable.
func (s *DefaultReservationSessionService) currentStep(ctx context.Context, namespace string) models.Step {
	raw, ok, err := s.Store.Load(ctx, namespace, keyStep)
	if err != nil || !ok {
		return models.StepExtras
	}
	step := models.Step(raw)
	if stepRank(step) < 0 {
		return models.StepExtras
	}
	return step
}

// checkAdvance verifies the target stage would not move the flow backwards.
// Writes call it before touching the store so a refused transition leaves the
// session untouched.
func (s *DefaultReservationSessionService) checkAdvance(ctx context.Context, namespace string, to models.Step) error {
	from := s.currentStep(ctx, namespace)
	if !canAdvance(from, to) {
		return &SessionError{
			Code:    "invalidStepTransition",
			Message: "booking step " + string(to) + " is behind the current step " + string(from),
		}
	}
	return nil
}

// advanceStep persists the target stage.
func (s *DefaultReservationSessionService) advanceStep(ctx context.Context, namespace string, to models.Step) error {
	if err := s.checkAdvance(ctx, namespace, to); err != nil {
		return err
	}
	return s.Store.Save(ctx, namespace, keyStep, []byte(to))
}
