package vehicleRepo

import (
	"context"

	"rentify/models"
)

// VehicleRepository serves the rentable fleet.
type VehicleRepository interface {
	List(ctx context.Context, category string) ([]models.Vehicle, error)
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
}
