package catalog

import (
	"context"

	"rentify/database/repository/extras"
	"rentify/database/repository/vehicle"
	"rentify/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CatalogService serves the vehicle fleet and the extras catalog. The extras
// listing doubles as the rehydration source for legacy reservation sessions.
type CatalogService interface {
	ListVehicles(ctx context.Context, category string) ([]models.Vehicle, error)
	GetVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	ListAvailableExtras(ctx context.Context) ([]models.CatalogExtra, error)
}

// DefaultCatalogService implements CatalogService with a Redis read-through
// cache in front of the Mongo repositories.
type DefaultCatalogService struct {
	VehicleRepo vehicleRepo.VehicleRepository
	ExtrasRepo  extrasRepo.ExtrasRepository
	Cache       *redis.Client
	Logger      *zap.Logger
}
