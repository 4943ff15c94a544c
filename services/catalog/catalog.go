package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rentify/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	extrasCacheKey   = "catalog:extras"
	vehiclesCacheKey = "catalog:vehicles:"
	cacheTTL         = 5 * time.Minute
)

// ListVehicles returns the fleet, optionally filtered by category.
func (svc *DefaultCatalogService) ListVehicles(ctx context.Context, category string) ([]models.Vehicle, error) {
	cacheKey := vehiclesCacheKey + category
	if cached, err := svc.Cache.Get(ctx, cacheKey).Result(); err == nil {
		var vehicles []models.Vehicle
		if err := json.Unmarshal([]byte(cached), &vehicles); err == nil {
			return vehicles, nil
		}
	} else if err != redis.Nil {
		svc.Logger.Warn("vehicle cache read failed", zap.Error(err))
	}

	vehicles, err := svc.VehicleRepo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vehicles: %w", err)
	}
	svc.writeCache(ctx, cacheKey, vehicles)
	return vehicles, nil
}

// GetVehicleByID retrieves one vehicle.
func (svc *DefaultCatalogService) GetVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return svc.VehicleRepo.GetByID(ctx, id)
}

// ListAvailableExtras returns every offered extra.
func (svc *DefaultCatalogService) ListAvailableExtras(ctx context.Context) ([]models.CatalogExtra, error) {
	if cached, err := svc.Cache.Get(ctx, extrasCacheKey).Result(); err == nil {
		var extras []models.CatalogExtra
		if err := json.Unmarshal([]byte(cached), &extras); err == nil {
			return extras, nil
		}
	} else if err != redis.Nil {
		svc.Logger.Warn("extras cache read failed", zap.Error(err))
	}

	extras, err := svc.ExtrasRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch extras: %w", err)
	}
	svc.writeCache(ctx, extrasCacheKey, extras)
	return extras, nil
}

func (svc *DefaultCatalogService) writeCache(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := svc.Cache.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		svc.Logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
