package extrasRepo

import (
	"context"

	"rentify/models"
)

// ExtrasRepository serves the add-on catalog.
type ExtrasRepository interface {
	List(ctx context.Context) ([]models.CatalogExtra, error)
}
