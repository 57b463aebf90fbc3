package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mealbox/orderd/internal/models"
)

// MenuService handles menu browsing
type MenuService struct {
	catalog CatalogStore
}

// NewMenuService creates a new menu service
func NewMenuService(catalog CatalogStore) *MenuService {
	return &MenuService{catalog: catalog}
}

// ListItems returns menu items matching the filter.
func (s *MenuService) ListItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	return s.catalog.List(ctx, filter)
}

// GetItem returns a single menu item by id.
func (s *MenuService) GetItem(ctx context.Context, id string) (*models.MenuItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		verr := &models.ValidationError{}
		return nil, verr.Add("menuId", "must be a valid UUID")
	}
	return s.catalog.GetByID(ctx, id)
}
