package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/models"
)

// ProductRepository defines the interface for product data operations.
type ProductRepository interface {
	Create(ctx context.Context, product models.Product) (models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Product, error)
	GetByName(ctx context.Context, name string) (models.Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, product models.Product) (models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Search returns the requested page of matching products and the total match count.
	Search(ctx context.Context, filter ProductFilter) ([]models.Product, int, error)
}
