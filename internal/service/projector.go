package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/product-management/internal/logger"
	"github.com/rogerio-castellano/product-management/internal/models"
	"github.com/rogerio-castellano/product-management/internal/repo"
)

// Projector turns stored products into their external shape, resolving actor ids to
// usernames with one batch lookup per call.
type Projector struct {
	users repo.UserRepository
}

func NewProjector(users repo.UserRepository) *Projector {
	return &Projector{users: users}
}

func (p *Projector) Project(ctx context.Context, products []models.Product) []models.ProductView {
	names := p.resolve(ctx, products)

	views := make([]models.ProductView, len(products))
	for i, product := range products {
		views[i] = models.ProductView{
			ID:          product.ID,
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price,
			CreatedBy:   lookup(names, product.CreatedBy),
			UpdatedBy:   lookup(names, product.UpdatedBy),
			CreatedAt:   product.CreatedAt,
			UpdatedAt:   product.UpdatedAt,
		}
	}
	return views
}

func (p *Projector) ProjectOne(ctx context.Context, product models.Product) models.ProductView {
	return p.Project(ctx, []models.Product{product})[0]
}

// resolve degrades to an empty map when the lookup fails.
func (p *Projector) resolve(ctx context.Context, products []models.Product) map[uuid.UUID]string {
	seen := map[uuid.UUID]bool{}
	ids := []uuid.UUID{}
	for _, product := range products {
		for _, ref := range []*uuid.UUID{product.CreatedBy, product.UpdatedBy} {
			if ref != nil && !seen[*ref] {
				seen[*ref] = true
				ids = append(ids, *ref)
			}
		}
	}
	if len(ids) == 0 || p.users == nil {
		return map[uuid.UUID]string{}
	}

	names, err := p.users.Usernames(ctx, ids)
	if err != nil {
		logger.FromContext(ctx).Warn("could not resolve product actors", zap.Int("ids", len(ids)), zap.Error(err))
		return map[uuid.UUID]string{}
	}
	return names
}

func lookup(names map[uuid.UUID]string, ref *uuid.UUID) string {
	if ref == nil {
		return ""
	}
	return names[*ref]
}
