package handlers

import (
	"context"

	"github.com/rogerio-castellano/product-management/internal/http/ban"
	"github.com/rogerio-castellano/product-management/internal/models"
	"github.com/rogerio-castellano/product-management/internal/repo"
	"github.com/rogerio-castellano/product-management/internal/service"
)

// ProductAPI holds the dependencies of the product service handlers.
type ProductAPI struct {
	Products *service.ProductService
	Auth     *service.AuthService
	Metrics  repo.MetricsRepository
}

type ProductLister interface {
	ListProducts(ctx context.Context) ([]models.ProductView, error)
}

// UserAPI holds the dependencies of the user service handlers.
type UserAPI struct {
	Users    *service.UserService
	Auth     *service.AuthService
	Products ProductLister
	Bans     ban.Store
}
