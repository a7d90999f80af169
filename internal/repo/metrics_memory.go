package repo

import (
	"context"

	"github.com/rogerio-castellano/product-management/internal/models"
)

type InMemoryMetricsRepository struct {
	productRepo *InMemoryProductRepository
	userRepo    *InMemoryUserRepository
}

// GetDashboardMetrics implements MetricsRepository.
func (i *InMemoryMetricsRepository) GetDashboardMetrics(ctx context.Context) (Metrics, error) {
	m := Metrics{}

	if i.productRepo != nil {
		m.TotalProducts = i.productRepo.Count()
		if p, ok := i.productRepo.Newest(); ok {
			m.NewestProduct = &NewestProduct{Name: p.Name, CreatedAt: p.CreatedAt}
		}
	}

	if i.userRepo != nil {
		users, err := i.userRepo.List(ctx)
		if err != nil {
			return m, err
		}
		m.TotalUsers = len(users)
		for _, u := range users {
			if u.Status == models.StatusActive {
				m.ActiveUsers++
			}
		}
	}

	return m, nil
}

func NewInMemoryMetricsRepository() *InMemoryMetricsRepository {
	return &InMemoryMetricsRepository{}
}

func (i *InMemoryMetricsRepository) SetRepositories(
	productRepo *InMemoryProductRepository,
	userRepo *InMemoryUserRepository,
) {
	i.productRepo = productRepo
	i.userRepo = userRepo
}
