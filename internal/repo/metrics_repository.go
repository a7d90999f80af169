package repo

import (
	"context"
	"time"
)

type NewestProduct struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Metrics struct {
	TotalProducts int            `json:"totalProducts"`
	TotalUsers    int            `json:"totalUsers"`
	ActiveUsers   int            `json:"activeUsers"`
	NewestProduct *NewestProduct `json:"newestProduct,omitempty"`
}

type MetricsRepository interface {
	GetDashboardMetrics(ctx context.Context) (Metrics, error)
}
