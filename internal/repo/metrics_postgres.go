package repo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/rogerio-castellano/product-management/internal/models"
)

type PostgresMetricsRepository struct {
	db *sql.DB
}

func NewPostgresMetricsRepository(db *sql.DB) *PostgresMetricsRepository {
	return &PostgresMetricsRepository{db: db}
}

func (r *PostgresMetricsRepository) GetDashboardMetrics(ctx context.Context) (Metrics, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var m Metrics

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&m.TotalProducts); err != nil {
		return m, errors.Wrap(err, "count products")
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&m.TotalUsers); err != nil {
		return m, errors.Wrap(err, "count users")
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE status = $1`, string(models.StatusActive)).Scan(&m.ActiveUsers); err != nil {
		return m, errors.Wrap(err, "count active users")
	}

	var newest NewestProduct
	err := r.db.QueryRowContext(ctx, `
		SELECT name, created_at
		FROM products
		ORDER BY created_at DESC, id
		LIMIT 1
	`).Scan(&newest.Name, &newest.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return m, errors.Wrap(err, "newest product")
	default:
		newest.CreatedAt = newest.CreatedAt.UTC()
		m.NewestProduct = &newest
	}

	return m, nil
}
