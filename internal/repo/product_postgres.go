package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/rogerio-castellano/product-management/internal/models"
)

type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

const productColumns = `id, name, description, price, created_by, updated_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var (
		p         models.Product
		createdBy uuid.NullUUID
		updatedBy uuid.NullUUID
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &createdBy, &updatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, err
	}
	if createdBy.Valid {
		p.CreatedBy = &createdBy.UUID
	}
	if updatedBy.Valid {
		p.UpdatedBy = &updatedBy.UUID
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *PostgresProductRepository) Create(ctx context.Context, p models.Product) (models.Product, error) {
	query := `INSERT INTO products (name, description, price, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Price, p.CreatedBy, p.UpdatedBy, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if isUniqueViolation(err) {
		return models.Product{}, ErrDuplicatedValueUnique
	}
	if err != nil {
		return models.Product{}, errors.Wrap(err, "insert product")
	}
	return p, nil
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *PostgresProductRepository) GetByName(ctx context.Context, name string) (models.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE name = $1`, name)
}

func (r *PostgresProductRepository) getOne(ctx context.Context, query string, arg any) (models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, errors.Wrap(err, "select product")
	}
	return p, nil
}

func (r *PostgresProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE name = $1)`, name).Scan(&exists)
	return exists, errors.Wrap(err, "check product name")
}

func (r *PostgresProductRepository) Update(ctx context.Context, p models.Product) (models.Product, error) {
	query := `UPDATE products SET name = $1, description = $2, price = $3, updated_by = $4, updated_at = $5 WHERE id = $6`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.UpdatedBy, p.UpdatedAt, p.ID)
	if isUniqueViolation(err) {
		return models.Product{}, ErrDuplicatedValueUnique
	}
	if err != nil {
		return models.Product{}, errors.Wrap(err, "update product")
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Search runs the count and the page query in one read-only snapshot so the total
// always agrees with the returned window.
func (r *PostgresProductRepository) Search(ctx context.Context, f ProductFilter) ([]models.Product, int, error) {
	q, err := buildSearchQuery(f)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, 0, errors.Wrap(err, "begin search")
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.QueryRowContext(ctx, q.count, q.countArgs...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	offset := f.Offset()
	if offset >= total {
		return []models.Product{}, total, nil
	}

	rows, err := tx.QueryContext(ctx, q.page, q.pageArgs...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "search products")
	}
	defer rows.Close()

	products := make([]models.Product, 0, min(f.Size, total-offset))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate products")
	}

	return products, total, nil
}

type searchQuery struct {
	count     string
	countArgs []any
	page      string
	pageArgs  []any
}

// buildSearchQuery validates the filter and renders the count and page statements.
func buildSearchQuery(f ProductFilter) (searchQuery, error) {
	if err := f.Validate(); err != nil {
		return searchQuery{}, err
	}
	order, err := f.orderClause()
	if err != nil {
		return searchQuery{}, err
	}

	conditions, args, argIdx := filterConditions(f)

	q := searchQuery{
		count:     "SELECT COUNT(*) FROM products WHERE 1=1" + conditions,
		countArgs: args,
	}

	q.page = "SELECT " + productColumns + " FROM products WHERE 1=1" + conditions + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	q.pageArgs = append(append([]any{}, args...), f.Size, f.Offset())

	return q, nil
}

func filterConditions(f ProductFilter) (string, []any, int) {
	query := ""
	argIdx := 1
	args := []any{}

	if f.Name != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, containsPattern(f.Name))
		argIdx++
	}
	if f.Description != "" {
		query += fmt.Sprintf(" AND description ILIKE $%d", argIdx)
		args = append(args, containsPattern(f.Description))
		argIdx++
	}
	if f.MinPrice != nil {
		query += fmt.Sprintf(" AND price >= $%d", argIdx)
		args = append(args, *f.MinPrice)
		argIdx++
	}
	if f.MaxPrice != nil {
		query += fmt.Sprintf(" AND price <= $%d", argIdx)
		args = append(args, *f.MaxPrice)
		argIdx++
	}
	if f.CreatedAfter != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *f.CreatedAfter)
		argIdx++
	}
	if f.CreatedBefore != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *f.CreatedBefore)
		argIdx++
	}

	return query, args, argIdx
}
