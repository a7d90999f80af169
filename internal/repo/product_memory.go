package repo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/models"
)

// InMemoryProductRepository is an in-memory implementation of ProductRepository.
// Names are unique, mirroring the unique index of the products table.
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products []models.Product
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: []models.Product{},
	}
}

func matchesFilter(p models.Product, f ProductFilter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Description != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(f.Description)) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.CreatedAfter != nil && p.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && p.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}

// compareBy returns a three-way comparison over the given products column.
func compareBy(col string) func(a, b models.Product) int {
	switch col {
	case "LOWER(name)":
		return func(a, b models.Product) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case "LOWER(description)":
		return func(a, b models.Product) int {
			return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		}
	case "price":
		return func(a, b models.Product) int { return a.Price.Cmp(b.Price) }
	case "created_at":
		return func(a, b models.Product) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updated_at":
		return func(a, b models.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return func(a, b models.Product) int { return compareIDs(a.ID, b.ID) }
	}
}

func compareIDs(a, b uuid.UUID) int {
	return strings.Compare(a.String(), b.String())
}

func (r *InMemoryProductRepository) Search(_ context.Context, f ProductFilter) ([]models.Product, int, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	col, _ := f.sortColumn()
	desc, _ := f.descending()

	r.mu.RLock()
	var filtered []models.Product
	for _, p := range r.products {
		if matchesFilter(p, f) {
			filtered = append(filtered, p)
		}
	}
	r.mu.RUnlock()

	cmp := compareBy(col)
	sort.SliceStable(filtered, func(i, j int) bool {
		c := cmp(filtered[i], filtered[j])
		if desc {
			c = -c
		}
		if c == 0 {
			return compareIDs(filtered[i].ID, filtered[j].ID) < 0
		}
		return c < 0
	})

	total := len(filtered)
	start := clamp(f.Offset(), 0, total)
	end := clamp(start+f.Size, start, total)

	page := make([]models.Product, end-start)
	copy(page, filtered[start:end])
	return page, total, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Create adds a new product to the repository.
func (r *InMemoryProductRepository) Create(_ context.Context, product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Name == product.Name {
			return models.Product{}, ErrDuplicatedValueUnique
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products = append(r.products, product)
	return product, nil
}

// GetByID retrieves a product by its ID.
func (r *InMemoryProductRepository) GetByID(_ context.Context, id uuid.UUID) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (r *InMemoryProductRepository) GetByName(_ context.Context, name string) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (r *InMemoryProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.GetByName(ctx, name)
	if err == ErrProductNotFound {
		return false, nil
	}
	return err == nil, err
}

// Update modifies an existing product in the repository.
func (r *InMemoryProductRepository) Update(_ context.Context, product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.products {
		if p.ID == product.ID {
			idx = i
		} else if p.Name == product.Name {
			return models.Product{}, ErrDuplicatedValueUnique
		}
	}
	if idx < 0 {
		return models.Product{}, ErrProductNotFound
	}
	product.CreatedAt = r.products[idx].CreatedAt
	product.CreatedBy = r.products[idx].CreatedBy
	r.products[idx] = product
	return product, nil
}

// Delete removes a product from the repository by its ID.
func (r *InMemoryProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return ErrProductNotFound
}

func (r *InMemoryProductRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}

// Newest returns the most recently created product, if any.
func (r *InMemoryProductRepository) Newest() (models.Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest models.Product
	found := false
	for _, p := range r.products {
		if !found || p.CreatedAt.After(newest.CreatedAt) {
			newest = p
			found = true
		}
	}
	return newest, found
}

func (r *InMemoryProductRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = []models.Product{}
}
