package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/logger"
	"github.com/rogerio-castellano/product-management/internal/metrics"
	"github.com/rogerio-castellano/product-management/internal/models"
	"github.com/rogerio-castellano/product-management/internal/repo"
)

type ProductService struct {
	products  repo.ProductRepository
	users     repo.UserRepository
	projector *Projector
	now       func() time.Time
}

func NewProductService(products repo.ProductRepository, users repo.UserRepository) *ProductService {
	return &ProductService{
		products:  products,
		users:     users,
		projector: NewProjector(users),
		now:       time.Now,
	}
}

// timestamp returns the current instant at the precision the store keeps.
func (s *ProductService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *ProductService) Create(ctx context.Context, caller string, in ProductInput) (models.ProductView, error) {
	actor, err := resolveCaller(ctx, s.users, caller)
	if err != nil {
		return models.ProductView{}, err
	}

	in = in.normalize()
	if errs := validateProduct(in); len(errs) > 0 {
		return models.ProductView{}, apperr.Validation(errs)
	}

	exists, err := s.products.ExistsByName(ctx, in.Name)
	if err != nil {
		return models.ProductView{}, err
	}
	if exists {
		return models.ProductView{}, duplicateName(in.Name)
	}

	now := s.timestamp()
	product := models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		CreatedBy:   &actor.ID,
		UpdatedBy:   &actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.products.Create(ctx, product)
	if errors.Is(err, repo.ErrDuplicatedValueUnique) {
		return models.ProductView{}, duplicateName(in.Name)
	}
	if err != nil {
		return models.ProductView{}, err
	}

	metrics.RecordProductOperation("create")
	logger.FromContext(ctx).Info("product created",
		zap.String("id", created.ID.String()), zap.String("name", created.Name), zap.String("by", actor.Username))
	return s.projector.ProjectOne(ctx, created), nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (models.ProductView, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return models.ProductView{}, productLookupError(err, id)
	}
	metrics.RecordProductOperation("get")
	return s.projector.ProjectOne(ctx, product), nil
}

func (s *ProductService) Update(ctx context.Context, caller string, id uuid.UUID, in ProductInput) (models.ProductView, error) {
	actor, err := resolveCaller(ctx, s.users, caller)
	if err != nil {
		return models.ProductView{}, err
	}

	in = in.normalize()
	if errs := validateProduct(in); len(errs) > 0 {
		return models.ProductView{}, apperr.Validation(errs)
	}

	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return models.ProductView{}, productLookupError(err, id)
	}

	if in.Name != existing.Name {
		exists, err := s.products.ExistsByName(ctx, in.Name)
		if err != nil {
			return models.ProductView{}, err
		}
		if exists {
			return models.ProductView{}, duplicateName(in.Name)
		}
	}

	updatedAt := s.timestamp()
	if updatedAt.Before(existing.UpdatedAt) {
		updatedAt = existing.UpdatedAt
	}

	existing.Name = in.Name
	existing.Description = in.Description
	existing.Price = *in.Price
	existing.UpdatedBy = &actor.ID
	existing.UpdatedAt = updatedAt

	updated, err := s.products.Update(ctx, existing)
	switch {
	case errors.Is(err, repo.ErrDuplicatedValueUnique):
		return models.ProductView{}, duplicateName(in.Name)
	case err != nil:
		return models.ProductView{}, productLookupError(err, id)
	}

	metrics.RecordProductOperation("update")
	logger.FromContext(ctx).Info("product updated", zap.String("id", id.String()), zap.String("by", actor.Username))
	return s.projector.ProjectOne(ctx, updated), nil
}

func (s *ProductService) Delete(ctx context.Context, caller string, id uuid.UUID) error {
	actor, err := resolveCaller(ctx, s.users, caller)
	if err != nil {
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return productLookupError(err, id)
	}

	metrics.RecordProductOperation("delete")
	logger.FromContext(ctx).Info("product deleted", zap.String("id", id.String()), zap.String("by", actor.Username))
	return nil
}

// Search runs a validated filter and projects the resulting page.
func (s *ProductService) Search(ctx context.Context, f repo.ProductFilter) (models.Page[models.ProductView], error) {
	products, total, err := s.products.Search(ctx, f)
	if err != nil {
		return models.Page[models.ProductView]{}, err
	}
	metrics.RecordProductOperation("search")
	return models.NewPage(s.projector.Project(ctx, products), total, f.Page, f.Size), nil
}

// List is a search by name substring only.
func (s *ProductService) List(ctx context.Context, name string, page, size int, sortBy, direction string) (models.Page[models.ProductView], error) {
	f := repo.NewProductFilter()
	f.Name = name
	f.Page = page
	f.Size = size
	if sortBy != "" {
		f.SortBy = sortBy
	}
	if direction != "" {
		f.SortDirection = direction
	}
	return s.Search(ctx, f)
}

// FindByName backs the CSV import's skip/update decision.
func (s *ProductService) FindByName(ctx context.Context, name string) (models.Product, bool, error) {
	p, err := s.products.GetByName(ctx, name)
	if errors.Is(err, repo.ErrProductNotFound) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, err
	}
	return p, true, nil
}

func duplicateName(name string) error {
	return apperr.Conflict(fmt.Sprintf("Product with name '%s' already exists", name))
}

func productLookupError(err error, id uuid.UUID) error {
	if errors.Is(err, repo.ErrProductNotFound) {
		return apperr.NotFound("Product", "id", id)
	}
	return err
}

// resolveCaller loads the acting user. Unknown callers are unauthorized, non-active ones forbidden.
func resolveCaller(ctx context.Context, users repo.UserRepository, caller string) (models.User, error) {
	if caller == "" {
		return models.User{}, apperr.Unauthorized("authentication required")
	}
	u, err := users.GetByUsername(ctx, caller)
	if errors.Is(err, repo.ErrUserNotFound) {
		return models.User{}, apperr.Unauthorized("unknown user")
	}
	if err != nil {
		return models.User{}, err
	}
	if u.Status != models.StatusActive {
		return models.User{}, apperr.Forbidden("user is not active")
	}
	return u, nil
}
