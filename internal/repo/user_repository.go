package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error)
	Update(ctx context.Context, u models.User) (models.User, error)
	// Usernames resolves user ids to usernames. Unknown ids are absent from the result.
	Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
