package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// ErrProductNotFound is returned when a product is not found in the repository.
var ErrProductNotFound = errors.New("product not found")

var ErrUserNotFound = errors.New("user not found")

// ErrDuplicatedValueUnique is returned when an insert or update violates a unique index.
var ErrDuplicatedValueUnique = errors.New("duplicated value for unique field")

var ErrInvalidSortField = errors.New("invalid sort field")

const queryTimeout = 3 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
