package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/rogerio-castellano/product-management/internal/models"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, phone_number, roles, status, created_at, updated_at, last_login`

func scanUser(row rowScanner) (models.User, error) {
	var (
		u         models.User
		roles     string
		status    string
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &roles, &status, &u.CreatedAt, &u.UpdatedAt, &lastLogin)
	if err != nil {
		return models.User{}, err
	}
	u.Roles = splitRoles(roles)
	u.Status = models.UserStatus(status)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLogin = &t
	}
	return u, nil
}

func joinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func splitRoles(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func (r *PostgresUserRepository) Create(ctx context.Context, u models.User) (models.User, error) {
	query := `INSERT INTO users (username, email, password_hash, first_name, last_name, phone_number, roles, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.PhoneNumber, joinRoles(u.Roles), string(u.Status), u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if isUniqueViolation(err) {
		return models.User{}, ErrDuplicatedValueUnique
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "insert user")
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "select user")
	}
	return u, nil
}

func (r *PostgresUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *PostgresUserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&exists)
	return exists, errors.Wrap(err, "check user")
}

func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
}

func (r *PostgresUserRepository) ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE status = $1 ORDER BY created_at, id`, string(status))
}

func (r *PostgresUserRepository) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, u)
	}
	return users, errors.Wrap(rows.Err(), "iterate users")
}

func (r *PostgresUserRepository) Update(ctx context.Context, u models.User) (models.User, error) {
	query := `UPDATE users SET username = $1, email = $2, password_hash = $3, first_name = $4, last_name = $5,
		phone_number = $6, roles = $7, status = $8, updated_at = $9, last_login = $10 WHERE id = $11`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.PhoneNumber, joinRoles(u.Roles), string(u.Status), u.UpdatedAt, u.LastLogin, u.ID)
	if isUniqueViolation(err) {
		return models.User{}, ErrDuplicatedValueUnique
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "update user")
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *PostgresUserRepository) Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, username FROM users WHERE id = ANY($1::uuid[])`, keys)
	if err != nil {
		return nil, errors.Wrap(err, "resolve usernames")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errors.Wrap(err, "scan username")
		}
		names[id] = name
	}
	return names, errors.Wrap(rows.Err(), "iterate usernames")
}
