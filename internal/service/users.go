package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/auth"
	"github.com/rogerio-castellano/product-management/internal/logger"
	"github.com/rogerio-castellano/product-management/internal/models"
	"github.com/rogerio-castellano/product-management/internal/repo"
)

type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Roles       []string
}

// UpdateUserInput applies only the non-nil fields.
type UpdateUserInput struct {
	Username    *string
	Email       *string
	Password    *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Roles       []string
}

type UserService struct {
	users repo.UserRepository
	now   func() time.Time
}

func NewUserService(users repo.UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

func (s *UserService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Register creates a self-service account; requested roles are ignored.
func (s *UserService) Register(ctx context.Context, in CreateUserInput) (models.User, error) {
	in.Roles = nil
	return s.create(ctx, in)
}

// Create lets an administrator create a user with explicit roles.
func (s *UserService) Create(ctx context.Context, caller string, in CreateUserInput) (models.User, error) {
	actor, err := resolveCaller(ctx, s.users, caller)
	if err != nil {
		return models.User{}, err
	}
	if len(in.Roles) > 0 && !actor.HasRole(models.RoleAdmin) {
		return models.User{}, apperr.Forbidden("only administrators can assign roles")
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in CreateUserInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	errs := map[string]string{}
	validateUsername(errs, in.Username)
	validateEmail(errs, in.Email)
	validatePassword(errs, in.Password)
	roles, ok := normalizeRoles(in.Roles)
	if !ok {
		errs["roles"] = "Roles must be USER or ADMIN"
	}
	if len(errs) > 0 {
		return models.User{}, apperr.Validation(errs)
	}

	if err := s.ensureAvailable(ctx, in.Username, in.Email); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}

	now := s.timestamp()
	user, err := s.users.Create(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Roles:        roles,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, repo.ErrDuplicatedValueUnique) {
		return models.User{}, apperr.Conflict("Username or email already exists")
	}
	if err != nil {
		return models.User{}, err
	}

	logger.FromContext(ctx).Info("user created", zap.String("id", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, username, email string) error {
	if username != "" {
		taken, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("Username already exists")
		}
	}
	if email != "" {
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("Email already exists")
		}
	}
	return nil
}

func normalizeRoles(roles []string) ([]string, bool) {
	if len(roles) == 0 {
		return []string{models.RoleUser}, true
	}
	seen := map[string]bool{}
	out := []string{}
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r != models.RoleUser && r != models.RoleAdmin {
			return nil, false
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out, true
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repo.ErrUserNotFound) {
		return models.User{}, apperr.NotFound("User", "id", id)
	}
	return u, err
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repo.ErrUserNotFound) {
		return models.User{}, apperr.NotFound("User", "username", username)
	}
	return u, err
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) ListActive(ctx context.Context) ([]models.User, error) {
	return s.users.ListByStatus(ctx, models.StatusActive)
}

// Current returns the caller's own record.
func (s *UserService) Current(ctx context.Context, caller string) (models.User, error) {
	return resolveCaller(ctx, s.users, caller)
}

// Update applies a partial change. Users may edit themselves; administrators may edit anyone
// and are the only ones allowed to change roles.
func (s *UserService) Update(ctx context.Context, caller string, id uuid.UUID, in UpdateUserInput) (models.User, error) {
	actor, err := resolveCaller(ctx, s.users, caller)
	if err != nil {
		return models.User{}, err
	}
	isAdmin := actor.HasRole(models.RoleAdmin)
	if actor.ID != id && !isAdmin {
		return models.User{}, apperr.Forbidden("cannot modify another user")
	}
	if in.Roles != nil && !isAdmin {
		return models.User{}, apperr.Forbidden("only administrators can assign roles")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	errs := map[string]string{}
	var newUsername, newEmail string

	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		validateUsername(errs, v)
		if v != user.Username {
			newUsername = v
		}
	}
	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		validateEmail(errs, v)
		if v != user.Email {
			newEmail = v
		}
	}
	if in.Password != nil {
		validatePassword(errs, *in.Password)
	}
	var roles []string
	if in.Roles != nil {
		var ok bool
		if roles, ok = normalizeRoles(in.Roles); !ok {
			errs["roles"] = "Roles must be USER or ADMIN"
		}
	}
	if len(errs) > 0 {
		return models.User{}, apperr.Validation(errs)
	}

	if err := s.ensureAvailable(ctx, newUsername, newEmail); err != nil {
		return models.User{}, err
	}

	if newUsername != "" {
		user.Username = newUsername
	}
	if newEmail != "" {
		user.Email = newEmail
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return models.User{}, errors.Wrap(err, "hash password")
		}
		user.PasswordHash = hash
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if roles != nil {
		user.Roles = roles
	}

	return s.save(ctx, user)
}

// Delete is a soft delete: the record stays so actor references keep resolving.
func (s *UserService) Delete(ctx context.Context, caller string, id uuid.UUID) error {
	_, err := s.setStatus(ctx, caller, id, models.StatusDeleted)
	return err
}

func (s *UserService) Activate(ctx context.Context, caller string, id uuid.UUID) (models.User, error) {
	return s.setStatus(ctx, caller, id, models.StatusActive)
}

func (s *UserService) Deactivate(ctx context.Context, caller string, id uuid.UUID) (models.User, error) {
	return s.setStatus(ctx, caller, id, models.StatusInactive)
}

func (s *UserService) setStatus(ctx context.Context, caller string, id uuid.UUID, status models.UserStatus) (models.User, error) {
	actor, err := resolveCaller(ctx, s.users, caller)
	if err != nil {
		return models.User{}, err
	}
	if !actor.HasRole(models.RoleAdmin) {
		return models.User{}, apperr.Forbidden("administrator role required")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Status = status

	saved, err := s.save(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	logger.FromContext(ctx).Info("user status changed",
		zap.String("id", id.String()), zap.String("status", string(status)), zap.String("by", actor.Username))
	return saved, nil
}

// RecordLogin stamps the last successful login.
func (s *UserService) RecordLogin(ctx context.Context, user models.User) (models.User, error) {
	now := s.timestamp()
	user.LastLogin = &now
	return s.users.Update(ctx, user)
}

func (s *UserService) save(ctx context.Context, user models.User) (models.User, error) {
	user.UpdatedAt = s.timestamp()
	saved, err := s.users.Update(ctx, user)
	switch {
	case errors.Is(err, repo.ErrDuplicatedValueUnique):
		return models.User{}, apperr.Conflict("Username or email already exists")
	case errors.Is(err, repo.ErrUserNotFound):
		return models.User{}, apperr.NotFound("User", "id", user.ID)
	}
	return saved, err
}
