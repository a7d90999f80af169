package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/models"
)

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users []models.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: []models.User{},
	}
}

func (r *InMemoryUserRepository) Create(_ context.Context, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == u.Username || user.Email == u.Email {
			return models.User{}, ErrDuplicatedValueUnique
		}
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Roles = append([]string(nil), u.Roles...)
	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryUserRepository) find(match func(models.User) bool) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *InMemoryUserRepository) GetByUsername(_ context.Context, username string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *InMemoryUserRepository) GetByEmail(_ context.Context, email string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *InMemoryUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *InMemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *InMemoryUserRepository) List(_ context.Context) ([]models.User, error) {
	return r.filter(func(models.User) bool { return true }), nil
}

func (r *InMemoryUserRepository) ListByStatus(_ context.Context, status models.UserStatus) ([]models.User, error) {
	return r.filter(func(u models.User) bool { return u.Status == status }), nil
}

func (r *InMemoryUserRepository) filter(keep func(models.User) bool) []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []models.User{}
	for _, u := range r.users {
		if keep(u) {
			users = append(users, u)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}

func (r *InMemoryUserRepository) Update(_ context.Context, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, user := range r.users {
		if user.ID == u.ID {
			idx = i
		} else if user.Username == u.Username || user.Email == u.Email {
			return models.User{}, ErrDuplicatedValueUnique
		}
	}
	if idx < 0 {
		return models.User{}, ErrUserNotFound
	}
	r.users[idx] = u
	return u, nil
}

func (r *InMemoryUserRepository) Usernames(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		for _, u := range r.users {
			if u.ID == id {
				names[id] = u.Username
				break
			}
		}
	}
	return names, nil
}

// Remove drops a user outright, leaving dangling actor references behind.
func (r *InMemoryUserRepository) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return
		}
	}
}
