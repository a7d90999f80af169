package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found or expired")

// RefreshStore keeps opaque refresh tokens mapped to the owning user id.
type RefreshStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, token string) error
}

func NewRefreshToken() string {
	return uuid.NewString()
}

type refreshEntry struct {
	userID  uuid.UUID
	expires time.Time
}

type MemoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]refreshEntry
	now    func() time.Time
}

func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{tokens: map[string]refreshEntry{}, now: time.Now}
}

func (s *MemoryRefreshStore) Save(_ context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = refreshEntry{userID: userID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryRefreshStore) Lookup(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tokens[token]
	if !ok || !s.now().Before(e.expires) {
		delete(s.tokens, token)
		return uuid.Nil, ErrRefreshTokenNotFound
	}
	return e.userID, nil
}

func (s *MemoryRefreshStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// Sweep drops expired tokens and returns how many were removed.
func (s *MemoryRefreshStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, e := range s.tokens {
		if !now.Before(e.expires) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed
}

// StartCleaner sweeps expired tokens every interval until ctx is done.
func (s *MemoryRefreshStore) StartCleaner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

const refreshKeyPrefix = "refresh:"

// RedisRefreshStore relies on key expiry instead of a sweep loop.
type RedisRefreshStore struct {
	rdb *redis.Client
}

func NewRedisRefreshStore(rdb *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{rdb: rdb}
}

func (s *RedisRefreshStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return errors.Wrap(s.rdb.Set(ctx, refreshKeyPrefix+token, userID.String(), ttl).Err(), "store refresh token")
}

func (s *RedisRefreshStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.rdb.Get(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "read refresh token")
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrRefreshTokenNotFound
	}
	return id, nil
}

func (s *RedisRefreshStore) Revoke(ctx context.Context, token string) error {
	return errors.Wrap(s.rdb.Del(ctx, refreshKeyPrefix+token).Err(), "revoke refresh token")
}
