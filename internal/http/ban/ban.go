// Package ban counts rate-limit strikes per client and bans repeat offenders.
package ban

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const BanLogKey = "ratelimit:banlog"

type Entry struct {
	Target  string    `json:"target"`
	Route   string    `json:"route"`
	Strikes int       `json:"strikes"`
	Time    time.Time `json:"time"`
}

type Policy struct {
	Threshold int
	Duration  time.Duration
}

// Store tracks strikes and bans. Strike counters expire after the ban duration.
type Store interface {
	IsBanned(ctx context.Context, target string) (bool, error)
	// Strike records a rejected request and reports whether the target is now banned.
	Strike(ctx context.Context, target, route string) (bool, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type RedisStore struct {
	rdb    *redis.Client
	policy Policy
}

func NewRedisStore(rdb *redis.Client, policy Policy) *RedisStore {
	return &RedisStore{rdb: rdb, policy: policy}
}

func strikeKey(target string) string { return fmt.Sprintf("ratelimit:strikes:%s", target) }
func banKey(target string) string    { return fmt.Sprintf("ratelimit:ban:%s", target) }

func (s *RedisStore) IsBanned(ctx context.Context, target string) (bool, error) {
	n, err := s.rdb.Exists(ctx, banKey(target)).Result()
	if err != nil {
		return false, errors.Wrap(err, "check ban")
	}
	return n > 0, nil
}

func (s *RedisStore) Strike(ctx context.Context, target, route string) (bool, error) {
	strikes, err := s.rdb.Incr(ctx, strikeKey(target)).Result()
	if err != nil {
		return false, errors.Wrap(err, "record strike")
	}
	if strikes == 1 {
		_ = s.rdb.Expire(ctx, strikeKey(target), s.policy.Duration).Err()
	}
	if int(strikes) < s.policy.Threshold {
		return false, nil
	}

	if err := s.rdb.Set(ctx, banKey(target), "1", s.policy.Duration).Err(); err != nil {
		return false, errors.Wrap(err, "ban target")
	}
	_ = s.rdb.Del(ctx, strikeKey(target)).Err()

	data, _ := json.Marshal(Entry{Target: target, Route: route, Strikes: int(strikes), Time: time.Now().UTC()})
	_ = s.rdb.RPush(ctx, BanLogKey, data).Err()
	return true, nil
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	items, err := s.rdb.LRange(ctx, BanLogKey, int64(-limit), -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read ban log")
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

type strikeCount struct {
	count   int
	expires time.Time
}

type MemoryStore struct {
	policy Policy

	mu      sync.Mutex
	strikes map[string]strikeCount
	bans    map[string]time.Time
	log     []Entry
	now     func() time.Time
}

func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{
		policy:  policy,
		strikes: map[string]strikeCount{},
		bans:    map[string]time.Time{},
		now:     time.Now,
	}
}

func (s *MemoryStore) IsBanned(_ context.Context, target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.bans[target]
	if ok && !s.now().Before(until) {
		delete(s.bans, target)
		return false, nil
	}
	return ok, nil
}

func (s *MemoryStore) Strike(_ context.Context, target, route string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sc := s.strikes[target]
	if sc.count == 0 || !now.Before(sc.expires) {
		sc = strikeCount{expires: now.Add(s.policy.Duration)}
	}
	sc.count++

	if sc.count < s.policy.Threshold {
		s.strikes[target] = sc
		return false, nil
	}

	delete(s.strikes, target)
	s.bans[target] = now.Add(s.policy.Duration)
	s.log = append(s.log, Entry{Target: target, Route: route, Strikes: sc.count, Time: now.UTC()})
	return true, nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if limit > 0 && len(s.log) > limit {
		start = len(s.log) - limit
	}
	return append([]Entry{}, s.log[start:]...), nil
}
