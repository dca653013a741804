package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/telewarm/warmup-engine-go/internal/redis"
)

// LeaseManager grants per-account exclusive leases. A cycle must hold the
// lease for its account before it starts and release it unconditionally
// when it ends; this is what keeps a manual trigger from overlapping a
// scheduled cycle for the same account.
type LeaseManager interface {
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string)
}

// RedisLeaseManager backs leases with SETNX + TTL so exclusivity holds
// across processes. The TTL is a crash guard: an orphaned lease expires on
// its own.
type RedisLeaseManager struct {
	redis *redisclient.Client
	ttl   time.Duration
}

func NewRedisLeaseManager(redis *redisclient.Client, ttl time.Duration) *RedisLeaseManager {
	return &RedisLeaseManager{redis: redis, ttl: ttl}
}

func (m *RedisLeaseManager) Acquire(ctx context.Context, sessionID string) (bool, error) {
	ok, err := m.redis.SetNX(ctx, redisclient.LeaseKey(sessionID), time.Now().Unix(), m.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (m *RedisLeaseManager) Release(ctx context.Context, sessionID string) {
	if err := m.redis.Del(ctx, redisclient.LeaseKey(sessionID)).Err(); err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to release warmup lease")
	}
}

// MemoryLeaseManager is the single-process fallback used when redis is not
// configured, mirroring the redis semantics including TTL expiry.
type MemoryLeaseManager struct {
	mu     sync.Mutex
	leases map[string]time.Time
	ttl    time.Duration
}

func NewMemoryLeaseManager(ttl time.Duration) *MemoryLeaseManager {
	return &MemoryLeaseManager{
		leases: make(map[string]time.Time),
		ttl:    ttl,
	}
}

func (m *MemoryLeaseManager) Acquire(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if expiry, held := m.leases[sessionID]; held && now.Before(expiry) {
		return false, nil
	}
	m.leases[sessionID] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryLeaseManager) Release(_ context.Context, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leases, sessionID)
}
