package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"securitysvc/internal/securitytype/metrics"
	"securitysvc/internal/securitytype/models"
	id "securitysvc/pkg/domain"
	"securitysvc/pkg/platform/circuit"
	"securitysvc/pkg/requestcontext"
)

// Store is the persistence contract shared by the memory and PostgreSQL stores.
type Store interface {
	Create(ctx context.Context, t *models.SecurityType) error
	FindByID(ctx context.Context, typeID id.SecurityTypeID) (*models.SecurityType, error)
	FindByIDs(ctx context.Context, ids []id.SecurityTypeID) (map[id.SecurityTypeID]*models.SecurityType, error)
	ListAll(ctx context.Context) ([]*models.SecurityType, error)
	UpdateIfVersion(ctx context.Context, t *models.SecurityType, expectedVersion int) (*models.SecurityType, error)
	DeleteIfVersion(ctx context.Context, typeID id.SecurityTypeID, expectedVersion int) error
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*CachedStore)(nil)
)

// Cache holds security type snapshots by id.
type Cache interface {
	GetMany(ctx context.Context, ids []id.SecurityTypeID) (map[id.SecurityTypeID]*models.SecurityType, error)
	// Fill stores snapshots loaded from the store, skipping ids that already
	// have an entry or were invalidated recently.
	Fill(ctx context.Context, types ...*models.SecurityType) error
	// Invalidate drops the entry for typeID and fences out fills that were
	// loaded before the write.
	Invalidate(ctx context.Context, typeID id.SecurityTypeID) error
}

// CachedStore reads security types through a cache and invalidates entries on
// every successful update or delete. Cache failures are logged and the read
// falls back to the underlying store; with a breaker configured, repeated
// failures bypass cache reads until the breaker lets a trial read through.
//
// A miss is only written back when no write went through this store while the
// miss was being loaded, so a slow reader cannot put back a snapshot that an
// update or delete has already replaced. UpdateIfVersion and DeleteIfVersion
// never consult the cache.
type CachedStore struct {
	next    Store
	cache   Cache
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics

	writes atomic.Uint64
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(s *CachedStore) {
		s.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(s *CachedStore) {
		s.metrics = m
	}
}

// WithCacheBreaker guards cache reads with b.
func WithCacheBreaker(b *circuit.Breaker) CacheOption {
	return func(s *CachedStore) {
		s.breaker = b
	}
}

// NewCached wraps next with cache.
func NewCached(next Store, cache Cache, opts ...CacheOption) *CachedStore {
	s := &CachedStore{next: next, cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CachedStore) Create(ctx context.Context, t *models.SecurityType) error {
	return s.next.Create(ctx, t)
}

func (s *CachedStore) FindByID(ctx context.Context, typeID id.SecurityTypeID) (*models.SecurityType, error) {
	found, err := s.FindByIDs(ctx, []id.SecurityTypeID{typeID})
	if err != nil {
		return nil, err
	}
	if t, ok := found[typeID]; ok {
		return t, nil
	}
	// Let the store report absence in its own terms.
	return s.next.FindByID(ctx, typeID)
}

// FindByIDs serves what it can from the cache and loads the rest in one store call.
func (s *CachedStore) FindByIDs(ctx context.Context, ids []id.SecurityTypeID) (map[id.SecurityTypeID]*models.SecurityType, error) {
	seen := s.writes.Load()
	out, healthy := s.lookup(ctx, ids)

	var missing []id.SecurityTypeID
	for _, typeID := range ids {
		if _, ok := out[typeID]; !ok {
			missing = append(missing, typeID)
		}
	}
	if healthy {
		s.observe("hit", len(ids)-len(missing))
		s.observe("miss", len(missing))
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := s.next.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	fill := make([]*models.SecurityType, 0, len(loaded))
	for typeID, t := range loaded {
		out[typeID] = t
		fill = append(fill, t)
	}
	if !healthy || len(fill) == 0 {
		return out, nil
	}
	if s.writes.Load() != seen {
		s.observe("stale", len(fill))
		return out, nil
	}
	if err := s.cache.Fill(ctx, fill...); err != nil {
		s.warn(ctx, "security type cache fill failed", err)
	}
	return out, nil
}

// lookup reads ids from the cache. healthy is false when the cache was skipped
// or failed, in which case the returned map is empty.
func (s *CachedStore) lookup(ctx context.Context, ids []id.SecurityTypeID) (_ map[id.SecurityTypeID]*models.SecurityType, healthy bool) {
	if s.breaker != nil && !s.breaker.Allow() {
		s.observe("bypass", len(ids))
		return make(map[id.SecurityTypeID]*models.SecurityType, len(ids)), false
	}
	cached, err := s.cache.GetMany(ctx, ids)
	if err != nil {
		s.warn(ctx, "security type cache read failed", err)
		s.observe("error", len(ids))
		if s.breaker != nil && s.breaker.RecordFailure() {
			s.logger.WarnContext(ctx, "security type cache circuit opened",
				"request_id", requestcontext.RequestID(ctx),
				"breaker", s.breaker.Name(),
			)
		}
		return make(map[id.SecurityTypeID]*models.SecurityType, len(ids)), false
	}
	if s.breaker != nil && s.breaker.RecordSuccess() {
		s.logger.InfoContext(ctx, "security type cache circuit closed",
			"request_id", requestcontext.RequestID(ctx),
			"breaker", s.breaker.Name(),
		)
	}
	return cached, true
}

func (s *CachedStore) ListAll(ctx context.Context) ([]*models.SecurityType, error) {
	return s.next.ListAll(ctx)
}

func (s *CachedStore) UpdateIfVersion(ctx context.Context, t *models.SecurityType, expectedVersion int) (*models.SecurityType, error) {
	updated, err := s.next.UpdateIfVersion(ctx, t, expectedVersion)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, t.ID)
	return updated, nil
}

func (s *CachedStore) DeleteIfVersion(ctx context.Context, typeID id.SecurityTypeID, expectedVersion int) error {
	if err := s.next.DeleteIfVersion(ctx, typeID, expectedVersion); err != nil {
		return err
	}
	s.invalidate(ctx, typeID)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, typeID id.SecurityTypeID) {
	s.writes.Add(1)
	if err := s.cache.Invalidate(ctx, typeID); err != nil {
		s.warn(ctx, "security type cache invalidation failed", err, "security_type_id", typeID.String())
	}
}

func (s *CachedStore) observe(result string, n int) {
	if s.metrics != nil {
		s.metrics.ObserveCacheLookups(result, n)
	}
}

func (s *CachedStore) warn(ctx context.Context, msg string, err error, args ...any) {
	args = append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, args...)
	s.logger.WarnContext(ctx, msg, args...)
}

// -----------------------------------------------------------------------------
// Redis
// -----------------------------------------------------------------------------

const (
	redisKeyPrefix = "securitysvc:security_type:"
	// redisTombstone marks an invalidated key. Fills use SET NX, so they cannot
	// overwrite it until it expires.
	redisTombstone = "invalidated"
	// DefaultInvalidationFence is how long an invalidated key rejects fills.
	DefaultInvalidationFence = 10 * time.Second
)

// RedisCache stores security types as JSON strings with a TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	fence  time.Duration
}

// NewRedisCache builds a cache over client; entries expire after ttl.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, fence: DefaultInvalidationFence}
}

type cachedSecurityType struct {
	ID           uuid.UUID `json:"id"`
	Abbreviation string    `json:"abbreviation"`
	Description  string    `json:"description"`
	Version      int       `json:"version"`
}

func redisKey(typeID id.SecurityTypeID) string {
	return redisKeyPrefix + typeID.String()
}

func (c *RedisCache) GetMany(ctx context.Context, ids []id.SecurityTypeID) (map[id.SecurityTypeID]*models.SecurityType, error) {
	out := make(map[id.SecurityTypeID]*models.SecurityType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, typeID := range ids {
		keys[i] = redisKey(typeID)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return out, nil
		}
		return nil, fmt.Errorf("mget security types: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok || raw == redisTombstone {
			continue
		}
		var cached cachedSecurityType
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			return nil, fmt.Errorf("decode cached security type: %w", err)
		}
		t := &models.SecurityType{
			ID:           id.SecurityTypeID(cached.ID),
			Abbreviation: cached.Abbreviation,
			Description:  cached.Description,
			Version:      cached.Version,
		}
		out[t.ID] = t
	}
	return out, nil
}

func (c *RedisCache) Fill(ctx context.Context, types ...*models.SecurityType) error {
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range types {
			raw, err := json.Marshal(cachedSecurityType{
				ID:           uuid.UUID(t.ID),
				Abbreviation: t.Abbreviation,
				Description:  t.Description,
				Version:      t.Version,
			})
			if err != nil {
				return fmt.Errorf("encode security type: %w", err)
			}
			pipe.SetNX(ctx, redisKey(t.ID), raw, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("fill security types: %w", err)
	}
	return nil
}

// Invalidate replaces the entry with a tombstone that lives for the fence
// window. Other instances that loaded the old row before the write cannot
// fill it back while the tombstone is present.
func (c *RedisCache) Invalidate(ctx context.Context, typeID id.SecurityTypeID) error {
	if err := c.client.Set(ctx, redisKey(typeID), redisTombstone, c.fence).Err(); err != nil {
		return fmt.Errorf("invalidate cached security type: %w", err)
	}
	return nil
}
