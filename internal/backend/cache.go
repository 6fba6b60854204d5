package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"chitti-admin/internal/config"
	"chitti-admin/internal/models"
)

const (
	keyCustomers    = "chitti:customers"
	keyCustomersAll = "chitti:customers:all"
	keyPayments     = "chitti:payments"
	keySummary      = "chitti:gold_users_summary"
	keyCollection   = "chitti:gold"
	keyMetalRates   = "chitti:metal_rates"
)

// ConnectRedis returns nil, nil when no REDIS_URL is configured.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts := &redis.Options{Addr: cfg.RedisURL}
	if strings.Contains(cfg.RedisURL, "://") {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB != 0 {
		opts.DB = cfg.RedisDB
	}
	opts.PoolSize = 20
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// CachedAPI collapses concurrent list fetches and, when redis is set, keeps whole
// collections for ttl. Every write drops the collections it can change. Redis
// failures are logged and the backend is asked directly.
//
// Callers share the slices returned by list methods and must not modify them.
type CachedAPI struct {
	API
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group

	// gens counts invalidations per key. A fetch only caches its rows if no
	// invalidation of that key happened while it ran.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewCachedAPI(api API, rdb *redis.Client, ttl time.Duration) *CachedAPI {
	return &CachedAPI{API: api, redis: rdb, ttl: ttl, gens: make(map[string]uint64)}
}

func (c *CachedAPI) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

func cachedList[T any](ctx context.Context, c *CachedAPI, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if rows, ok := readCache[T](ctx, c, key); ok {
		return rows, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.generation(key)
		// A caller going away must not fail the others waiting on the same fetch.
		rows, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		writeCache(ctx, c, key, gen, rows)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

func readCache[T any](ctx context.Context, c *CachedAPI, key string) ([]T, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rows []T
		if err := json.Unmarshal(data, &rows); err != nil {
			log.Printf("Failed to unmarshal cached %s (continuing with backend): %v", key, err)
			return nil, false
		}
		return rows, true
	case errors.Is(err, redis.Nil):
	default:
		log.Printf("Redis error (continuing with backend): %v", err)
	}
	return nil, false
}

// writeCache stores rows fetched at generation gen. The check and the SET happen under
// mu so an invalidation either lands first (the rows are dropped) or after (its DEL
// removes them).
func writeCache[T any](ctx context.Context, c *CachedAPI, key string, gen uint64, rows []T) {
	if c.redis == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		log.Printf("Failed to marshal %s: %v", key, err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return
	}
	if err := c.redis.Set(context.WithoutCancel(ctx), key, data, c.ttl).Err(); err != nil {
		log.Printf("failed to cache %s: %v", key, err)
	}
}

func (c *CachedAPI) invalidate(ctx context.Context, keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		c.gens[k]++
		// Later callers start a fresh fetch instead of joining one that predates the write.
		c.group.Forget(k)
	}
	c.mu.Unlock()
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(context.WithoutCancel(ctx), keys...).Err(); err != nil {
		log.Printf("Failed to delete cache %v: %v", keys, err)
	}
}

func (c *CachedAPI) ListCustomers(ctx context.Context) ([]models.Member, error) {
	return cachedList(ctx, c, keyCustomers, c.API.ListCustomers)
}

func (c *CachedAPI) ListAllCustomers(ctx context.Context) ([]models.MemberRecord, error) {
	return cachedList(ctx, c, keyCustomersAll, c.API.ListAllCustomers)
}

func (c *CachedAPI) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return cachedList(ctx, c, keyPayments, c.API.ListPayments)
}

func (c *CachedAPI) GoldUsersSummary(ctx context.Context) ([]models.MemberSummary, error) {
	return cachedList(ctx, c, keySummary, c.API.GoldUsersSummary)
}

func (c *CachedAPI) ListCollection(ctx context.Context) ([]models.CollectionItem, error) {
	return cachedList(ctx, c, keyCollection, c.API.ListCollection)
}

func (c *CachedAPI) ListMetalRates(ctx context.Context) ([]models.MetalRate, error) {
	return cachedList(ctx, c, keyMetalRates, c.API.ListMetalRates)
}

func (c *CachedAPI) CreateCustomer(ctx context.Context, in models.NewMember) (string, error) {
	defer c.invalidate(ctx, keyCustomers, keyCustomersAll, keySummary)
	return c.API.CreateCustomer(ctx, in)
}

func (c *CachedAPI) UpdateCustomer(ctx context.Context, in models.MemberStatusUpdate) (string, error) {
	defer c.invalidate(ctx, keyCustomers, keyCustomersAll, keySummary)
	return c.API.UpdateCustomer(ctx, in)
}

func (c *CachedAPI) CreatePayment(ctx context.Context, in models.NewPayment) (string, error) {
	defer c.invalidate(ctx, keyPayments, keyCustomersAll, keySummary)
	return c.API.CreatePayment(ctx, in)
}

func (c *CachedAPI) UpdatePayment(ctx context.Context, in models.PaymentStatusUpdate) (string, error) {
	defer c.invalidate(ctx, keyPayments, keyCustomersAll, keySummary)
	return c.API.UpdatePayment(ctx, in)
}

func (c *CachedAPI) CreateCollectionItem(ctx context.Context, in models.NewCollectionItem) (*models.CollectionItem, error) {
	defer c.invalidate(ctx, keyCollection)
	return c.API.CreateCollectionItem(ctx, in)
}

func (c *CachedAPI) DeleteCollectionItem(ctx context.Context, id models.ID) error {
	defer c.invalidate(ctx, keyCollection)
	return c.API.DeleteCollectionItem(ctx, id)
}

func (c *CachedAPI) CreateMetalRate(ctx context.Context, in models.NewMetalRate) (string, error) {
	defer c.invalidate(ctx, keyMetalRates)
	return c.API.CreateMetalRate(ctx, in)
}

func (c *CachedAPI) UpdateMetalRate(ctx context.Context, in models.MetalRateUpdate) (string, error) {
	defer c.invalidate(ctx, keyMetalRates)
	return c.API.UpdateMetalRate(ctx, in)
}
