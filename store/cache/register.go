package cachestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-mining/core"
	"github.com/goliatone/go-mining/ratelimit"
	"github.com/goliatone/go-mining/settings"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const (
	PolicyCached = "cached"

	// WorkerCacheInnerSetting names the worker_manager policy being cached.
	WorkerCacheInnerSetting = "WORKER_CACHE_INNER"
	// WorkerCacheTTLSetting is the decision lifetime in seconds.
	WorkerCacheTTLSetting = "WORKER_CACHE_TTL_S"
	// StateCacheTTLSetting puts a read cache in front of the vardiff state
	// store when positive. It is the entry lifetime in seconds.
	StateCacheTTLSetting = "LIMITER_STATE_CACHE_TTL_S"

	defaultWorkerCacheTTLSeconds = 60
)

type workerCacheSettings struct {
	Inner      string `koanf:"WORKER_CACHE_INNER" mapstructure:"WORKER_CACHE_INNER"`
	TTLSeconds int    `koanf:"WORKER_CACHE_TTL_S" mapstructure:"WORKER_CACHE_TTL_S"`
}

type stateCacheSettings struct {
	TTLSeconds int `koanf:"LIMITER_STATE_CACHE_TTL_S" mapstructure:"LIMITER_STATE_CACHE_TTL_S"`
}

// CacheVardiffState is a ratelimit.StateStoreDecorator that fronts the
// vardiff state store with a CachedStateStore once StateCacheTTLSetting is
// positive, and leaves it alone otherwise.
func CacheVardiffState(env core.Env, base ratelimit.StateStore) (ratelimit.StateStore, error) {
	cfg, err := settings.Decode(settings.New(env.Settings), stateCacheSettings{})
	if err != nil {
		return nil, err
	}
	if cfg.TTLSeconds <= 0 {
		return base, nil
	}
	cacheService, err := NewCacheService(time.Duration(cfg.TTLSeconds) * time.Second)
	if err != nil {
		return nil, err
	}
	return NewCachedStateStore(base, cacheService)
}

// Register adds the cached worker manager to catalog. The inner policy is
// built from the same catalog, so it must not itself be "cached".
func Register(catalog *core.Catalog) error {
	if catalog == nil {
		return fmt.Errorf("cachestore: catalog is required")
	}
	return catalog.Register(core.SlotWorkerManager, PolicyCached, func(env core.Env) (any, error) {
		cfg, err := settings.Decode(settings.New(env.Settings), workerCacheSettings{
			Inner:      core.PolicyOpen,
			TTLSeconds: defaultWorkerCacheTTLSeconds,
		})
		if err != nil {
			return nil, err
		}
		inner := strings.ToLower(strings.TrimSpace(cfg.Inner))
		if inner == PolicyCached {
			return nil, fmt.Errorf("cachestore: %s cannot wrap itself", WorkerCacheInnerSetting)
		}
		base, err := catalog.Build(core.SlotWorkerManager, inner, env)
		if err != nil {
			return nil, err
		}
		cacheService, err := NewCacheService(time.Duration(cfg.TTLSeconds) * time.Second)
		if err != nil {
			return nil, err
		}
		manager, err := NewCachedWorkerManager(base.(core.WorkerManager), cacheService)
		if err != nil {
			return nil, err
		}
		return manager.WithLogger(env.Logger), nil
	})
}

// NewCacheService builds a repository cache with the given entry lifetime.
func NewCacheService(ttl time.Duration) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	if ttl > 0 {
		config.TTL = ttl
	}
	return repositorycache.NewCacheService(config)
}
