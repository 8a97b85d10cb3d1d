package cachestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-mining/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const workerDecisionCacheKeyPrefix = "go-mining::worker_decision::v1"

// CachedWorkerManager memoizes authorization decisions of another
// WorkerManager, so repeated logins from the same rig skip the base lookup.
type CachedWorkerManager struct {
	base   core.WorkerManager
	cache  repositorycache.CacheService
	logger core.Logger
}

func NewCachedWorkerManager(
	base core.WorkerManager,
	cacheService repositorycache.CacheService,
) (*CachedWorkerManager, error) {
	if base == nil {
		return nil, fmt.Errorf("cachestore: base worker manager is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("cachestore: worker cache service is required")
	}
	return &CachedWorkerManager{base: base, cache: cacheService, logger: glog.Nop()}, nil
}

// WithLogger sets the logger used for cache failures.
func (m *CachedWorkerManager) WithLogger(logger core.Logger) *CachedWorkerManager {
	if m != nil && logger != nil {
		m.logger = logger
	}
	return m
}

// WorkerDecisionCacheKey returns the cache key for a login attempt:
// go-mining::worker_decision::v1::<worker_name>::<password_digest>
// The worker name is trimmed and URL-path escaped. The password never
// appears in the key.
func WorkerDecisionCacheKey(workerName, workerPassword string) (string, error) {
	name := strings.TrimSpace(workerName)
	if name == "" {
		return "", fmt.Errorf("cachestore: worker name is required")
	}
	digest := sha256.Sum256([]byte(workerPassword))
	return strings.Join([]string{
		workerDecisionCacheKeyPrefix,
		url.PathEscape(name),
		hex.EncodeToString(digest[:8]),
	}, "::"), nil
}

func (m *CachedWorkerManager) Authorize(ctx context.Context, workerName string, workerPassword string) bool {
	if m == nil || m.base == nil {
		return false
	}
	if m.cache == nil {
		return m.base.Authorize(ctx, workerName, workerPassword)
	}
	cacheKey, err := WorkerDecisionCacheKey(workerName, workerPassword)
	if err != nil {
		return m.base.Authorize(ctx, workerName, workerPassword)
	}

	allowed, err := repositorycache.GetOrFetch(ctx, m.cache, cacheKey, func(ctx context.Context) (bool, error) {
		return m.base.Authorize(ctx, workerName, workerPassword), nil
	})
	if err != nil {
		core.LogEvent(ctx, m.logger, "warn", "worker decision cache unavailable", map[string]any{
			"event_type":  "worker_cache",
			"worker_name": strings.TrimSpace(workerName),
			"error":       err.Error(),
		})
		return m.base.Authorize(ctx, workerName, workerPassword)
	}
	return allowed
}

// Invalidate forgets the cached decision for one name/password pair.
func (m *CachedWorkerManager) Invalidate(ctx context.Context, workerName, workerPassword string) error {
	if m == nil || m.cache == nil {
		return fmt.Errorf("cachestore: cached worker manager is not configured")
	}
	cacheKey, err := WorkerDecisionCacheKey(workerName, workerPassword)
	if err != nil {
		return err
	}
	return m.cache.Delete(ctx, cacheKey)
}

// OnLoad forwards the base manager's readiness, or resolves immediately
// when the base has nothing to load.
func (m *CachedWorkerManager) OnLoad() *core.Readiness[bool] {
	if m != nil {
		if loader, ok := m.base.(core.Loader); ok {
			return loader.OnLoad()
		}
	}
	return core.Resolved(true)
}
