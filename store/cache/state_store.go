package cachestore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-mining/core"
	"github.com/goliatone/go-mining/ratelimit"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const vardiffStateCacheKeyPrefix = "go-mining::vardiff_state::v1"

// CachedStateStore fronts a slower vardiff StateStore with a read cache.
// Writes go to the base store and invalidate the cached entry.
type CachedStateStore struct {
	base  ratelimit.StateStore
	cache repositorycache.CacheService
}

func NewCachedStateStore(
	base ratelimit.StateStore,
	cacheService repositorycache.CacheService,
) (*CachedStateStore, error) {
	if base == nil {
		return nil, fmt.Errorf("cachestore: base vardiff state store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("cachestore: vardiff cache service is required")
	}
	return &CachedStateStore{base: base, cache: cacheService}, nil
}

// VardiffStateCacheKey returns go-mining::vardiff_state::v1::<connection>.
func VardiffStateCacheKey(conn core.ConnectionHandle) string {
	return strings.Join([]string{vardiffStateCacheKeyPrefix, strconv.FormatUint(uint64(conn), 10)}, "::")
}

func (s *CachedStateStore) Get(ctx context.Context, conn core.ConnectionHandle) (ratelimit.State, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return ratelimit.State{}, fmt.Errorf("cachestore: cached vardiff state store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, VardiffStateCacheKey(conn), func(ctx context.Context) (ratelimit.State, error) {
		return s.base.Get(ctx, conn)
	})
}

func (s *CachedStateStore) Upsert(ctx context.Context, state ratelimit.State) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("cachestore: cached vardiff state store is not configured")
	}
	if err := s.base.Upsert(ctx, state); err != nil {
		return err
	}
	return s.cache.Delete(ctx, VardiffStateCacheKey(state.Connection))
}

func (s *CachedStateStore) Delete(ctx context.Context, conn core.ConnectionHandle) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("cachestore: cached vardiff state store is not configured")
	}
	if err := s.base.Delete(ctx, conn); err != nil {
		return err
	}
	return s.cache.Delete(ctx, VardiffStateCacheKey(conn))
}

// List reads through to the base store; the sweep needs every connection,
// not just the cached ones.
func (s *CachedStateStore) List(ctx context.Context) ([]ratelimit.State, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("cachestore: cached vardiff state store is not configured")
	}
	return s.base.List(ctx)
}
