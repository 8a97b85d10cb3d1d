package ratelimit

import (
	"fmt"

	"github.com/goliatone/go-mining/core"
	"github.com/goliatone/go-mining/settings"
)

// StateStoreDecorator may replace the vardiff state store when the limiter
// is built, e.g. to put a cache in front of it.
type StateStoreDecorator func(env core.Env, base StateStore) (StateStore, error)

type RegisterOption func(*registerOptions)

type registerOptions struct {
	decorators []StateStoreDecorator
}

func WithStateStoreDecorator(decorator StateStoreDecorator) RegisterOption {
	return func(o *registerOptions) {
		if decorator != nil {
			o.decorators = append(o.decorators, decorator)
		}
	}
}

// Register adds the vardiff share limiter to catalog. The factory reads its
// limits from the pool settings and its clock and reporter from the slots
// installed before it.
func Register(catalog *core.Catalog, opts ...RegisterOption) error {
	if catalog == nil {
		return fmt.Errorf("ratelimit: catalog is required")
	}
	var options registerOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return catalog.Register(core.SlotShareLimiter, PolicyVardiff, func(env core.Env) (any, error) {
		return newVardiffFromEnv(env, options)
	})
}

func newVardiffFromEnv(env core.Env, options registerOptions) (any, error) {
	pool, err := settings.DecodePool(settings.New(env.Settings))
	if err != nil {
		return nil, err
	}
	var store StateStore = NewMemoryStateStore()
	for _, decorate := range options.decorators {
		if store, err = decorate(env, store); err != nil {
			return nil, err
		}
	}
	opts := []VardiffOption{WithLogger(env.Logger), WithStateStore(store)}
	if clock, ok := env.Registry.Timestamper(); ok {
		opts = append(opts, WithClock(clock))
	}
	if reporter, ok := env.Registry.Reporter(); ok {
		opts = append(opts, WithReporter(reporter))
	}
	return NewVardiffLimiter(LimitsFromSettings(pool), opts...), nil
}
