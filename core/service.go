package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// Setup resolves the policy configuration and returns a registry with
// every capability slot populated, ready to accept traffic.
func Setup(cfg Config, opts ...Option) (*Registry, error) {
	builder := defaultSetupBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("pool", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("pool"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.catalog == nil {
		builder.catalog = NewBuiltinCatalog()
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(SettingsConfigLoader{Settings: builder.settings})
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, MapError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, MapError(err)
	}

	registry := NewRegistry()
	env := Env{
		Config:   finalConfig,
		Settings: builder.settings,
		Logger:   logger,
		Registry: registry,
	}

	// The runtime identity is stamped from the wall clock so building the
	// pool never consumes readings from the installed Timestamper.
	env.Runtime = builder.runtime
	if env.Runtime.IsZero() {
		env.Runtime = NewRuntimeIdentity(WallClockTimestamper{})
	}

	// Timestamper is built first so later factories read the installed clock.
	for _, slot := range CapabilitySlots {
		instance, ok := builder.instances[slot]
		if !ok {
			instance, err = builder.catalog.Build(slot, finalConfig.Policies.For(slot), env)
			if err != nil {
				return nil, MapError(err)
			}
		}
		if reporter, ok := instance.(Reporter); ok && slot == SlotReporter && builder.reportFilter != nil {
			instance = &FilteredReporter{Reporter: reporter, Allow: builder.reportFilter}
		}
		if err := registry.Set(slot, instance); err != nil {
			return nil, MapError(err)
		}
	}
	for _, slot := range CollaboratorSlots {
		instance, ok := builder.instances[slot]
		if !ok || instance == nil {
			continue
		}
		if err := registry.Set(slot, instance); err != nil {
			return nil, MapError(err)
		}
	}

	LogEvent(context.Background(), logger, "info", "pool policies installed", map[string]any{
		"event_type": "setup",
		"pool_name":  finalConfig.PoolName,
		"runtime_id": env.Runtime.ID,
		"policies":   finalConfig.Policies.asMap(true),
	})
	return registry, nil
}
