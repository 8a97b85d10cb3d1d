package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// PolicySettingPrefix marks pool settings that select a slot policy, e.g.
// POLICY_SHARE_LIMITER=vardiff.
const PolicySettingPrefix = "POLICY_"

// PoolNameSetting is the pool setting mapped to Config.PoolName.
const PoolNameSetting = "POOL_NAME"

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type setupBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	catalog         *Catalog
	settings        map[string]any
	runtime         RuntimeIdentity
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	instances       map[Slot]any
	reportFilter    func(eventName string) bool
}

type Option func(*setupBuilder)

func WithLogger(logger Logger) Option {
	return func(b *setupBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *setupBuilder) {
		b.loggerProvider = provider
	}
}

func WithCatalog(catalog *Catalog) Option {
	return func(b *setupBuilder) {
		b.catalog = catalog
	}
}

// WithSettings hands resolved pool settings to policy factories. Unless a
// config provider is given, POOL_NAME and POLICY_* settings also feed the
// policy selection.
func WithSettings(values map[string]any) Option {
	return func(b *setupBuilder) {
		b.settings = copyAnyMap(values)
	}
}

func WithRuntimeIdentity(runtime RuntimeIdentity) Option {
	return func(b *setupBuilder) {
		b.runtime = runtime
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *setupBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *setupBuilder) {
		b.optionsResolver = resolver
	}
}

// WithInstance installs a prebuilt value in slot, bypassing the catalog.
func WithInstance(slot Slot, instance any) Option {
	return func(b *setupBuilder) {
		if b.instances == nil {
			b.instances = map[Slot]any{}
		}
		b.instances[slot] = instance
	}
}

// WithReportFilter wraps the installed reporter so only the events allow
// accepts are reported. Factories built after the reporter see the wrapped one.
func WithReportFilter(allow func(eventName string) bool) Option {
	return func(b *setupBuilder) {
		b.reportFilter = allow
	}
}

func WithTemplateRegistry(registry any) Option { return WithInstance(SlotTemplateRegistry, registry) }
func WithShareSink(sink any) Option            { return WithInstance(SlotShareSink, sink) }
func WithAdmin(admin any) Option               { return WithInstance(SlotAdmin, admin) }

func defaultSetupBuilder(runtime Config) setupBuilder {
	return setupBuilder{
		runtimeConfig:   runtime,
		optionsResolver: GoOptionsResolver{},
		instances:       map[Slot]any{},
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	return copyAnyMap(l.Values), nil
}

// SettingsConfigLoader derives raw policy config from pool settings.
type SettingsConfigLoader struct {
	Settings map[string]any
}

func (l SettingsConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	raw := map[string]any{}
	policies := map[string]any{}
	for name, value := range l.Settings {
		switch {
		case name == PoolNameSetting:
			raw["pool_name"] = fmt.Sprint(value)
		case strings.HasPrefix(name, PolicySettingPrefix):
			slot, err := ParseSlot(strings.TrimPrefix(name, PolicySettingPrefix))
			if err != nil {
				return nil, err
			}
			policies[slot.String()] = fmt.Sprint(value)
		}
	}
	if len(policies) > 0 {
		raw["policies"] = policies
	}
	return raw, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults < loaded config < runtime config.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("settings", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("settings"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.PoolName) != "" {
		layer["pool_name"] = cfg.PoolName
	}
	if policies := cfg.Policies.asMap(includeZero); len(policies) > 0 {
		layer["policies"] = policies
	}
	return layer
}

func copyAnyMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
