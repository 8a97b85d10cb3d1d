package mining

import (
	"context"
	"fmt"
	"io"

	"github.com/goliatone/go-mining/core"
	"github.com/goliatone/go-mining/settings"
)

// Pool is a booted set of policies plus the settings they were built from.
type Pool struct {
	Registry *core.Registry
	Settings *settings.Settings
	Changes  settings.ChangeSet
}

type BootOption func(*bootOptions)

type bootOptions struct {
	defaults settings.Layer
	hooks    *ExtensionHooks
	output   io.Writer
	setup    []core.Option
}

// WithDefaultLayer replaces settings.DefaultLayer as the base layer.
func WithDefaultLayer(defaults settings.Layer) BootOption {
	return func(o *bootOptions) {
		o.defaults = defaults
	}
}

func WithExtensionHooks(hooks *ExtensionHooks) BootOption {
	return func(o *bootOptions) {
		if hooks != nil {
			o.hooks = hooks
		}
	}
}

// WithDiagnosticOutput redirects the custom settings dump.
func WithDiagnosticOutput(w io.Writer) BootOption {
	return func(o *bootOptions) {
		o.output = w
	}
}

func WithSetupOptions(opts ...core.Option) BootOption {
	return func(o *bootOptions) {
		o.setup = append(o.setup, opts...)
	}
}

// Boot resolves settings from the default layer and override, then runs
// Setup against a catalog holding the builtin policies and every pack in
// the extension hooks. The REPORTER__* gates filter the installed reporter.
func Boot(cfg Config, override settings.Layer, opts ...BootOption) (*Pool, error) {
	options := bootOptions{defaults: settings.DefaultLayer()}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.hooks == nil {
		options.hooks = NewDefaultExtensionHooks()
	}

	var loadOpts []settings.Option
	if options.output != nil {
		loadOpts = append(loadOpts, settings.WithOutput(options.output))
	}
	resolved, err := settings.Load(options.defaults, override, loadOpts...)
	if err != nil {
		return nil, err
	}

	pool, err := settings.DecodePool(resolved.Settings)
	if err != nil {
		return nil, core.MapError(err)
	}
	catalog, err := options.hooks.Catalog()
	if err != nil {
		return nil, core.MapError(err)
	}
	setupOpts := append([]core.Option{
		core.WithCatalog(catalog),
		core.WithSettings(resolved.Settings.Map()),
		core.WithReportFilter(pool.ReportsEvent),
	}, options.setup...)
	registry, err := core.Setup(cfg, setupOpts...)
	if err != nil {
		return nil, err
	}
	return &Pool{Registry: registry, Settings: resolved.Settings, Changes: resolved.Changes}, nil
}

// Ready blocks until the share manager and any loading worker manager have
// resolved. Shares must not be accepted before it returns true.
func (p *Pool) Ready(ctx context.Context) (bool, error) {
	if p == nil || p.Registry == nil {
		return false, fmt.Errorf("mining: pool is not booted")
	}
	signals := make([]*core.Readiness[bool], 0, 2)
	if manager, ok := p.Registry.ShareManager(); ok {
		signals = append(signals, manager.OnLoad())
	}
	if manager, ok := p.Registry.WorkerManager(); ok {
		if loader, ok := manager.(core.Loader); ok {
			signals = append(signals, loader.OnLoad())
		}
	}
	for _, signal := range signals {
		if signal == nil {
			continue
		}
		ready, err := signal.Wait(ctx)
		if err != nil {
			return false, err
		}
		if !ready {
			return false, nil
		}
	}
	return true, nil
}
