package mining

import (
	"github.com/goliatone/go-mining/core"
	"github.com/goliatone/go-mining/settings"
)

type Config = core.Config

type PoliciesConfig = core.PoliciesConfig

type Option = core.Option

type Registry = core.Registry
type Catalog = core.Catalog
type Slot = core.Slot
type Env = core.Env
type Factory = core.Factory

type Session = core.Session
type ShareSubmission = core.ShareSubmission
type BlockSubmission = core.BlockSubmission
type ConnectionHandle = core.ConnectionHandle
type SessionID = core.SessionID

type WorkerManager = core.WorkerManager
type ShareLimiter = core.ShareLimiter
type ShareManager = core.ShareManager
type Timestamper = core.Timestamper
type IdsProvider = core.IdsProvider
type Reporter = core.Reporter

type SettingsLayer = settings.Layer

var (
	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithCatalog          = core.WithCatalog
	WithSettings         = core.WithSettings
	WithRuntimeIdentity  = core.WithRuntimeIdentity
	WithConfigProvider   = core.WithConfigProvider
	WithOptionsResolver  = core.WithOptionsResolver
	WithInstance         = core.WithInstance
	WithTemplateRegistry = core.WithTemplateRegistry
	WithShareSink        = core.WithShareSink
	WithAdmin            = core.WithAdmin
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewRegistry() *Registry {
	return core.NewRegistry()
}

func Setup(cfg Config, opts ...Option) (*Registry, error) {
	return core.Setup(cfg, opts...)
}

func LoadSettings(defaults, override SettingsLayer, opts ...settings.Option) (*settings.Result, error) {
	return settings.Load(defaults, override, opts...)
}
