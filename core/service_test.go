package core

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type failingConfigProvider struct{}

func (failingConfigProvider) Load(context.Context, Config) (Config, error) {
	return Config{}, errors.New("config source unavailable")
}

func TestSetup_DefaultsPopulateEveryCapabilitySlot(t *testing.T) {
	logger := newCaptureLogger()
	registry, err := Setup(Config{}, WithLogger(logger))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	for _, slot := range CapabilitySlots {
		if _, ok := registry.Get(slot); !ok {
			t.Fatalf("expected slot %s to be populated", slot)
		}
	}
	if _, ok := registry.Get(SlotShareSink); ok {
		t.Fatalf("expected share sink to stay unset")
	}
	timestamper, _ := registry.Timestamper()
	if _, ok := timestamper.(WallClockTimestamper); !ok {
		t.Fatalf("expected wall clock by default, got %T", timestamper)
	}
	if len(logger.byEvent("setup")) != 1 {
		t.Fatalf("expected one setup log entry")
	}
}

func TestSetup_SettingsSelectPolicies(t *testing.T) {
	registry, err := Setup(Config{}, WithSettings(map[string]any{
		"POOL_NAME":          "eu-1",
		"POLICY_TIMESTAMPER": "predictable",
		"POLICY_REPORTER":    "log",
		"LIMITER_DEFAULT":    32,
	}))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	timestamper, _ := registry.Timestamper()
	if got := timestamper.Time(); got != PredictableStartTime+1 {
		t.Fatalf("expected predictable timestamper, got reading %v", got)
	}
	reporter, _ := registry.Reporter()
	if _, ok := reporter.(*LoggingReporter); !ok {
		t.Fatalf("expected logging reporter, got %T", reporter)
	}
}

func TestSetup_RuntimeConfigWinsOverSettings(t *testing.T) {
	runtime := Config{Policies: PoliciesConfig{Timestamper: PolicyWallClock}}
	registry, err := Setup(runtime, WithSettings(map[string]any{
		"POLICY_TIMESTAMPER": "predictable",
	}))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	timestamper, _ := registry.Timestamper()
	if _, ok := timestamper.(WallClockTimestamper); !ok {
		t.Fatalf("expected runtime config to select wall clock, got %T", timestamper)
	}
}

func TestSetup_UnknownPolicyFails(t *testing.T) {
	_, err := Setup(Config{}, WithConfigProvider(&fixedConfigProvider{cfg: Config{
		PoolName: "pool",
		Policies: PoliciesConfig{
			WorkerManager: "ldap",
			ShareManager:  PolicyLog,
			ShareLimiter:  PolicyNoop,
			Timestamper:   PolicyWallClock,
			IdsProvider:   PolicySequence,
			Reporter:      PolicyNoop,
		},
	}}))
	if err == nil {
		t.Fatalf("expected unknown policy error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != PoolErrorPolicyNotFound {
		t.Fatalf("expected %q, got %q", PoolErrorPolicyNotFound, rich.TextCode)
	}
}

func TestSetup_UnknownPolicySettingSlotFails(t *testing.T) {
	_, err := Setup(Config{}, WithSettings(map[string]any{"POLICY_DIFFICULTY": "fast"}))
	if err == nil {
		t.Fatalf("expected unknown slot error")
	}
}

func TestSetup_ConfigProviderErrorIsMapped(t *testing.T) {
	_, err := Setup(Config{}, WithConfigProvider(failingConfigProvider{}))
	if err == nil {
		t.Fatalf("expected config provider error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
}

func TestSetup_InstancesAndCollaborators(t *testing.T) {
	reporter := &recordingReporter{}
	templates := &struct{ jobs int }{}
	registry, err := Setup(Config{},
		WithInstance(SlotReporter, reporter),
		WithTemplateRegistry(templates),
		WithAdmin("admin-endpoint"),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	got, _ := registry.Reporter()
	if got != reporter {
		t.Fatalf("expected prebuilt reporter to be installed")
	}
	if value, ok := registry.TemplateRegistry(); !ok || value != templates {
		t.Fatalf("expected template registry collaborator")
	}
	if value, ok := registry.Admin(); !ok || value != "admin-endpoint" {
		t.Fatalf("expected admin collaborator")
	}
}

func TestSetup_ReportFilterWrapsInstalledReporter(t *testing.T) {
	reporter := &recordingReporter{}
	registry, err := Setup(Config{},
		WithInstance(SlotReporter, reporter),
		WithReportFilter(func(eventName string) bool { return eventName == EventDifficultyChanged }),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	installed, _ := registry.Reporter()
	if _, ok := installed.(*FilteredReporter); !ok {
		t.Fatalf("expected filtered reporter, got %T", installed)
	}
	installed.Report(context.Background(), EventNewSubscription, &Session{ID: 1})
	installed.Report(context.Background(), EventDifficultyChanged, &Session{ID: 1})
	if len(reporter.events) != 1 || reporter.events[0] != EventDifficultyChanged {
		t.Fatalf("expected only the allowed event, got %v", reporter.events)
	}
}

func TestSetup_RejectsNonConformingInstance(t *testing.T) {
	_, err := Setup(Config{}, WithInstance(SlotTimestamper, "not a clock"))
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != PoolErrorCapabilityMismatch {
		t.Fatalf("expected capability mismatch, got %v", err)
	}
}

func TestSetup_FactoriesSeeInstalledTimestamper(t *testing.T) {
	catalog := NewBuiltinCatalog()
	var seen Timestamper
	if err := catalog.Register(SlotShareLimiter, "stamping", func(env Env) (any, error) {
		seen, _ = env.Registry.Timestamper()
		if env.Runtime.IsZero() {
			return nil, errors.New("runtime identity missing")
		}
		return NopShareLimiter{}, nil
	}); err != nil {
		t.Fatalf("register stamping limiter: %v", err)
	}
	_, err := Setup(Config{Policies: PoliciesConfig{ShareLimiter: "stamping", Timestamper: PolicyPredictable}},
		WithCatalog(catalog),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, ok := seen.(*PredictableTimestamper); !ok {
		t.Fatalf("expected factory to observe installed timestamper, got %T", seen)
	}
}

func TestSetup_LoggerProviderTakesPrecedence(t *testing.T) {
	direct := newCaptureLogger()
	fromProvider := newCaptureLogger()
	_, err := Setup(Config{},
		WithLogger(direct),
		WithLoggerProvider(stubLoggerProvider{logger: fromProvider}),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if len(fromProvider.byEvent("setup")) != 1 {
		t.Fatalf("expected provider logger to receive setup entry")
	}
	if len(direct.snapshot()) != 0 {
		t.Fatalf("expected direct logger to be bypassed")
	}
}
