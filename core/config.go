package core

import (
	"fmt"
	"strings"
)

const (
	PolicyOpen        = "open"
	PolicyLog         = "log"
	PolicyNoop        = "noop"
	PolicyWallClock   = "wall"
	PolicyPredictable = "predictable"
	PolicySequence    = "sequence"
)

// PoliciesConfig names the catalog entry installed in each capability slot.
type PoliciesConfig struct {
	WorkerManager string `koanf:"worker_manager" mapstructure:"worker_manager"`
	ShareManager  string `koanf:"share_manager" mapstructure:"share_manager"`
	ShareLimiter  string `koanf:"share_limiter" mapstructure:"share_limiter"`
	Timestamper   string `koanf:"timestamper" mapstructure:"timestamper"`
	IdsProvider   string `koanf:"ids_provider" mapstructure:"ids_provider"`
	Reporter      string `koanf:"reporter" mapstructure:"reporter"`
}

type Config struct {
	PoolName string         `koanf:"pool_name" mapstructure:"pool_name"`
	Policies PoliciesConfig `koanf:"policies" mapstructure:"policies"`
}

func DefaultConfig() Config {
	return Config{
		PoolName: "pool",
		Policies: PoliciesConfig{
			WorkerManager: PolicyOpen,
			ShareManager:  PolicyLog,
			ShareLimiter:  PolicyNoop,
			Timestamper:   PolicyWallClock,
			IdsProvider:   PolicySequence,
			Reporter:      PolicyNoop,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.PoolName) == "" {
		return fmt.Errorf("core: pool_name is required")
	}
	for _, slot := range CapabilitySlots {
		if strings.TrimSpace(c.Policies.For(slot)) == "" {
			return fmt.Errorf("core: policies.%s is required", slot)
		}
	}
	return nil
}

// For returns the policy name configured for a capability slot.
func (p PoliciesConfig) For(slot Slot) string {
	switch slot {
	case SlotWorkerManager:
		return p.WorkerManager
	case SlotShareManager:
		return p.ShareManager
	case SlotShareLimiter:
		return p.ShareLimiter
	case SlotTimestamper:
		return p.Timestamper
	case SlotIdsProvider:
		return p.IdsProvider
	case SlotReporter:
		return p.Reporter
	default:
		return ""
	}
}

func (p PoliciesConfig) asMap(includeZero bool) map[string]any {
	out := map[string]any{}
	for _, slot := range CapabilitySlots {
		name := strings.TrimSpace(p.For(slot))
		if includeZero || name != "" {
			out[slot.String()] = name
		}
	}
	return out
}
