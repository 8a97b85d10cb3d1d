package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Env is what a policy factory can draw on while the registry is being
// assembled. Registry already holds every slot built before the current one.
type Env struct {
	Config   Config
	Settings map[string]any
	Logger   Logger
	Runtime  RuntimeIdentity
	Registry *Registry
}

type Factory func(env Env) (any, error)

// Catalog maps (slot, name) pairs to policy factories.
type Catalog struct {
	mu        sync.RWMutex
	factories map[Slot]map[string]Factory
}

func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[Slot]map[string]Factory)}
}

// NewBuiltinCatalog returns a catalog holding the default policies.
func NewBuiltinCatalog() *Catalog {
	c := NewCatalog()
	builtins := []struct {
		slot    Slot
		name    string
		factory Factory
	}{
		{SlotTimestamper, PolicyWallClock, func(Env) (any, error) { return WallClockTimestamper{}, nil }},
		{SlotTimestamper, PolicyPredictable, func(Env) (any, error) { return NewPredictableTimestamper(), nil }},
		{SlotIdsProvider, PolicySequence, func(Env) (any, error) { return NewSequenceIdsProvider(), nil }},
		{SlotReporter, PolicyNoop, func(Env) (any, error) { return NopReporter{}, nil }},
		{SlotReporter, PolicyLog, func(env Env) (any, error) { return NewLoggingReporter(env.Logger, env.Runtime), nil }},
		{SlotWorkerManager, PolicyOpen, func(Env) (any, error) { return NewOpenWorkerManager(), nil }},
		{SlotShareManager, PolicyLog, func(env Env) (any, error) { return NewLoggingShareManager(env.Logger), nil }},
		{SlotShareLimiter, PolicyNoop, func(Env) (any, error) { return NopShareLimiter{}, nil }},
	}
	for _, builtin := range builtins {
		if err := c.Register(builtin.slot, builtin.name, builtin.factory); err != nil {
			panic(err)
		}
	}
	return c
}

func (c *Catalog) Register(slot Slot, name string, factory Factory) error {
	if c == nil {
		return fmt.Errorf("core: catalog is nil")
	}
	if !slot.Valid() {
		return slotUnknownError(string(slot))
	}
	name = normalizePolicyName(name)
	if name == "" {
		return fmt.Errorf("core: policy name is required")
	}
	if factory == nil {
		return fmt.Errorf("core: policy %s/%s factory is required", slot, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.factories == nil {
		c.factories = make(map[Slot]map[string]Factory)
	}
	if c.factories[slot] == nil {
		c.factories[slot] = make(map[string]Factory)
	}
	if _, exists := c.factories[slot][name]; exists {
		return fmt.Errorf("core: policy already registered: %s/%s", slot, name)
	}
	c.factories[slot][name] = factory
	return nil
}

func (c *Catalog) Lookup(slot Slot, name string) (Factory, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	factory, ok := c.factories[slot][normalizePolicyName(name)]
	return factory, ok
}

// Names lists the registered policy names for slot in order.
func (c *Catalog) Names(slot Slot) []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	names := make([]string, 0, len(c.factories[slot]))
	for name := range c.factories[slot] {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Build runs the factory registered for (slot, name) and checks the result
// against the slot contract.
func (c *Catalog) Build(slot Slot, name string, env Env) (any, error) {
	factory, ok := c.Lookup(slot, name)
	if !ok {
		return nil, policyNotFoundError(slot, normalizePolicyName(name))
	}
	instance, err := factory(env)
	if err != nil {
		return nil, fmt.Errorf("core: build %s policy %q: %w", slot, normalizePolicyName(name), err)
	}
	if instance == nil || !conforms(slot, instance) {
		return nil, capabilityMismatchError(slot, instance)
	}
	return instance, nil
}

func normalizePolicyName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
