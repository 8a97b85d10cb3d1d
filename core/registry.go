package core

import (
	"sort"
	"sync"
)

// Registry holds one active implementation per slot. Slots are meant to be
// written during boot and only read afterwards.
type Registry struct {
	mu    sync.RWMutex
	slots map[Slot]any
}

func NewRegistry() *Registry {
	return &Registry{slots: make(map[Slot]any)}
}

// NewDefaultRegistry returns a registry with every capability slot holding
// its default implementation.
func NewDefaultRegistry(logger Logger) *Registry {
	r := NewRegistry()
	r.slots[SlotTimestamper] = WallClockTimestamper{}
	r.slots[SlotIdsProvider] = NewSequenceIdsProvider()
	r.slots[SlotReporter] = NopReporter{}
	r.slots[SlotWorkerManager] = NewOpenWorkerManager()
	r.slots[SlotShareManager] = NewLoggingShareManager(logger)
	r.slots[SlotShareLimiter] = NopShareLimiter{}
	return r
}

// Set installs instance in slot, replacing any previous value. Capability
// slots only accept values satisfying their contract; collaborator slots
// accept any non-nil value.
func (r *Registry) Set(slot Slot, instance any) error {
	if !slot.Valid() {
		return slotUnknownError(string(slot))
	}
	if instance == nil || !conforms(slot, instance) {
		return capabilityMismatchError(slot, instance)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots == nil {
		r.slots = make(map[Slot]any)
	}
	r.slots[slot] = instance
	return nil
}

func (r *Registry) Get(slot Slot) (any, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	instance, ok := r.slots[slot]
	r.mu.RUnlock()
	return instance, ok
}

// Installed returns the occupied slots in name order.
func (r *Registry) Installed() []Slot {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	slots := make([]Slot, 0, len(r.slots))
	for slot := range r.slots {
		slots = append(slots, slot)
	}
	r.mu.RUnlock()
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

func conforms(slot Slot, instance any) bool {
	switch slot {
	case SlotWorkerManager:
		_, ok := instance.(WorkerManager)
		return ok
	case SlotShareManager:
		_, ok := instance.(ShareManager)
		return ok
	case SlotShareLimiter:
		_, ok := instance.(ShareLimiter)
		return ok
	case SlotTimestamper:
		_, ok := instance.(Timestamper)
		return ok
	case SlotIdsProvider:
		_, ok := instance.(IdsProvider)
		return ok
	case SlotReporter:
		_, ok := instance.(Reporter)
		return ok
	default:
		return true
	}
}

func (r *Registry) SetWorkerManager(m WorkerManager) error { return r.Set(SlotWorkerManager, m) }
func (r *Registry) SetShareManager(m ShareManager) error   { return r.Set(SlotShareManager, m) }
func (r *Registry) SetShareLimiter(l ShareLimiter) error   { return r.Set(SlotShareLimiter, l) }
func (r *Registry) SetTimestamper(t Timestamper) error     { return r.Set(SlotTimestamper, t) }
func (r *Registry) SetIdsProvider(p IdsProvider) error     { return r.Set(SlotIdsProvider, p) }
func (r *Registry) SetReporter(rep Reporter) error         { return r.Set(SlotReporter, rep) }
func (r *Registry) SetTemplateRegistry(v any) error        { return r.Set(SlotTemplateRegistry, v) }
func (r *Registry) SetShareSink(v any) error               { return r.Set(SlotShareSink, v) }
func (r *Registry) SetAdmin(v any) error                   { return r.Set(SlotAdmin, v) }

func (r *Registry) WorkerManager() (WorkerManager, bool) { return lookup[WorkerManager](r, SlotWorkerManager) }
func (r *Registry) ShareManager() (ShareManager, bool)   { return lookup[ShareManager](r, SlotShareManager) }
func (r *Registry) ShareLimiter() (ShareLimiter, bool)   { return lookup[ShareLimiter](r, SlotShareLimiter) }
func (r *Registry) Timestamper() (Timestamper, bool)     { return lookup[Timestamper](r, SlotTimestamper) }
func (r *Registry) IdsProvider() (IdsProvider, bool)     { return lookup[IdsProvider](r, SlotIdsProvider) }
func (r *Registry) Reporter() (Reporter, bool)           { return lookup[Reporter](r, SlotReporter) }
func (r *Registry) TemplateRegistry() (any, bool)        { return r.Get(SlotTemplateRegistry) }
func (r *Registry) ShareSink() (any, bool)               { return r.Get(SlotShareSink) }
func (r *Registry) Admin() (any, bool)                   { return r.Get(SlotAdmin) }

func lookup[T any](r *Registry, slot Slot) (T, bool) {
	instance, ok := r.Get(slot)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := instance.(T)
	return typed, ok
}
