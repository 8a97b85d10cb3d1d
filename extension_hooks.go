package mining

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-mining/adapters/gocommand"
	"github.com/goliatone/go-mining/adapters/gojob"
	"github.com/goliatone/go-mining/core"
	"github.com/goliatone/go-mining/ratelimit"
	cachestore "github.com/goliatone/go-mining/store/cache"
)

// PolicyPack adds one or more named policies to a catalog.
type PolicyPack struct {
	Name     string
	Register func(catalog *core.Catalog) error
}

type ExtensionHooks struct {
	mu    sync.RWMutex
	packs map[string]PolicyPack
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{packs: map[string]PolicyPack{}}
}

// NewDefaultExtensionHooks holds every policy pack that needs no external
// collaborator.
func NewDefaultExtensionHooks() *ExtensionHooks {
	hooks := NewExtensionHooks()
	for _, pack := range DefaultPolicyPacks() {
		if err := hooks.RegisterPolicyPack(pack); err != nil {
			panic(err)
		}
	}
	return hooks
}

func DefaultPolicyPacks() []PolicyPack {
	return []PolicyPack{
		{Name: "vardiff", Register: registerVardiff},
		{Name: "worker-cache", Register: cachestore.Register},
		{Name: "command-reporter", Register: gocommand.Register},
	}
}

// registerVardiff adds the vardiff limiter with its state store cached when
// LIMITER_STATE_CACHE_TTL_S is set.
func registerVardiff(catalog *core.Catalog) error {
	return ratelimit.Register(catalog, ratelimit.WithStateStoreDecorator(cachestore.CacheVardiffState))
}

// QueuePolicyPack registers the queue reporter over enqueuer.
func QueuePolicyPack(enqueuer queue.Enqueuer) PolicyPack {
	return PolicyPack{
		Name: "queue-reporter",
		Register: func(catalog *core.Catalog) error {
			return gojob.Register(catalog, enqueuer)
		},
	}
}

func (h *ExtensionHooks) RegisterPolicyPack(pack PolicyPack) error {
	if h == nil {
		return fmt.Errorf("mining: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("mining: policy pack name is required")
	}
	if pack.Register == nil {
		return fmt.Errorf("mining: policy pack %q register func is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.packs[name]; exists {
		return fmt.Errorf("mining: policy pack %q already registered", name)
	}
	h.packs[name] = PolicyPack{Name: name, Register: pack.Register}
	return nil
}

// ApplyPolicyPacks registers every pack on catalog in name order.
func (h *ExtensionHooks) ApplyPolicyPacks(catalog *core.Catalog) error {
	if h == nil {
		return nil
	}
	if catalog == nil {
		return fmt.Errorf("mining: catalog is required")
	}
	for _, pack := range h.PolicyPacks() {
		if err := pack.Register(catalog); err != nil {
			return fmt.Errorf("mining: policy pack %q: %w", pack.Name, err)
		}
	}
	return nil
}

// Catalog returns the builtin catalog extended with every registered pack.
func (h *ExtensionHooks) Catalog() (*core.Catalog, error) {
	catalog := core.NewBuiltinCatalog()
	if err := h.ApplyPolicyPacks(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (h *ExtensionHooks) PolicyPacks() []PolicyPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]PolicyPack, 0, len(h.packs))
	for _, name := range h.packNamesLocked() {
		out = append(out, h.packs[name])
	}
	return out
}

func (h *ExtensionHooks) PackNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.packNamesLocked()
}

func (h *ExtensionHooks) packNamesLocked() []string {
	names := make([]string, 0, len(h.packs))
	for name := range h.packs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
