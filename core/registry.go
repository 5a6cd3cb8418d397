package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type registryKey struct {
	capability Capability
	provider   string
}

type registryEntry struct {
	factory AdapterFactory

	// guarded by AdapterRegistry.mu
	adapter  Adapter
	inflight chan struct{}
}

// AdapterRegistry maps (capability, provider) to a lazily constructed
// adapter instance. Construction is coalesced so concurrent first-users
// await a single in-flight factory call; a failed construction is never
// cached and a later Get retries it.
type AdapterRegistry struct {
	mu      sync.Mutex
	entries map[registryKey]*registryEntry
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{entries: make(map[registryKey]*registryEntry)}
}

func (r *AdapterRegistry) Register(capability Capability, provider string, factory AdapterFactory) error {
	if r == nil {
		return fmt.Errorf("core: adapter registry is nil")
	}
	key, err := newRegistryKey(capability, provider)
	if err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("core: adapter factory is required for %s/%s", key.capability, key.provider)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateProvider, key.capability, key.provider)
	}
	r.entries[key] = &registryEntry{factory: factory}
	return nil
}

func (r *AdapterRegistry) Get(ctx context.Context, capability Capability, provider string) (Adapter, error) {
	if r == nil {
		return nil, fmt.Errorf("core: adapter registry is nil")
	}
	key, err := newRegistryKey(capability, provider)
	if err != nil {
		return nil, err
	}

	for {
		r.mu.Lock()
		entry, ok := r.entries[key]
		if !ok {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: %s/%s", ErrUnknownProvider, key.capability, key.provider)
		}
		if entry.adapter != nil {
			adapter := entry.adapter
			r.mu.Unlock()
			return adapter, nil
		}
		if entry.inflight != nil {
			wait := entry.inflight
			r.mu.Unlock()
			select {
			case <-wait:
				// Re-check: either the adapter landed, or the construction
				// failed and this caller retries it.
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		done := make(chan struct{})
		entry.inflight = done
		factory := entry.factory
		r.mu.Unlock()

		adapter, buildErr := r.construct(ctx, key, factory)

		r.mu.Lock()
		entry.inflight = nil
		if buildErr == nil {
			entry.adapter = adapter
		}
		r.mu.Unlock()
		close(done)

		if buildErr != nil {
			return nil, buildErr
		}
		return adapter, nil
	}
}

func (r *AdapterRegistry) construct(ctx context.Context, key registryKey, factory AdapterFactory) (Adapter, error) {
	adapter, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrProviderInit, key.capability, key.provider, err)
	}
	if adapter == nil {
		return nil, fmt.Errorf("%w: %s/%s: factory returned nil adapter", ErrProviderInit, key.capability, key.provider)
	}
	if adapter.Capability() != key.capability {
		return nil, fmt.Errorf(
			"%w: %s/%s: factory returned adapter for capability %q",
			ErrProviderInit, key.capability, key.provider, adapter.Capability(),
		)
	}
	if name := strings.TrimSpace(adapter.Provider()); name != key.provider {
		return nil, fmt.Errorf(
			"%w: %s/%s: factory returned adapter for provider %q",
			ErrProviderInit, key.capability, key.provider, name,
		)
	}
	return adapter, nil
}

func (r *AdapterRegistry) List(capability Capability) []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	providers := make([]string, 0, len(r.entries))
	for key := range r.entries {
		if key.capability == capability {
			providers = append(providers, key.provider)
		}
	}
	r.mu.Unlock()
	sort.Strings(providers)
	return providers
}

// Close tears down every constructed adapter that owns resources. Entries
// stay registered so the registry can be reused after a hot swap; only the
// constructed instances are dropped.
func (r *AdapterRegistry) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	adapters := make([]Adapter, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.adapter != nil {
			adapters = append(adapters, entry.adapter)
			entry.adapter = nil
		}
	}
	r.mu.Unlock()

	var errs []error
	for _, adapter := range adapters {
		closer, ok := adapter.(AdapterShutdown)
		if !ok {
			continue
		}
		if err := closer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("core: shutdown %s/%s: %w", adapter.Capability(), adapter.Provider(), err))
		}
	}
	return errors.Join(errs...)
}

func newRegistryKey(capability Capability, provider string) (registryKey, error) {
	name := strings.TrimSpace(string(capability))
	if name == "" {
		return registryKey{}, fmt.Errorf("core: capability is required")
	}
	providerName := strings.TrimSpace(provider)
	if providerName == "" {
		return registryKey{}, fmt.Errorf("core: provider name is required")
	}
	return registryKey{capability: Capability(name), provider: providerName}, nil
}
