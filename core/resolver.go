package core

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Resolver picks the provider sequence for a capability call: the primary
// choice followed by the deduplicated fallback chain. It holds no mutable
// state beyond the policy snapshot pointer; reload is an atomic swap so
// in-flight resolutions never observe a half-updated policy.
type Resolver struct {
	policy atomic.Pointer[Policy]
}

func NewResolver(policy *Policy) (*Resolver, error) {
	if policy == nil {
		return nil, fmt.Errorf("core: resolution policy is required")
	}
	resolver := &Resolver{}
	resolver.policy.Store(policy)
	return resolver, nil
}

func (r *Resolver) Reload(policy *Policy) error {
	if r == nil {
		return fmt.Errorf("core: resolver is nil")
	}
	if policy == nil {
		return fmt.Errorf("core: resolution policy is required")
	}
	r.policy.Store(policy)
	return nil
}

func (r *Resolver) Snapshot() *Policy {
	if r == nil {
		return nil
	}
	return r.policy.Load()
}

func (r *Resolver) Resolve(capability Capability, rctx ResolutionContext) ([]string, error) {
	if r == nil {
		return nil, fmt.Errorf("core: resolver is nil")
	}
	policy, ok := r.policy.Load().Capability(capability)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProviderConfigured, capability)
	}

	primary := ""
	for _, rule := range policy.Rules {
		if rule.matches(rctx) {
			primary = strings.TrimSpace(rule.Provider)
			break
		}
	}
	if primary == "" {
		primary = policy.Default
	}
	if primary == "" {
		return nil, fmt.Errorf("%w: %s: no default and no matching rule", ErrNoProviderConfigured, capability)
	}

	sequence := make([]string, 0, 1+len(policy.Fallbacks))
	sequence = append(sequence, primary)
	seen := map[string]struct{}{primary: {}}
	for _, provider := range policy.Fallbacks {
		name := strings.TrimSpace(provider)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		sequence = append(sequence, name)
	}
	return sequence, nil
}
