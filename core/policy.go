package core

import (
	"fmt"
	"sort"
	"strings"
)

// Predicate is a pure function of the resolution context. A nil predicate
// matches every context.
type Predicate func(ResolutionContext) bool

func TenantIn(tenants ...string) Predicate {
	allowed := make(map[string]struct{}, len(tenants))
	for _, tenant := range tenants {
		tenant = strings.TrimSpace(tenant)
		if tenant != "" {
			allowed[tenant] = struct{}{}
		}
	}
	return func(rctx ResolutionContext) bool {
		_, ok := allowed[strings.TrimSpace(rctx.TenantID)]
		return ok
	}
}

func FlagEquals(key string, value string) Predicate {
	key = strings.TrimSpace(key)
	return func(rctx ResolutionContext) bool {
		got, ok := rctx.Flag(key)
		return ok && got == value
	}
}

func FlagEnabled(key string) Predicate {
	key = strings.TrimSpace(key)
	return func(rctx ResolutionContext) bool {
		got, ok := rctx.Flag(key)
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(got)) {
		case "true", "1", "on", "enabled":
			return true
		}
		return false
	}
}

func All(predicates ...Predicate) Predicate {
	return func(rctx ResolutionContext) bool {
		for _, predicate := range predicates {
			if predicate == nil {
				continue
			}
			if !predicate(rctx) {
				return false
			}
		}
		return true
	}
}

// Rule binds a provider to a selection predicate. Rules are evaluated in
// configured order; the first match decides the primary provider.
type Rule struct {
	Provider string
	When     Predicate
}

func (r Rule) matches(rctx ResolutionContext) bool {
	if r.When == nil {
		return true
	}
	return r.When(rctx)
}

// CapabilityPolicy is the per-capability selection table: ordered rules, a
// designated default, and the ordered fallback chain.
type CapabilityPolicy struct {
	Default   string
	Rules     []Rule
	Fallbacks []string
}

func (p CapabilityPolicy) Validate() error {
	for idx, rule := range p.Rules {
		if strings.TrimSpace(rule.Provider) == "" {
			return fmt.Errorf("core: rule %d has an empty provider name", idx)
		}
	}
	seen := make(map[string]struct{}, len(p.Fallbacks))
	for _, provider := range p.Fallbacks {
		name := strings.TrimSpace(provider)
		if name == "" {
			return fmt.Errorf("core: fallback chain contains an empty provider name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("core: fallback chain contains %q twice", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Policy is an immutable snapshot of every capability's resolution policy.
// Reload swaps whole snapshots; a snapshot is never mutated in place.
type Policy struct {
	capabilities map[Capability]CapabilityPolicy
}

func NewPolicy(policies map[Capability]CapabilityPolicy) (*Policy, error) {
	snapshot := make(map[Capability]CapabilityPolicy, len(policies))
	for capability, policy := range policies {
		if err := capability.Validate(); err != nil {
			return nil, err
		}
		if err := policy.Validate(); err != nil {
			return nil, fmt.Errorf("core: policy for %q invalid: %w", capability, err)
		}
		snapshot[capability] = CapabilityPolicy{
			Default:   strings.TrimSpace(policy.Default),
			Rules:     append([]Rule(nil), policy.Rules...),
			Fallbacks: append([]string(nil), policy.Fallbacks...),
		}
	}
	return &Policy{capabilities: snapshot}, nil
}

func (p *Policy) Capability(capability Capability) (CapabilityPolicy, bool) {
	if p == nil {
		return CapabilityPolicy{}, false
	}
	policy, ok := p.capabilities[capability]
	return policy, ok
}

func (p *Policy) Capabilities() []Capability {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.capabilities))
	for capability := range p.capabilities {
		names = append(names, string(capability))
	}
	sort.Strings(names)
	capabilities := make([]Capability, 0, len(names))
	for _, name := range names {
		capabilities = append(capabilities, Capability(name))
	}
	return capabilities
}
