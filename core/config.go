package core

import (
	"fmt"
	"strings"
	"time"
)

type RuleConfig struct {
	Provider string   `koanf:"provider" mapstructure:"provider"`
	Tenants  []string `koanf:"tenants" mapstructure:"tenants"`
	Flag     string   `koanf:"flag" mapstructure:"flag"`
	Value    string   `koanf:"value" mapstructure:"value"`
}

type CapabilityConfig struct {
	Default   string       `koanf:"default" mapstructure:"default"`
	Fallbacks []string     `koanf:"fallbacks" mapstructure:"fallbacks"`
	Rules     []RuleConfig `koanf:"rules" mapstructure:"rules"`
}

type Config struct {
	ServiceName      string                      `koanf:"service_name" mapstructure:"service_name"`
	AttemptTimeoutMS int                         `koanf:"attempt_timeout_ms" mapstructure:"attempt_timeout_ms"`
	Capabilities     map[string]CapabilityConfig `koanf:"capabilities" mapstructure:"capabilities"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:      "capability",
		AttemptTimeoutMS: int(DefaultAttemptTimeout / time.Millisecond),
		Capabilities:     map[string]CapabilityConfig{},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.AttemptTimeoutMS < 0 {
		return fmt.Errorf("core: attempt_timeout_ms must not be negative")
	}
	for name, capability := range c.Capabilities {
		if err := Capability(name).Validate(); err != nil {
			return err
		}
		if err := capability.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (c CapabilityConfig) validate(name string) error {
	for idx, rule := range c.Rules {
		if strings.TrimSpace(rule.Provider) == "" {
			return fmt.Errorf("core: capability %q rule %d requires a provider", name, idx)
		}
		if rule.Value != "" && strings.TrimSpace(rule.Flag) == "" {
			return fmt.Errorf("core: capability %q rule %d sets a flag value without a flag", name, idx)
		}
	}
	seen := make(map[string]struct{}, len(c.Fallbacks))
	for _, provider := range c.Fallbacks {
		trimmed := strings.TrimSpace(provider)
		if trimmed == "" {
			return fmt.Errorf("core: capability %q fallback chain contains an empty provider", name)
		}
		if _, dup := seen[trimmed]; dup {
			return fmt.Errorf("core: capability %q fallback chain contains %q twice", name, trimmed)
		}
		seen[trimmed] = struct{}{}
	}
	if strings.TrimSpace(c.Default) == "" && len(c.Rules) == 0 {
		return fmt.Errorf("core: capability %q has no default and no rules", name)
	}
	return nil
}

func (c Config) AttemptTimeout() time.Duration {
	if c.AttemptTimeoutMS <= 0 {
		return DefaultAttemptTimeout
	}
	return time.Duration(c.AttemptTimeoutMS) * time.Millisecond
}

// CompilePolicy turns the declarative configuration into an immutable
// policy snapshot. Unknown capability names and malformed chains are caught
// here, at configuration-validation time, never in a request path.
func (c Config) CompilePolicy() (*Policy, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	policies := make(map[Capability]CapabilityPolicy, len(c.Capabilities))
	for name, capability := range c.Capabilities {
		rules := make([]Rule, 0, len(capability.Rules))
		for _, rule := range capability.Rules {
			rules = append(rules, Rule{
				Provider: strings.TrimSpace(rule.Provider),
				When:     compileRulePredicate(rule),
			})
		}
		policies[Capability(name)] = CapabilityPolicy{
			Default:   strings.TrimSpace(capability.Default),
			Rules:     rules,
			Fallbacks: append([]string(nil), capability.Fallbacks...),
		}
	}
	return NewPolicy(policies)
}

func compileRulePredicate(rule RuleConfig) Predicate {
	var predicates []Predicate
	if len(rule.Tenants) > 0 {
		predicates = append(predicates, TenantIn(rule.Tenants...))
	}
	if flag := strings.TrimSpace(rule.Flag); flag != "" {
		if rule.Value != "" {
			predicates = append(predicates, FlagEquals(flag, rule.Value))
		} else {
			predicates = append(predicates, FlagEnabled(flag))
		}
	}
	if len(predicates) == 0 {
		return nil
	}
	if len(predicates) == 1 {
		return predicates[0]
	}
	return All(predicates...)
}
