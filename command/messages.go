package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-capability/core"
)

const (
	TypeInvokeCapability = "capability.command.invoke"
	TypeReloadPolicy     = "capability.command.policy.reload"
	TypeRegisterAdapter  = "capability.command.adapter.register"
)

type InvokeCapabilityMessage struct {
	Request core.InvokeRequest
}

func (InvokeCapabilityMessage) Type() string { return TypeInvokeCapability }

func (m InvokeCapabilityMessage) Validate() error {
	if err := m.Request.Capability.Validate(); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	if strings.TrimSpace(m.Request.Operation) == "" {
		return fmt.Errorf("command: operation is required")
	}
	return nil
}

type ReloadPolicyMessage struct {
	Config core.Config
}

func (ReloadPolicyMessage) Type() string { return TypeReloadPolicy }

func (m ReloadPolicyMessage) Validate() error {
	if err := m.Config.Validate(); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}

type RegisterAdapterMessage struct {
	Capability core.Capability
	Provider   string
	Factory    core.AdapterFactory
}

func (RegisterAdapterMessage) Type() string { return TypeRegisterAdapter }

func (m RegisterAdapterMessage) Validate() error {
	if err := m.Capability.Validate(); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	if strings.TrimSpace(m.Provider) == "" {
		return fmt.Errorf("command: provider is required")
	}
	if m.Factory == nil {
		return fmt.Errorf("command: adapter factory is required")
	}
	return nil
}
