package query

import (
	"fmt"

	"github.com/goliatone/go-capability/core"
)

const (
	TypeResolveProviders = "capability.query.providers.resolve"
	TypeListProviders    = "capability.query.providers.list"
	TypeListActivity     = "capability.query.activity.list"
)

type ResolveProvidersMessage struct {
	Capability core.Capability
	Context    core.ResolutionContext
}

func (ResolveProvidersMessage) Type() string { return TypeResolveProviders }

func (m ResolveProvidersMessage) Validate() error {
	if err := m.Capability.Validate(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}

type ListProvidersMessage struct {
	Capability core.Capability
}

func (ListProvidersMessage) Type() string { return TypeListProviders }

func (m ListProvidersMessage) Validate() error {
	if err := m.Capability.Validate(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}

type ListActivityMessage struct {
	Filter core.InvocationActivityFilter
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per_page must be >= 0")
	}
	return nil
}
