package capability

import (
	"fmt"

	capabilitycommand "github.com/goliatone/go-capability/command"
	"github.com/goliatone/go-capability/core"
	capabilityquery "github.com/goliatone/go-capability/query"
)

type CommandQueryService interface {
	capabilitycommand.MutatingService
	capabilityquery.ProviderReader
}

type Commands struct {
	InvokeCapability *capabilitycommand.InvokeCapabilityCommand
	ReloadPolicy     *capabilitycommand.ReloadPolicyCommand
	RegisterAdapter  *capabilitycommand.RegisterAdapterCommand
}

type Queries struct {
	ResolveProviders *capabilityquery.ResolveProvidersQuery
	ListProviders    *capabilityquery.ListProvidersQuery
	ListActivity     *capabilityquery.ListActivityQuery
}

// Facade bundles the command and query handlers around one capability
// service so hosts wire a single value into their dispatcher.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	activityReader capabilityquery.ActivityReader
}

// WithActivityReader overrides the activity reader behind ListActivity.
// Without it the facade reuses the service's activity sink when that sink
// can also read.
func WithActivityReader(reader capabilityquery.ActivityReader) FacadeOption {
	return func(options *facadeOptions) {
		options.activityReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("capability: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.activityReader
	if reader == nil {
		reader = resolveActivityReader(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		InvokeCapability: capabilitycommand.NewInvokeCapabilityCommand(service),
		ReloadPolicy:     capabilitycommand.NewReloadPolicyCommand(service),
		RegisterAdapter:  capabilitycommand.NewRegisterAdapterCommand(service),
	}
	facade.queries = Queries{
		ResolveProviders: capabilityquery.NewResolveProvidersQuery(service),
		ListProviders:    capabilityquery.NewListProvidersQuery(service),
		ListActivity:     capabilityquery.NewListActivityQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func resolveActivityReader(service CommandQueryService) capabilityquery.ActivityReader {
	if service == nil {
		return nil
	}
	if reader, ok := service.(capabilityquery.ActivityReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	if reader, ok := deps.ActivitySink.(capabilityquery.ActivityReader); ok {
		return reader
	}
	return nil
}
