package command

import (
	"context"

	"github.com/goliatone/go-capability/core"
	gocmd "github.com/goliatone/go-command"
)

type MutatingService interface {
	Invoke(ctx context.Context, req core.InvokeRequest) (core.InvokeResult, error)
	ReloadPolicy(ctx context.Context, cfg core.Config) error
	RegisterAdapter(capability core.Capability, provider string, factory core.AdapterFactory) error
}

type InvokeCapabilityCommand struct {
	service MutatingService
}

func NewInvokeCapabilityCommand(service MutatingService) *InvokeCapabilityCommand {
	return &InvokeCapabilityCommand{service: service}
}

func (c *InvokeCapabilityCommand) Execute(ctx context.Context, msg InvokeCapabilityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: capability service is required")
	}
	out, err := c.service.Invoke(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReloadPolicyCommand struct {
	service MutatingService
}

func NewReloadPolicyCommand(service MutatingService) *ReloadPolicyCommand {
	return &ReloadPolicyCommand{service: service}
}

func (c *ReloadPolicyCommand) Execute(ctx context.Context, msg ReloadPolicyMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: capability service is required")
	}
	return c.service.ReloadPolicy(ctx, msg.Config)
}

type RegisterAdapterCommand struct {
	service MutatingService
}

func NewRegisterAdapterCommand(service MutatingService) *RegisterAdapterCommand {
	return &RegisterAdapterCommand{service: service}
}

func (c *RegisterAdapterCommand) Execute(_ context.Context, msg RegisterAdapterMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: capability service is required")
	}
	return c.service.RegisterAdapter(msg.Capability, msg.Provider, msg.Factory)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
