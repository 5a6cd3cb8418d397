package command

import (
	"context"
	"testing"

	"github.com/goliatone/go-capability/core"
	gocmd "github.com/goliatone/go-command"
)

type stubMutatingService struct {
	invokeFn          func(ctx context.Context, req core.InvokeRequest) (core.InvokeResult, error)
	reloadPolicyFn    func(ctx context.Context, cfg core.Config) error
	registerAdapterFn func(capability core.Capability, provider string, factory core.AdapterFactory) error
}

func (s stubMutatingService) Invoke(ctx context.Context, req core.InvokeRequest) (core.InvokeResult, error) {
	if s.invokeFn == nil {
		return core.InvokeResult{}, nil
	}
	return s.invokeFn(ctx, req)
}

func (s stubMutatingService) ReloadPolicy(ctx context.Context, cfg core.Config) error {
	if s.reloadPolicyFn == nil {
		return nil
	}
	return s.reloadPolicyFn(ctx, cfg)
}

func (s stubMutatingService) RegisterAdapter(capability core.Capability, provider string, factory core.AdapterFactory) error {
	if s.registerAdapterFn == nil {
		return nil
	}
	return s.registerAdapterFn(capability, provider, factory)
}

func TestInvokeCapabilityCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.InvokeResult{
		InvocationID: "inv_1",
		Provider:     "stripe",
		Output:       map[string]any{"charge_id": "ch_1"},
	}
	called := false

	svc := stubMutatingService{
		invokeFn: func(_ context.Context, req core.InvokeRequest) (core.InvokeResult, error) {
			called = true
			if req.Capability != core.CapabilityPayments || req.Operation != "charge" {
				t.Fatalf("unexpected request %+v", req)
			}
			return expected, nil
		},
	}

	cmd := NewInvokeCapabilityCommand(svc)
	collector := gocmd.NewResult[core.InvokeResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, InvokeCapabilityMessage{Request: core.InvokeRequest{
		Capability: core.CapabilityPayments,
		Operation:  "charge",
		Args:       map[string]any{"amount_cents": 1200},
	}})
	if err != nil {
		t.Fatalf("execute invoke: %v", err)
	}
	if !called {
		t.Fatalf("expected service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.Provider != expected.Provider || result.InvocationID != expected.InvocationID {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestReloadPolicyCommand_Delegates(t *testing.T) {
	called := false
	svc := stubMutatingService{
		reloadPolicyFn: func(_ context.Context, cfg core.Config) error {
			called = true
			if _, ok := cfg.Capabilities["payments"]; !ok {
				t.Fatalf("expected payments config, got %+v", cfg.Capabilities)
			}
			return nil
		},
	}
	cfg := core.DefaultConfig()
	cfg.Capabilities["payments"] = core.CapabilityConfig{Default: "stripe"}
	cmd := NewReloadPolicyCommand(svc)
	if err := cmd.Execute(context.Background(), ReloadPolicyMessage{Config: cfg}); err != nil {
		t.Fatalf("execute reload: %v", err)
	}
	if !called {
		t.Fatalf("expected reload invocation")
	}
}

func TestRegisterAdapterCommand_Delegates(t *testing.T) {
	called := false
	svc := stubMutatingService{
		registerAdapterFn: func(capability core.Capability, provider string, factory core.AdapterFactory) error {
			called = true
			if capability != core.CapabilityPayments || provider != "stripe" || factory == nil {
				t.Fatalf("unexpected registration %s %s", capability, provider)
			}
			return nil
		},
	}
	cmd := NewRegisterAdapterCommand(svc)
	msg := RegisterAdapterMessage{
		Capability: core.CapabilityPayments,
		Provider:   "stripe",
		Factory: func(context.Context) (core.Adapter, error) {
			return nil, nil
		},
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute register: %v", err)
	}
	if !called {
		t.Fatalf("expected register invocation")
	}
}

func TestCommands_RejectMissingDependencies(t *testing.T) {
	if err := (&InvokeCapabilityCommand{}).Execute(context.Background(), InvokeCapabilityMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
	if err := (&ReloadPolicyCommand{}).Execute(context.Background(), ReloadPolicyMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
	if err := (&RegisterAdapterCommand{}).Execute(context.Background(), RegisterAdapterMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
}

func TestMessages_Validate(t *testing.T) {
	invoke := InvokeCapabilityMessage{Request: core.InvokeRequest{
		Capability: core.CapabilityPayments,
		Operation:  "charge",
	}}
	if err := invoke.Validate(); err != nil {
		t.Fatalf("valid invoke rejected: %v", err)
	}
	invoke.Request.Operation = " "
	if err := invoke.Validate(); err == nil {
		t.Fatalf("expected blank operation rejected")
	}
	invoke.Request.Capability = "telemetry"
	if err := invoke.Validate(); err == nil {
		t.Fatalf("expected unknown capability rejected")
	}

	reload := ReloadPolicyMessage{Config: core.DefaultConfig()}
	if err := reload.Validate(); err != nil {
		t.Fatalf("valid reload rejected: %v", err)
	}
	broken := core.DefaultConfig()
	broken.ServiceName = ""
	if err := (ReloadPolicyMessage{Config: broken}).Validate(); err == nil {
		t.Fatalf("expected invalid config rejected")
	}

	register := RegisterAdapterMessage{
		Capability: core.CapabilityPayments,
		Provider:   "stripe",
		Factory: func(context.Context) (core.Adapter, error) {
			return nil, nil
		},
	}
	if err := register.Validate(); err != nil {
		t.Fatalf("valid register rejected: %v", err)
	}
	register.Factory = nil
	if err := register.Validate(); err == nil {
		t.Fatalf("expected nil factory rejected")
	}
}
