// Package devkit provides adapter doubles for wiring tests and conformance
// runs: a scripted adapter that replays configured outcomes and a conforming
// adapter that satisfies a contract mechanically. Neither touches a vendor.
package devkit

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-capability/core"
)

// Outcome is one scripted adapter response. Outcomes are consumed in call
// order; the last one repeats once the script runs out.
type Outcome struct {
	Output map[string]any
	Err    error
}

// Call records one adapter invocation for assertions.
type Call struct {
	Operation string
	Args      map[string]any
}

// ScriptedAdapter replays configured outcomes and records every call. It is
// the double used by wiring tests that need to force recoverable or fatal
// failures without a vendor in the loop.
type ScriptedAdapter struct {
	mu         sync.Mutex
	capability core.Capability
	provider   string
	outcomes   []Outcome
	calls      []Call
	shutdowns  int
}

func NewScriptedAdapter(capability core.Capability, provider string, outcomes ...Outcome) *ScriptedAdapter {
	return &ScriptedAdapter{
		capability: capability,
		provider:   provider,
		outcomes:   append([]Outcome(nil), outcomes...),
	}
}

func (a *ScriptedAdapter) Provider() string { return a.provider }

func (a *ScriptedAdapter) Capability() core.Capability { return a.capability }

func (a *ScriptedAdapter) Invoke(ctx context.Context, operation string, args map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	index := len(a.calls)
	a.calls = append(a.calls, Call{Operation: operation, Args: args})
	var outcome Outcome
	if index < len(a.outcomes) {
		outcome = a.outcomes[index]
	} else if len(a.outcomes) > 0 {
		outcome = a.outcomes[len(a.outcomes)-1]
	}
	a.mu.Unlock()

	return outcome.Output, outcome.Err
}

func (a *ScriptedAdapter) Shutdown(context.Context) error {
	a.mu.Lock()
	a.shutdowns++
	a.mu.Unlock()
	return nil
}

// Calls returns the recorded invocations in call order.
func (a *ScriptedAdapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

func (a *ScriptedAdapter) Shutdowns() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shutdowns
}

// Factory returns an AdapterFactory handing out this adapter instance.
func (a *ScriptedAdapter) Factory() core.AdapterFactory {
	return func(context.Context) (core.Adapter, error) {
		return a, nil
	}
}

// ConformingAdapter satisfies a contract mechanically: it echoes every
// declared output field for valid input and answers each fault fixture with
// its declared error kind. It exists so conformance runs and examples have a
// known-good provider without vendor credentials.
type ConformingAdapter struct {
	provider string
	contract core.ContractDescriptor
}

func NewConformingAdapter(provider string, contract core.ContractDescriptor) (*ConformingAdapter, error) {
	if err := contract.Validate(); err != nil {
		return nil, err
	}
	return &ConformingAdapter{provider: provider, contract: contract}, nil
}

func (a *ConformingAdapter) Provider() string { return a.provider }

func (a *ConformingAdapter) Capability() core.Capability { return a.contract.Capability }

func (a *ConformingAdapter) Invoke(ctx context.Context, operation string, args map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, ok := a.contract.Operation(operation)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", core.ErrUnknownOperation, a.contract.Capability, operation)
	}
	for _, fault := range spec.Fixture.Faults {
		if reflect.DeepEqual(args, fault.Input) {
			return nil, core.NewOperationError(fault.Kind, "fixture fault for "+operation)
		}
	}
	output := make(map[string]any, len(spec.Output))
	for _, field := range spec.Output {
		output[field] = a.provider + "-" + field
	}
	return output, nil
}

// Factory returns an AdapterFactory handing out this adapter instance.
func (a *ConformingAdapter) Factory() core.AdapterFactory {
	return func(context.Context) (core.Adapter, error) {
		return a, nil
	}
}

var (
	_ core.Adapter         = (*ScriptedAdapter)(nil)
	_ core.AdapterShutdown = (*ScriptedAdapter)(nil)
	_ core.Adapter         = (*ConformingAdapter)(nil)
)
