package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type invokeScript struct {
	Output map[string]any
	Err    error
	Delay  time.Duration
}

type testAdapter struct {
	mu         sync.Mutex
	capability Capability
	provider   string
	scripts    []invokeScript
	calls      int
	shutdowns  int
}

func newTestAdapter(capability Capability, provider string, scripts ...invokeScript) *testAdapter {
	return &testAdapter{
		capability: capability,
		provider:   provider,
		scripts:    append([]invokeScript(nil), scripts...),
	}
}

func (a *testAdapter) Provider() string { return a.provider }

func (a *testAdapter) Capability() Capability { return a.capability }

func (a *testAdapter) Invoke(ctx context.Context, _ string, _ map[string]any) (map[string]any, error) {
	a.mu.Lock()
	index := a.calls
	a.calls++
	var script invokeScript
	if index < len(a.scripts) {
		script = a.scripts[index]
	} else if len(a.scripts) > 0 {
		script = a.scripts[len(a.scripts)-1]
	}
	a.mu.Unlock()

	if script.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(script.Delay):
		}
	}
	return script.Output, script.Err
}

func (a *testAdapter) Shutdown(context.Context) error {
	a.mu.Lock()
	a.shutdowns++
	a.mu.Unlock()
	return nil
}

func (a *testAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func staticFactory(adapter Adapter) AdapterFactory {
	return func(context.Context) (Adapter, error) {
		return adapter, nil
	}
}

type countingFactory struct {
	constructions atomic.Int64
	adapter       Adapter
	err           error
}

func (f *countingFactory) Factory() AdapterFactory {
	return func(context.Context) (Adapter, error) {
		f.constructions.Add(1)
		if f.err != nil {
			return nil, f.err
		}
		return f.adapter, nil
	}
}

func (f *countingFactory) Constructions() int64 {
	return f.constructions.Load()
}

func paymentsPolicy(primary string, fallbacks ...string) *Policy {
	policy, err := NewPolicy(map[Capability]CapabilityPolicy{
		CapabilityPayments: {
			Default:   primary,
			Fallbacks: fallbacks,
		},
	})
	if err != nil {
		panic(err)
	}
	return policy
}
