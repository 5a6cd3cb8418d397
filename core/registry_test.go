package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestAdapterRegistry_DuplicateProviderRejected(t *testing.T) {
	registry := NewAdapterRegistry()
	adapter := newTestAdapter(CapabilityPayments, "stripe")
	if err := registry.Register(CapabilityPayments, "stripe", staticFactory(adapter)); err != nil {
		t.Fatalf("register adapter: %v", err)
	}
	err := registry.Register(CapabilityPayments, "stripe", staticFactory(adapter))
	if !errors.Is(err, ErrDuplicateProvider) {
		t.Fatalf("expected duplicate provider error, got %v", err)
	}
	// Same provider name under another capability is a different entry.
	other := newTestAdapter(CapabilityStorage, "stripe")
	if err := registry.Register(CapabilityStorage, "stripe", staticFactory(other)); err != nil {
		t.Fatalf("register same name under storage: %v", err)
	}
}

func TestAdapterRegistry_GetMemoizesConstruction(t *testing.T) {
	ctx := context.Background()
	registry := NewAdapterRegistry()
	factory := &countingFactory{adapter: newTestAdapter(CapabilityPayments, "stripe")}
	if err := registry.Register(CapabilityPayments, "stripe", factory.Factory()); err != nil {
		t.Fatalf("register adapter: %v", err)
	}

	first, err := registry.Get(ctx, CapabilityPayments, "stripe")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := registry.Get(ctx, CapabilityPayments, "stripe")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if first != second {
		t.Fatalf("expected memoized adapter instance")
	}
	if got := factory.Constructions(); got != 1 {
		t.Fatalf("expected one construction, got %d", got)
	}
}

func TestAdapterRegistry_UnknownProvider(t *testing.T) {
	registry := NewAdapterRegistry()
	_, err := registry.Get(context.Background(), CapabilityPayments, "stripe")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestAdapterRegistry_InitFailureNotCached(t *testing.T) {
	ctx := context.Background()
	registry := NewAdapterRegistry()

	attempts := 0
	adapter := newTestAdapter(CapabilityPayments, "stripe")
	factory := func(context.Context) (Adapter, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("credential validation failed")
		}
		return adapter, nil
	}
	if err := registry.Register(CapabilityPayments, "stripe", factory); err != nil {
		t.Fatalf("register adapter: %v", err)
	}

	if _, err := registry.Get(ctx, CapabilityPayments, "stripe"); !errors.Is(err, ErrProviderInit) {
		t.Fatalf("expected provider init error, got %v", err)
	}
	got, err := registry.Get(ctx, CapabilityPayments, "stripe")
	if err != nil {
		t.Fatalf("retried get: %v", err)
	}
	if got != adapter {
		t.Fatalf("expected adapter from retried construction")
	}
	if attempts != 2 {
		t.Fatalf("expected construction retried once, got %d attempts", attempts)
	}
}

func TestAdapterRegistry_MismatchedAdapterRejected(t *testing.T) {
	registry := NewAdapterRegistry()
	wrong := newTestAdapter(CapabilityStorage, "stripe")
	if err := registry.Register(CapabilityPayments, "stripe", staticFactory(wrong)); err != nil {
		t.Fatalf("register adapter: %v", err)
	}
	_, err := registry.Get(context.Background(), CapabilityPayments, "stripe")
	if !errors.Is(err, ErrProviderInit) {
		t.Fatalf("expected provider init error for capability mismatch, got %v", err)
	}
}

func TestAdapterRegistry_ConcurrentFirstUseConstructsOnce(t *testing.T) {
	ctx := context.Background()
	registry := NewAdapterRegistry()
	factory := &countingFactory{adapter: newTestAdapter(CapabilityPayments, "stripe")}
	if err := registry.Register(CapabilityPayments, "stripe", factory.Factory()); err != nil {
		t.Fatalf("register adapter: %v", err)
	}

	const callers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for idx := 0; idx < callers; idx++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			<-start
			_, errs[slot] = registry.Get(ctx, CapabilityPayments, "stripe")
		}(idx)
	}
	close(start)
	wg.Wait()

	for idx, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", idx, err)
		}
	}
	if got := factory.Constructions(); got != 1 {
		t.Fatalf("expected exactly one construction, got %d", got)
	}
}

func TestAdapterRegistry_ListSortedPerCapability(t *testing.T) {
	registry := NewAdapterRegistry()
	for _, provider := range []string{"zeta", "alpha", "beta"} {
		adapter := newTestAdapter(CapabilityNotifications, provider)
		if err := registry.Register(CapabilityNotifications, provider, staticFactory(adapter)); err != nil {
			t.Fatalf("register %s: %v", provider, err)
		}
	}
	other := newTestAdapter(CapabilitySearch, "meili")
	if err := registry.Register(CapabilitySearch, "meili", staticFactory(other)); err != nil {
		t.Fatalf("register search provider: %v", err)
	}

	got := registry.List(CapabilityNotifications)
	want := []string{"alpha", "beta", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("expected %d providers, got %v", len(want), got)
	}
	for idx := range want {
		if got[idx] != want[idx] {
			t.Fatalf("unexpected ordering at index %d: got %v want %v", idx, got, want)
		}
	}
}

func TestAdapterRegistry_CloseShutsDownConstructedAdapters(t *testing.T) {
	ctx := context.Background()
	registry := NewAdapterRegistry()
	constructed := newTestAdapter(CapabilityPayments, "stripe")
	idle := newTestAdapter(CapabilityPayments, "pagseguro")
	if err := registry.Register(CapabilityPayments, "stripe", staticFactory(constructed)); err != nil {
		t.Fatalf("register stripe: %v", err)
	}
	if err := registry.Register(CapabilityPayments, "pagseguro", staticFactory(idle)); err != nil {
		t.Fatalf("register pagseguro: %v", err)
	}
	if _, err := registry.Get(ctx, CapabilityPayments, "stripe"); err != nil {
		t.Fatalf("get stripe: %v", err)
	}

	if err := registry.Close(ctx); err != nil {
		t.Fatalf("close registry: %v", err)
	}
	if constructed.shutdowns != 1 {
		t.Fatalf("expected constructed adapter shut down once, got %d", constructed.shutdowns)
	}
	if idle.shutdowns != 0 {
		t.Fatalf("expected never-constructed adapter untouched, got %d shutdowns", idle.shutdowns)
	}
}
