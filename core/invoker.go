package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultAttemptTimeout = 10 * time.Second

// Invoker executes a capability operation against the resolved provider
// sequence. Attempts are strictly sequential so side-effecting operations
// are never duplicated across vendors; retry is only ever expressed as
// moving to the next provider in the sequence.
type Invoker struct {
	registry       Registry
	resolver       ProviderResolver
	attemptTimeout time.Duration
}

func NewInvoker(registry Registry, resolver ProviderResolver, attemptTimeout time.Duration) (*Invoker, error) {
	if registry == nil {
		return nil, fmt.Errorf("core: adapter registry is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("core: provider resolver is required")
	}
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &Invoker{
		registry:       registry,
		resolver:       resolver,
		attemptTimeout: attemptTimeout,
	}, nil
}

func (i *Invoker) Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error) {
	if i == nil {
		return InvokeResult{}, fmt.Errorf("core: invoker is nil")
	}
	operation := strings.TrimSpace(req.Operation)
	if operation == "" {
		return InvokeResult{}, fmt.Errorf("core: operation name is required")
	}

	sequence, err := i.resolver.Resolve(req.Capability, req.Context)
	if err != nil {
		return InvokeResult{}, err
	}

	timeout := req.AttemptTimeout
	if timeout <= 0 {
		timeout = i.attemptTimeout
	}

	result := InvokeResult{
		InvocationID: uuid.NewString(),
		Attempts:     make([]Attempt, 0, len(sequence)),
	}

	for _, provider := range sequence {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// Registration and construction errors are configuration mistakes;
		// they fail fast instead of advancing the chain.
		adapter, err := i.registry.Get(ctx, req.Capability, provider)
		if err != nil {
			return result, err
		}

		output, elapsed, attemptErr := i.attempt(ctx, adapter, operation, req.Args, timeout)
		result.Attempts = append(result.Attempts, Attempt{
			Provider: provider,
			Err:      attemptErr,
			Duration: elapsed,
		})

		switch Classify(attemptErr) {
		case OutcomeSuccess:
			result.Provider = provider
			result.Output = output
			return result, nil
		case OutcomeFatal:
			return result, attemptErr
		}

		// Recoverable: if the caller's context died during the attempt,
		// surface that instead of walking the rest of the chain.
		if ctx.Err() != nil && errors.Is(attemptErr, context.Canceled) {
			return result, ctx.Err()
		}
	}

	return result, &ExhaustedError{
		Capability: req.Capability,
		Operation:  operation,
		Attempts:   append([]Attempt(nil), result.Attempts...),
	}
}

// attempt bounds a single adapter call with its own timeout context.
// Cancelling one attempt must not cancel a later attempt, so each gets a
// fresh child of the caller's context.
func (i *Invoker) attempt(
	ctx context.Context,
	adapter Adapter,
	operation string,
	args map[string]any,
	timeout time.Duration,
) (map[string]any, time.Duration, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	output, err := adapter.Invoke(attemptCtx, operation, copyAnyMap(args))
	elapsed := time.Since(started)

	if err == nil && attemptCtx.Err() != nil {
		err = attemptCtx.Err()
	}
	return output, elapsed, err
}
