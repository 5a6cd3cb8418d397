// Package gojob maps deferred capability invocations onto the go-job queue
// contracts. Enqueue-side code hands the queue an AsyncInvocationMessage;
// the consumer side rebuilds the invoke request and acks or nacks by the
// invocation outcome.
package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-capability/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const JobIDInvoke = "capability.invoke"

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts core.JobNackOptions, attempt int) core.JobNackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// ToExecutionMessage maps a deferred invocation onto the go-job message.
// The invocation payload travels in Parameters under stable keys.
func ToExecutionMessage(msg *core.AsyncInvocationMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	flags := make(map[string]any, len(msg.Flags))
	for key, value := range msg.Flags {
		flags[key] = value
	}
	return &job.ExecutionMessage{
		JobID: JobIDInvoke,
		Parameters: map[string]any{
			"invocation_id": strings.TrimSpace(msg.InvocationID),
			"capability":    strings.TrimSpace(msg.Capability),
			"operation":     strings.TrimSpace(msg.Operation),
			"args":          copyAnyMap(msg.Args),
			"tenant_id":     strings.TrimSpace(msg.TenantID),
			"flags":         flags,
		},
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

// FromExecutionMessage rebuilds the deferred invocation from a go-job
// message. Unknown parameter shapes degrade to empty values rather than
// failing; the consumer validates the rebuilt request before invoking.
func FromExecutionMessage(msg *job.ExecutionMessage) *core.AsyncInvocationMessage {
	if msg == nil {
		return nil
	}
	params := msg.Parameters
	return &core.AsyncInvocationMessage{
		InvocationID:   parameterString(params, "invocation_id"),
		Capability:     parameterString(params, "capability"),
		Operation:      parameterString(params, "operation"),
		Args:           parameterMap(params, "args"),
		TenantID:       parameterString(params, "tenant_id"),
		Flags:          parameterStringMap(params, "flags"),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

// ToInvokeRequest converts a deferred invocation into the synchronous
// request shape the capability service executes.
func ToInvokeRequest(msg *core.AsyncInvocationMessage) core.InvokeRequest {
	if msg == nil {
		return core.InvokeRequest{}
	}
	return core.InvokeRequest{
		Capability: core.Capability(strings.TrimSpace(msg.Capability)),
		Operation:  strings.TrimSpace(msg.Operation),
		Args:       copyAnyMap(msg.Args),
		Context: core.ResolutionContext{
			TenantID: strings.TrimSpace(msg.TenantID),
			Flags:    msg.Flags,
		},
	}
}

// ToNackOptions maps nack options to go-job.
func ToNackOptions(opts core.JobNackOptions) queue.NackOptions {
	return queue.NackOptions{
		Delay:      opts.Delay,
		Requeue:    opts.Requeue,
		DeadLetter: opts.DeadLetter,
		Reason:     opts.Reason,
	}
}

// FromNackOptions maps go-job nack options back.
func FromNackOptions(opts queue.NackOptions) core.JobNackOptions {
	return core.JobNackOptions{
		Delay:      opts.Delay,
		Requeue:    opts.Requeue,
		DeadLetter: opts.DeadLetter,
		Reason:     opts.Reason,
	}
}

// EnqueuerAdapter defers a capability invocation onto the queue.
type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.AsyncInvocationMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: invocation message is required")
	}
	if strings.TrimSpace(msg.Capability) == "" || strings.TrimSpace(msg.Operation) == "" {
		return fmt.Errorf("gojob: invocation message requires capability and operation")
	}
	return a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
}

// InvokeFunc executes one capability invocation; the service's Invoke
// method satisfies it.
type InvokeFunc func(ctx context.Context, req core.InvokeRequest) (core.InvokeResult, error)

// Consumer drains deferred invocations: success acks, a fatal outcome dead
// letters (another run cannot fix caller input), and a recoverable outcome
// requeues within the retry policy's bounds.
type Consumer struct {
	dequeuer queue.Dequeuer
	invoke   InvokeFunc
	policy   RetryPolicy
}

func NewConsumer(dequeuer queue.Dequeuer, invoke InvokeFunc, policy RetryPolicy) (*Consumer, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if invoke == nil {
		return nil, fmt.Errorf("gojob: invoke func is required")
	}
	return &Consumer{dequeuer: dequeuer, invoke: invoke, policy: policy}, nil
}

// ProcessOne handles a single delivery. Queue transport failures surface to
// the caller; invocation outcomes are settled on the delivery itself.
func (c *Consumer) ProcessOne(ctx context.Context, attempt int) error {
	if c == nil || c.dequeuer == nil {
		return fmt.Errorf("gojob: consumer is not configured")
	}
	delivery, err := c.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	msg := FromExecutionMessage(delivery.Message())
	if msg == nil {
		return delivery.Nack(ctx, ToNackOptions(c.policy.NormalizeAttempt(core.JobNackOptions{
			Reason:     "empty delivery",
			DeadLetter: true,
		}, attempt)))
	}

	_, invokeErr := c.invoke(ctx, ToInvokeRequest(msg))
	switch core.Classify(invokeErr) {
	case core.OutcomeSuccess:
		return delivery.Ack(ctx)
	case core.OutcomeFatal:
		return delivery.Nack(ctx, ToNackOptions(c.policy.NormalizeAttempt(core.JobNackOptions{
			Reason:     invokeErr.Error(),
			DeadLetter: true,
		}, attempt)))
	default:
		return delivery.Nack(ctx, ToNackOptions(c.policy.NormalizeAttempt(core.JobNackOptions{
			Reason:  invokeErr.Error(),
			Requeue: true,
		}, attempt)))
	}
}

func parameterString(params map[string]any, key string) string {
	if len(params) == 0 {
		return ""
	}
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func parameterMap(params map[string]any, key string) map[string]any {
	if len(params) == 0 {
		return map[string]any{}
	}
	value, ok := params[key].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return copyAnyMap(value)
}

func parameterStringMap(params map[string]any, key string) map[string]string {
	out := map[string]string{}
	if len(params) == 0 {
		return out
	}
	switch typed := params[key].(type) {
	case map[string]string:
		for k, v := range typed {
			out[k] = v
		}
	case map[string]any:
		for k, v := range typed {
			if text, ok := v.(string); ok {
				out[k] = text
			}
		}
	}
	return out
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
