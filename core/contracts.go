package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Capability string

const (
	CapabilityAuth          Capability = "auth"
	CapabilityPayments      Capability = "payments"
	CapabilityNotifications Capability = "notifications"
	CapabilityStorage       Capability = "storage"
	CapabilitySearch        Capability = "search"
)

func KnownCapabilities() []Capability {
	return []Capability{
		CapabilityAuth,
		CapabilityPayments,
		CapabilityNotifications,
		CapabilityStorage,
		CapabilitySearch,
	}
}

func (c Capability) String() string {
	return string(c)
}

func (c Capability) Validate() error {
	name := strings.TrimSpace(string(c))
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownCapability)
	}
	for _, known := range KnownCapabilities() {
		if name == string(known) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCapability, name)
}

// FaultFixture is an input known to trigger a declared error kind. The
// conformance verifier feeds it to every adapter of the capability.
type FaultFixture struct {
	Input map[string]any
	Kind  string
}

// OperationFixture carries the conformance inputs authored alongside the
// contract, one suite per capability shared by all of its providers.
type OperationFixture struct {
	ValidInput map[string]any
	Faults     []FaultFixture
}

type OperationSpec struct {
	Name       string
	Input      []string
	Output     []string
	ErrorKinds []string
	Fixture    OperationFixture
}

func (s OperationSpec) DeclaresErrorKind(kind string) bool {
	kind = strings.TrimSpace(kind)
	for _, declared := range s.ErrorKinds {
		if declared == kind {
			return true
		}
	}
	return false
}

// ContractDescriptor is the behavioral contract every adapter of a
// capability must satisfy. Purely descriptive; the conformance package
// checks adapters against it.
type ContractDescriptor struct {
	Capability Capability
	Version    int
	Operations map[string]OperationSpec
}

func (d ContractDescriptor) Operation(name string) (OperationSpec, bool) {
	spec, ok := d.Operations[strings.TrimSpace(name)]
	return spec, ok
}

func (d ContractDescriptor) OperationNames() []string {
	names := make([]string, 0, len(d.Operations))
	for name := range d.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d ContractDescriptor) Validate() error {
	if err := d.Capability.Validate(); err != nil {
		return err
	}
	if d.Version <= 0 {
		return fmt.Errorf("core: contract %q requires a positive version", d.Capability)
	}
	if len(d.Operations) == 0 {
		return fmt.Errorf("core: contract %q declares no operations", d.Capability)
	}
	for name, spec := range d.Operations {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("core: contract %q declares an unnamed operation", d.Capability)
		}
		if spec.Name != name {
			return fmt.Errorf("core: contract %q operation %q is declared under name %q", d.Capability, name, spec.Name)
		}
		for _, fault := range spec.Fixture.Faults {
			if !spec.DeclaresErrorKind(fault.Kind) {
				return fmt.Errorf("core: contract %q operation %q fault fixture references undeclared kind %q", d.Capability, name, fault.Kind)
			}
		}
	}
	return nil
}

// Adapter implements every operation of one capability for one provider.
// Provider configuration (credentials, endpoints) is injected at
// construction time by the registry factory, never per call.
type Adapter interface {
	Provider() string
	Capability() Capability
	Invoke(ctx context.Context, operation string, args map[string]any) (map[string]any, error)
}

type AdapterFactory func(ctx context.Context) (Adapter, error)

// AdapterShutdown is implemented by adapters that own external resources
// (connections, credentials) released on administrative teardown.
type AdapterShutdown interface {
	Shutdown(ctx context.Context) error
}

type Registry interface {
	Register(capability Capability, provider string, factory AdapterFactory) error
	Get(ctx context.Context, capability Capability, provider string) (Adapter, error)
	List(capability Capability) []string
	Close(ctx context.Context) error
}

// ResolutionContext is the per-call input to provider selection. It is
// ephemeral and never persisted.
type ResolutionContext struct {
	TenantID string
	Flags    map[string]string
}

func (c ResolutionContext) Flag(key string) (string, bool) {
	value, ok := c.Flags[strings.TrimSpace(key)]
	return value, ok
}

type ProviderResolver interface {
	Resolve(capability Capability, rctx ResolutionContext) ([]string, error)
}

type Attempt struct {
	Provider string
	Err      error
	Duration time.Duration
}

type InvokeRequest struct {
	Capability     Capability
	Operation      string
	Args           map[string]any
	Context        ResolutionContext
	AttemptTimeout time.Duration
}

type InvokeResult struct {
	InvocationID string
	Provider     string
	Output       map[string]any
	Attempts     []Attempt
}

type ActivityStatus string

const (
	ActivityStatusOK     ActivityStatus = "ok"
	ActivityStatusFailed ActivityStatus = "failed"
)

type InvocationActivityEntry struct {
	ID           string
	Capability   Capability
	Operation    string
	TenantID     string
	Provider     string
	Status       ActivityStatus
	AttemptCount int
	ErrorText    string
	Metadata     map[string]any
	CreatedAt    time.Time
}

type InvocationActivityFilter struct {
	Capability Capability
	Provider   string
	TenantID   string
	Status     ActivityStatus
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

type InvocationActivityPage struct {
	Items      []InvocationActivityEntry
	Page       int
	PerPage    int
	Total      int
	HasNext    bool
	NextCursor string
}

// ActivitySink receives finished invocations (success or final failure) for
// external logging and metrics collectors. The core never transmits
// telemetry itself.
type ActivitySink interface {
	Record(ctx context.Context, entry InvocationActivityEntry) error
}

type ActivityReader interface {
	ListActivity(ctx context.Context, filter InvocationActivityFilter) (InvocationActivityPage, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// AsyncInvocationMessage is the queue-facing shape of a deferred capability
// invocation, mapped to go-job by adapters/gojob.
type AsyncInvocationMessage struct {
	InvocationID   string
	Capability     string
	Operation      string
	Args           map[string]any
	TenantID       string
	Flags          map[string]string
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Reason     string
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
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

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
