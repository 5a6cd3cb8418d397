package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Service is the single entry point application code receives: it composes
// the adapter registry, the policy resolver, and the resilient invoker so
// callers never name a concrete vendor or reach into global state.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	registry        Registry
	resolver        *Resolver
	invoker         *Invoker
	activitySink    ActivitySink
	contracts       map[Capability]ContractDescriptor
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Registry        Registry
	Resolver        *Resolver
	ActivitySink    ActivitySink
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&builder)
	}

	provider, logger := glog.Resolve("capability", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("capability"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewAdapterRegistry()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	for capability, contract := range builder.contracts {
		if contract.Capability != capability {
			return nil, mapBuildError(builder.errorMapper, fmt.Errorf(
				"core: contract registered under %q describes capability %q",
				capability, contract.Capability,
			))
		}
		if err := contract.Validate(); err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
	}

	policy := builder.policy
	if policy == nil {
		policy, err = finalConfig.CompilePolicy()
		if err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
	}
	resolver, err := NewResolver(policy)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	invoker, err := NewInvoker(builder.registry, resolver, finalConfig.AttemptTimeout())
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		registry:        builder.registry,
		resolver:        resolver,
		invoker:         invoker,
		activitySink:    builder.activitySink,
		contracts:       builder.contracts,
	}, nil
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Contract(capability Capability) (ContractDescriptor, bool) {
	if s == nil {
		return ContractDescriptor{}, false
	}
	contract, ok := s.contracts[capability]
	return contract, ok
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Registry:        s.registry,
		Resolver:        s.resolver,
		ActivitySink:    s.activitySink,
	}
}

func (s *Service) RegisterAdapter(capability Capability, provider string, factory AdapterFactory) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"capability": capability,
		"provider":   provider,
	}
	defer func() {
		s.observeOperation(context.Background(), startedAt, "register_adapter", err, fields)
	}()

	if s == nil || s.registry == nil {
		return fmt.Errorf("core: service is not configured")
	}
	if len(s.contracts) > 0 {
		if _, ok := s.contracts[capability]; !ok {
			err = s.mapError(fmt.Errorf(
				"%w: %q is not among configured contracts (%s)",
				ErrUnknownCapability, capability, strings.Join(sortedCapabilityNames(s.contracts), ", "),
			))
			return err
		}
	}
	if registerErr := s.registry.Register(capability, provider, factory); registerErr != nil {
		err = s.mapError(registerErr)
		return err
	}
	return nil
}

func (s *Service) Invoke(ctx context.Context, req InvokeRequest) (result InvokeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"capability": req.Capability,
		"operation":  req.Operation,
		"tenant_id":  req.Context.TenantID,
	}
	defer func() {
		if result.Provider != "" {
			fields["provider"] = result.Provider
		}
		fields["attempts"] = len(result.Attempts)
		s.observeOperation(ctx, startedAt, "invoke", err, fields)
	}()

	if s == nil || s.invoker == nil {
		return InvokeResult{}, fmt.Errorf("core: service is not configured")
	}
	if validateErr := s.validateInvoke(req); validateErr != nil {
		err = s.mapError(validateErr)
		return InvokeResult{}, err
	}

	result, err = s.invoker.Invoke(ctx, req)
	s.recordInvocation(ctx, req, result, err)
	if err == nil {
		return result, nil
	}

	// Call-time outcomes surface untouched: a fatal failure keeps the
	// adapter's error detail and an exhausted chain keeps its history.
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) || Classify(err) == OutcomeFatal {
		return result, err
	}
	err = s.mapError(err)
	return result, err
}

func (s *Service) Resolve(capability Capability, rctx ResolutionContext) ([]string, error) {
	if s == nil || s.resolver == nil {
		return nil, fmt.Errorf("core: service is not configured")
	}
	sequence, err := s.resolver.Resolve(capability, rctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return sequence, nil
}

func (s *Service) ListProviders(capability Capability) []string {
	if s == nil || s.registry == nil {
		return nil
	}
	return s.registry.List(capability)
}

// ReloadPolicy compiles the given configuration and swaps the resolver's
// policy snapshot atomically. This is the administrative reload path; it
// never touches the request path.
func (s *Service) ReloadPolicy(ctx context.Context, cfg Config) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "reload_policy", err, map[string]any{})
	}()

	if s == nil || s.resolver == nil {
		return fmt.Errorf("core: service is not configured")
	}
	policy, compileErr := cfg.CompilePolicy()
	if compileErr != nil {
		err = s.mapError(compileErr)
		return err
	}
	if reloadErr := s.resolver.Reload(policy); reloadErr != nil {
		err = s.mapError(reloadErr)
		return err
	}
	return nil
}

func (s *Service) Close(ctx context.Context) error {
	if s == nil || s.registry == nil {
		return nil
	}
	if err := s.registry.Close(ctx); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) validateInvoke(req InvokeRequest) error {
	if err := req.Capability.Validate(); err != nil {
		return err
	}
	operation := strings.TrimSpace(req.Operation)
	if operation == "" {
		return fmt.Errorf("core: operation name is required")
	}
	contract, ok := s.contracts[req.Capability]
	if !ok {
		return nil
	}
	if _, declared := contract.Operation(operation); !declared {
		return fmt.Errorf("%w: %s.%s", ErrUnknownOperation, req.Capability, operation)
	}
	return nil
}

func (s *Service) recordInvocation(ctx context.Context, req InvokeRequest, result InvokeResult, invokeErr error) {
	if s == nil || s.activitySink == nil {
		return
	}
	status := ActivityStatusOK
	errorText := ""
	if invokeErr != nil {
		status = ActivityStatusFailed
		errorText = invokeErr.Error()
	}
	id := strings.TrimSpace(result.InvocationID)
	if id == "" {
		id = uuid.NewString()
	}
	metadata := map[string]any{
		"flags": copyStringMap(req.Context.Flags),
	}
	if len(result.Attempts) > 0 {
		history := make([]string, 0, len(result.Attempts))
		for _, attempt := range result.Attempts {
			reason := "ok"
			if attempt.Err != nil {
				reason = attempt.Err.Error()
			}
			history = append(history, attempt.Provider+": "+reason)
		}
		metadata["history"] = history
	}

	entry := InvocationActivityEntry{
		ID:           id,
		Capability:   req.Capability,
		Operation:    strings.TrimSpace(req.Operation),
		TenantID:     strings.TrimSpace(req.Context.TenantID),
		Provider:     result.Provider,
		Status:       status,
		AttemptCount: len(result.Attempts),
		ErrorText:    errorText,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}
	if sinkErr := s.activitySink.Record(ctx, entry); sinkErr != nil {
		s.logError(ctx, "activity record failed", map[string]any{
			"capability": req.Capability,
			"operation":  req.Operation,
			"error":      sinkErr.Error(),
		})
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	if mapped := s.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper != nil {
		if mapped := mapper(err); mapped != nil {
			return mapped
		}
	}
	return err
}
