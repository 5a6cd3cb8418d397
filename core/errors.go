package core

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CapabilityErrorBadInput             = "CAPABILITY_BAD_INPUT"
	CapabilityErrorUnknownCapability    = "CAPABILITY_UNKNOWN_CAPABILITY"
	CapabilityErrorUnknownProvider      = "CAPABILITY_UNKNOWN_PROVIDER"
	CapabilityErrorDuplicateProvider    = "CAPABILITY_DUPLICATE_PROVIDER"
	CapabilityErrorProviderInit         = "CAPABILITY_PROVIDER_INIT"
	CapabilityErrorNoProviderConfigured = "CAPABILITY_NO_PROVIDER_CONFIGURED"
	CapabilityErrorUnknownOperation     = "CAPABILITY_UNKNOWN_OPERATION"
	CapabilityErrorProvidersExhausted   = "CAPABILITY_PROVIDERS_EXHAUSTED"
	CapabilityErrorOperationFailed      = "CAPABILITY_OPERATION_FAILED"
	CapabilityErrorInternal             = "CAPABILITY_INTERNAL_ERROR"
)

var (
	ErrUnknownCapability    = errors.New("core: unknown capability")
	ErrUnknownProvider      = errors.New("core: provider not registered")
	ErrDuplicateProvider    = errors.New("core: provider already registered")
	ErrProviderInit         = errors.New("core: provider construction failed")
	ErrNoProviderConfigured = errors.New("core: no provider configured for capability")
	ErrUnknownOperation     = errors.New("core: operation not declared by contract")
	ErrProvidersExhausted   = errors.New("core: all providers exhausted")
)

// ExhaustedError is returned when every provider in the resolved sequence
// failed recoverably. Attempts preserve sequence order for observability.
type ExhaustedError struct {
	Capability Capability
	Operation  string
	Attempts   []Attempt
}

func (e *ExhaustedError) Error() string {
	if e == nil {
		return ErrProvidersExhausted.Error()
	}
	providers := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		providers = append(providers, attempt.Provider)
	}
	return fmt.Sprintf(
		"core: all providers exhausted for %s.%s after %d attempts (%s)",
		e.Capability, e.Operation, len(e.Attempts), strings.Join(providers, ", "),
	)
}

func (e *ExhaustedError) Unwrap() error {
	return ErrProvidersExhausted
}

// History returns (provider, reason) pairs in attempt order.
func (e *ExhaustedError) History() []string {
	if e == nil {
		return nil
	}
	history := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		reason := "unknown"
		if attempt.Err != nil {
			reason = attempt.Err.Error()
		}
		history = append(history, attempt.Provider+": "+reason)
	}
	return history
}

// OperationError is a declared, contract-level error kind such as
// "card_declined". Adapters must surface known business failures through
// this type so callers and the verifier see the declared kind instead of a
// vendor-specific error. Declared kinds are permanent rejections; they
// classify as fatal.
type OperationError struct {
	Kind    string
	Message string
}

func NewOperationError(kind string, message string) *OperationError {
	return &OperationError{Kind: strings.TrimSpace(kind), Message: message}
}

func (e *OperationError) Error() string {
	if e == nil {
		return "core: operation error"
	}
	if strings.TrimSpace(e.Message) == "" {
		return e.Kind
	}
	return e.Kind + ": " + e.Message
}

func capabilityErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureCapabilityErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrUnknownCapability):
		return newCapabilityError(err.Error(), goerrors.CategoryBadInput, CapabilityErrorUnknownCapability)
	case errors.Is(err, ErrUnknownProvider):
		return newCapabilityError(err.Error(), goerrors.CategoryNotFound, CapabilityErrorUnknownProvider)
	case errors.Is(err, ErrDuplicateProvider):
		return newCapabilityError(err.Error(), goerrors.CategoryConflict, CapabilityErrorDuplicateProvider)
	case errors.Is(err, ErrProviderInit):
		return newCapabilityError(err.Error(), goerrors.CategoryOperation, CapabilityErrorProviderInit)
	case errors.Is(err, ErrNoProviderConfigured):
		return newCapabilityError(err.Error(), goerrors.CategoryOperation, CapabilityErrorNoProviderConfigured)
	case errors.Is(err, ErrUnknownOperation):
		return newCapabilityError(err.Error(), goerrors.CategoryBadInput, CapabilityErrorUnknownOperation)
	case errors.Is(err, ErrProvidersExhausted):
		return newCapabilityError(err.Error(), goerrors.CategoryExternal, CapabilityErrorProvidersExhausted)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newCapabilityError(err.Error(), goerrors.CategoryBadInput, CapabilityErrorBadInput)
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newCapabilityError(err.Error(), goerrors.CategoryRateLimit, CapabilityErrorOperationFailed)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureCapabilityErrorEnvelope(mapped)
}

func newCapabilityError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureCapabilityErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureCapabilityErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = capabilityHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultCapabilityTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultCapabilityTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return CapabilityErrorBadInput
	case goerrors.CategoryNotFound:
		return CapabilityErrorUnknownProvider
	case goerrors.CategoryConflict:
		return CapabilityErrorDuplicateProvider
	case goerrors.CategoryRateLimit, goerrors.CategoryExternal:
		return CapabilityErrorOperationFailed
	case goerrors.CategoryOperation:
		return CapabilityErrorNoProviderConfigured
	default:
		return CapabilityErrorInternal
	}
}

func capabilityHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sortedCapabilityNames(capabilities map[Capability]ContractDescriptor) []string {
	names := make([]string, 0, len(capabilities))
	for capability := range capabilities {
		names = append(names, string(capability))
	}
	sort.Strings(names)
	return names
}
