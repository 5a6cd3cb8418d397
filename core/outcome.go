package core

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeRecoverable OutcomeKind = "recoverable"
	OutcomeFatal       OutcomeKind = "fatal"
)

// RecoverableError marks a transient failure (timeout, vendor hiccup, rate
// limit) worth handing to the next provider in the fallback chain.
type RecoverableError struct {
	Reason string
	Cause  error
}

func Recoverable(cause error, reason string) error {
	return &RecoverableError{Reason: strings.TrimSpace(reason), Cause: cause}
}

func (e *RecoverableError) Error() string {
	switch {
	case e == nil:
		return "core: recoverable failure"
	case e.Cause == nil:
		return "core: recoverable failure: " + e.Reason
	case e.Reason == "":
		return "core: recoverable failure: " + e.Cause.Error()
	default:
		return "core: recoverable failure: " + e.Reason + ": " + e.Cause.Error()
	}
}

func (e *RecoverableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// FatalError marks a permanent rejection rooted in caller input. Retrying a
// different vendor cannot fix it, so the invoker stops the chain.
type FatalError struct {
	Reason string
	Cause  error
}

func Fatal(cause error, reason string) error {
	return &FatalError{Reason: strings.TrimSpace(reason), Cause: cause}
}

func (e *FatalError) Error() string {
	switch {
	case e == nil:
		return "core: fatal failure"
	case e.Cause == nil:
		return "core: fatal failure: " + e.Reason
	case e.Reason == "":
		return "core: fatal failure: " + e.Cause.Error()
	default:
		return "core: fatal failure: " + e.Reason + ": " + e.Cause.Error()
	}
}

func (e *FatalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Classify maps an adapter call error onto the invocation outcome taxonomy.
// Explicit wrappers win; declared contract error kinds are permanent
// rejections; rich error categories decide the rest. Unclassified errors
// default to recoverable because a vendor hiccup is the common case, while
// caller-input errors must carry a fatal marker or category.
func Classify(err error) OutcomeKind {
	if err == nil {
		return OutcomeSuccess
	}

	var fatal *FatalError
	if errors.As(err, &fatal) {
		return OutcomeFatal
	}
	var recoverable *RecoverableError
	if errors.As(err, &recoverable) {
		return OutcomeRecoverable
	}
	var declared *OperationError
	if errors.As(err, &declared) {
		return OutcomeFatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeRecoverable
	}
	if errors.Is(err, ErrUnknownOperation) {
		return OutcomeFatal
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryBadInput,
			goerrors.CategoryValidation,
			goerrors.CategoryAuth,
			goerrors.CategoryAuthz,
			goerrors.CategoryNotFound,
			goerrors.CategoryConflict:
			return OutcomeFatal
		default:
			return OutcomeRecoverable
		}
	}

	return OutcomeRecoverable
}
