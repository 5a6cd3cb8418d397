package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want OutcomeKind
	}{
		{"nil", nil, OutcomeSuccess},
		{"recoverable wrapper", Recoverable(errors.New("503"), "vendor unavailable"), OutcomeRecoverable},
		{"fatal wrapper", Fatal(errors.New("bad currency"), "unsupported currency"), OutcomeFatal},
		{"declared kind", NewOperationError("card_declined", "insufficient funds"), OutcomeFatal},
		{"wrapped declared kind", fmt.Errorf("charge: %w", NewOperationError("card_declined", "")), OutcomeFatal},
		{"deadline", context.DeadlineExceeded, OutcomeRecoverable},
		{"undeclared operation", ErrUnknownOperation, OutcomeFatal},
		{"bad input category", goerrors.New("amount missing", goerrors.CategoryBadInput), OutcomeFatal},
		{"auth category", goerrors.New("key revoked", goerrors.CategoryAuth), OutcomeFatal},
		{"external category", goerrors.New("upstream 502", goerrors.CategoryExternal), OutcomeRecoverable},
		{"plain error", errors.New("connection reset"), OutcomeRecoverable},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestClassify_WrapperWinsOverCategory(t *testing.T) {
	// An explicit fatal marker around an otherwise recoverable-looking cause
	// must stop the chain.
	err := Fatal(goerrors.New("upstream 502", goerrors.CategoryExternal), "idempotency key reused")
	if got := Classify(err); got != OutcomeFatal {
		t.Fatalf("expected explicit wrapper to win, got %s", got)
	}
}

func TestRecoverableAndFatalMessages(t *testing.T) {
	recoverable := Recoverable(errors.New("dial tcp: timeout"), "gateway unreachable")
	if !errors.Is(recoverable, recoverable) || recoverable.Error() == "" {
		t.Fatalf("expected non-empty recoverable message")
	}
	cause := errors.New("dial tcp: timeout")
	if !errors.Is(Recoverable(cause, "x"), cause) {
		t.Fatalf("expected unwrap to reach the cause")
	}
	fatal := Fatal(nil, "unsupported currency")
	if fatal.Error() == "" {
		t.Fatalf("expected non-empty fatal message")
	}
}
