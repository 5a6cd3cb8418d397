// Package conformance checks adapters against their capability contract and
// reports the result as data. A failing adapter never aborts a run; each
// finding becomes a failed check in the report so operators can compare
// providers side by side.
package conformance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-capability/core"
)

// Check is one verified behavior. Detail is empty when the check passes.
type Check struct {
	Name      string
	Operation string
	Passed    bool
	Detail    string
}

// Report is the outcome of verifying one adapter against one contract.
type Report struct {
	Capability      core.Capability
	Provider        string
	ContractVersion int
	Checks          []Check
}

// Pass reports whether every check passed.
func (r Report) Pass() bool {
	for _, check := range r.Checks {
		if !check.Passed {
			return false
		}
	}
	return len(r.Checks) > 0
}

// Failures returns the failed checks in report order.
func (r Report) Failures() []Check {
	var failed []Check
	for _, check := range r.Checks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

// Verify runs the contract's fixture suite against the adapter. It returns
// an error only when the inputs are unusable (nil adapter, invalid
// contract); adapter misbehavior is recorded in the report instead.
func Verify(ctx context.Context, contract core.ContractDescriptor, adapter core.Adapter) (Report, error) {
	if adapter == nil {
		return Report{}, fmt.Errorf("conformance: adapter is required")
	}
	if err := contract.Validate(); err != nil {
		return Report{}, err
	}

	report := Report{
		Capability:      contract.Capability,
		Provider:        adapter.Provider(),
		ContractVersion: contract.Version,
	}

	report.Checks = append(report.Checks, checkCapabilityMatch(contract, adapter))

	names := contract.OperationNames()
	for _, name := range names {
		spec, _ := contract.Operation(name)
		report.Checks = append(report.Checks, checkValidInput(ctx, adapter, spec)...)
		report.Checks = append(report.Checks, checkFaultFixtures(ctx, adapter, spec)...)
	}
	report.Checks = append(report.Checks, checkUndeclaredOperation(ctx, contract, adapter))

	return report, nil
}

// Matrix verifies several adapters against the same contract. Reports come
// back sorted by provider so runs are stable regardless of argument order.
func Matrix(ctx context.Context, contract core.ContractDescriptor, adapters ...core.Adapter) ([]Report, error) {
	reports := make([]Report, 0, len(adapters))
	for _, adapter := range adapters {
		report, err := Verify(ctx, contract, adapter)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Provider < reports[j].Provider
	})
	return reports, nil
}

func checkCapabilityMatch(contract core.ContractDescriptor, adapter core.Adapter) Check {
	check := Check{Name: "capability_match", Passed: true}
	if adapter.Capability() != contract.Capability {
		check.Passed = false
		check.Detail = fmt.Sprintf("adapter serves %q, contract describes %q", adapter.Capability(), contract.Capability)
	}
	return check
}

func checkValidInput(ctx context.Context, adapter core.Adapter, spec core.OperationSpec) []Check {
	check := Check{Name: "valid_input", Operation: spec.Name, Passed: true}
	output, err := adapter.Invoke(ctx, spec.Name, copyFixtureInput(spec.Fixture.ValidInput))
	if err != nil {
		check.Passed = false
		check.Detail = "valid fixture input failed: " + err.Error()
		return []Check{check}
	}

	shape := Check{Name: "output_shape", Operation: spec.Name, Passed: true}
	var missing []string
	for _, field := range spec.Output {
		if _, ok := output[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		shape.Passed = false
		shape.Detail = "missing declared output fields: " + strings.Join(missing, ", ")
	}
	return []Check{check, shape}
}

func checkFaultFixtures(ctx context.Context, adapter core.Adapter, spec core.OperationSpec) []Check {
	checks := make([]Check, 0, len(spec.Fixture.Faults))
	for _, fault := range spec.Fixture.Faults {
		check := Check{
			Name:      "fault_" + fault.Kind,
			Operation: spec.Name,
			Passed:    true,
		}
		_, err := adapter.Invoke(ctx, spec.Name, copyFixtureInput(fault.Input))
		var opErr *core.OperationError
		switch {
		case err == nil:
			check.Passed = false
			check.Detail = fmt.Sprintf("fault fixture for %q succeeded", fault.Kind)
		case !errors.As(err, &opErr):
			check.Passed = false
			check.Detail = fmt.Sprintf("fault fixture for %q surfaced an undeclared error: %v", fault.Kind, err)
		case opErr.Kind != fault.Kind:
			check.Passed = false
			check.Detail = fmt.Sprintf("expected kind %q, got %q", fault.Kind, opErr.Kind)
		}
		checks = append(checks, check)
	}
	return checks
}

func checkUndeclaredOperation(ctx context.Context, contract core.ContractDescriptor, adapter core.Adapter) Check {
	check := Check{Name: "undeclared_operation_rejected", Passed: true}
	probe := probeOperationName(contract)
	if _, err := adapter.Invoke(ctx, probe, map[string]any{}); err == nil {
		check.Passed = false
		check.Detail = fmt.Sprintf("adapter accepted undeclared operation %q", probe)
	}
	return check
}

// probeOperationName picks a name guaranteed absent from the contract.
func probeOperationName(contract core.ContractDescriptor) string {
	probe := "nonexistent_operation"
	for {
		if _, ok := contract.Operation(probe); !ok {
			return probe
		}
		probe += "_x"
	}
}

func copyFixtureInput(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
