package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gitm/javango/internal/query"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", formatEvent(ev))
		}
	}
	return buf.String()
}

// evaluateAssertions checks every assertion and returns one message per
// failure.
func (h *Harness) evaluateAssertions(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCallCount:
			err = h.assertCallCount(a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertFinalState:
			err = h.assertFinalState(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertCallCount checks how often the model's data source saw an
// operation during the flow. Setup calls are not counted.
func (h *Harness) assertCallCount(a Assertion) error {
	counter, ok := h.counters[a.Model]
	if !ok {
		return fmt.Errorf("unknown model %q", a.Model)
	}
	if got := counter.Calls(a.Op); got != a.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%d %s call(s) on %s", a.Count, a.Op, a.Model),
			Actual:   fmt.Sprintf("%d call(s)", got),
		}
	}
	return nil
}

// assertTraceOrder checks that ops appear in the given relative order.
// Intervening steps are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Ops) && ev.Op == a.Ops[next] {
			next++
		}
	}
	if next < len(a.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order: %v", a.Ops),
			Actual:   fmt.Sprintf("%s not found after %v", a.Ops[next], a.Ops[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState queries the model's underlying data source directly,
// so neither field validation nor the call counters are involved.
func (h *Harness) assertFinalState(ctx context.Context, a Assertion) error {
	ds, ok := h.inner[a.Model]
	if !ok {
		return fmt.Errorf("unknown model %q", a.Model)
	}

	q := query.New(a.Model).WithFilter(query.FilterFromStrings(a.Where))
	set, err := ds.Retrieve(ctx, q)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query %s", a.Model),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	where := formatWhere(a.Where)
	if a.Absent {
		if set.Len() != 0 {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("no record in %s where %s", a.Model, where),
				Actual:   fmt.Sprintf("%d record(s)", set.Len()),
			}
		}
		return nil
	}

	if set.Len() != 1 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("one record in %s where %s", a.Model, where),
			Actual:   fmt.Sprintf("%d record(s)", set.Len()),
		}
	}
	if msg := matchFields(set.At(0), a.Expect); msg != "" {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record in %s where %s to have %s", a.Model, where, formatWhere(a.Expect)),
			Actual:   msg,
		}
	}
	return nil
}

func formatWhere(m map[string]string) string {
	if len(m) == 0 {
		return "(all)"
	}
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%q", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
