package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace renders a trace as text, one step per line:
//
//	[1] get_with_filter books_books {"authors":"Orwell"} -> ok 1 [{...}]
//	[2] create_new books_books {"isbn":"1"} -> create_error (duplicate key)
//
// Retrieved records are in canonical JSON, so the text does not depend
// on the backend's field order.
func RenderTrace(name string, trace []TraceEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	for _, ev := range trace {
		b.WriteString(formatEvent(ev))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func formatEvent(ev TraceEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s %s", ev.Seq, ev.Op, ev.Model)
	if ev.Input != "" {
		b.WriteString(" " + ev.Input)
	}
	b.WriteString(" -> " + ev.Outcome)
	if ev.Outcome == OutcomeOK && ev.Op != OpCreateNew {
		fmt.Fprintf(&b, " %d %s", ev.Count, ev.Records)
	}
	if ev.Error != "" {
		fmt.Fprintf(&b, " (%s)", ev.Error)
	}
	return b.String()
}

// RunWithGolden executes a scenario and compares the rendered trace
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, factory BackendFactory) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, factory)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the result's trace against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, RenderTrace(scenarioName, result.Trace))
}
