package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Op: OpCreateNew, Model: "books_books", Input: `{"isbn":"1"}`, Outcome: OutcomeOK},
		{Seq: 2, Op: OpGetAll, Model: "books_books", Outcome: OutcomeOK, Count: 1, Records: `[{"isbn":"1"}]`},
		{Seq: 3, Op: OpGetWithFilter, Model: "books_books", Input: `{"x":"1"}`, Outcome: OutcomeInvalidField, Error: "model books_books does not have field(s) x"},
	}
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	testCases := []struct {
		name    string
		ops     []string
		wantErr bool
	}{
		{"in order", []string{OpCreateNew, OpGetAll}, false},
		{"gaps allowed", []string{OpCreateNew, OpGetWithFilter}, false},
		{"single", []string{OpGetAll}, false},
		{"reversed", []string{OpGetAll, OpCreateNew}, true},
		{"missing", []string{OpCreateNew, "delete"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Ops: tc.ops})
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			var ae *AssertionError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, AssertTraceOrder, ae.Type)
		})
	}
}

func TestAssertionErrorIncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceOrder,
		Expected: "ops in order: [get_all create_new]",
		Actual:   "create_new not found after [get_all]",
		Trace:    sampleTrace(),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_order")
	assert.Contains(t, msg, "  Expected: ops in order: [get_all create_new]")
	assert.Contains(t, msg, "  Actual: create_new not found after [get_all]")
	assert.Contains(t, msg, `[2] get_all books_books -> ok 1 [{"isbn":"1"}]`)
}

func TestRenderTrace(t *testing.T) {
	got := string(RenderTrace("sample", sampleTrace()))
	want := `scenario: sample
[1] create_new books_books {"isbn":"1"} -> ok
[2] get_all books_books -> ok 1 [{"isbn":"1"}]
[3] get_with_filter books_books {"x":"1"} -> invalid_field (model books_books does not have field(s) x)
`
	assert.Equal(t, want, got)
}

func TestFormatWhere(t *testing.T) {
	assert.Equal(t, "(all)", formatWhere(nil))
	assert.Equal(t, `a="1", b="2"`, formatWhere(map[string]string{"b": "2", "a": "1"}))
}
