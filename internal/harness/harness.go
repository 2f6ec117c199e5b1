package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/gitm/javango/internal/books"
	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/model"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
	"github.com/gitm/javango/internal/schema"
	"github.com/gitm/javango/internal/testutil"
)

// Harness holds the models of one scenario run. Every model owns a data
// source of its own, wrapped to count calls.
type Harness struct {
	models   map[string]*model.Model
	counters map[string]*testutil.CountingDataSource
	inner    map[string]datasource.DataSource
	log      logrus.FieldLogger
}

// outcomeError pairs a step's outcome with the error that produced it.
type outcomeError struct {
	outcome string
	err     error
}

// Run executes scenario against a fresh backend from factory.
//
// Execution flow:
//  1. Load the model declarations and open one data source per model
//  2. Create the setup records, then reset the call counters
//  3. Execute the flow steps, checking each expect clause
//  4. Evaluate the assertions
func Run(ctx context.Context, scenario *Scenario, factory BackendFactory) (*Result, error) {
	specs, err := loadSpecs(scenario.Models)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	backend, err := factory.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", factory.Name, err)
	}
	defer backend.Close()

	h := &Harness{
		models:   make(map[string]*model.Model, len(specs)),
		counters: make(map[string]*testutil.CountingDataSource, len(specs)),
		inner:    make(map[string]datasource.DataSource, len(specs)),
		log:      discardLogger(),
	}
	for _, spec := range specs {
		if err := h.addModel(backend, spec); err != nil {
			return nil, err
		}
	}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, msg := range h.evaluateAssertions(ctx, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadSpecs(path string) ([]schema.Spec, error) {
	if path == "" {
		return []schema.Spec{{Definition: books.Definition, Unique: []string{"isbn"}}}, nil
	}
	return schema.Load(path)
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func (h *Harness) addModel(backend Backend, spec schema.Spec) error {
	name := spec.Definition.Name
	ds, err := backend.Open(spec)
	if err != nil {
		return fmt.Errorf("failed to open data source for %s: %w", name, err)
	}
	counter := testutil.NewCountingDataSource(ds)

	opts := append(spec.Options(), model.WithLogger(h.log))
	m, err := model.New(spec.Definition, counter, opts...)
	if err != nil {
		return err
	}

	h.models[name] = m
	h.counters[name] = counter
	h.inner[name] = ds
	return nil
}

func (h *Harness) model(name string) (*model.Model, error) {
	m, ok := h.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", name)
	}
	return m, nil
}

func (h *Harness) executeSetup(ctx context.Context, steps []SetupStep) error {
	for i, step := range steps {
		m, err := h.model(step.Model)
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		r, err := record.Decode(step.Record)
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if err := m.CreateNew(ctx, r); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for _, c := range h.counters {
		c.Reset()
	}
	return nil
}

func (h *Harness) executeFlow(ctx context.Context, steps []FlowStep, result *Result) error {
	for i, step := range steps {
		m, err := h.model(step.Model)
		if err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}

		ev, set, oe := h.executeStep(ctx, m, step)
		ev = result.AddTrace(ev)

		for _, msg := range h.checkExpect(step, ev, set, oe) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}
	return nil
}

// executeStep runs one operation and describes what happened.
func (h *Harness) executeStep(ctx context.Context, m *model.Model, step FlowStep) (TraceEvent, *record.RecordSet, outcomeError) {
	ev := TraceEvent{Op: step.Op, Model: step.Model}

	var set *record.RecordSet
	var err error
	switch step.Op {
	case OpGetAll:
		set, err = m.GetAll(ctx)
	case OpGetWithFilter:
		filter := query.FilterFromStrings(step.Filter)
		ev.Input = filterText(filter)
		set, err = m.GetWithFilter(ctx, filter)
	case OpCreateNew:
		ev.Input = step.Record
		var r *record.Record
		r, err = record.Decode(step.Record)
		if err == nil {
			err = m.CreateNew(ctx, r)
		}
	}

	oe := classify(err)
	ev.Outcome = oe.outcome
	ev.Error = describe(oe)

	if err == nil && set != nil {
		ev.Count = set.Len()
		canonical, cerr := record.MarshalCanonicalSet(set)
		if cerr != nil {
			ev.Error = cerr.Error()
		} else {
			ev.Records = string(canonical)
		}
	}
	return ev, set, oe
}

// filterText renders the filter as a JSON object in term order.
func filterText(f *query.Filter) string {
	r := record.New()
	for _, t := range f.Terms() {
		r.Set(t.Field, t.Value)
	}
	return r.Encode()
}

func classify(err error) outcomeError {
	var fieldErr *model.InvalidFieldError
	switch {
	case err == nil:
		return outcomeError{outcome: OutcomeOK}
	case errors.As(err, &fieldErr):
		return outcomeError{outcome: OutcomeInvalidField, err: err}
	case record.IsParseError(err):
		return outcomeError{outcome: OutcomeParseError, err: err}
	case datasource.IsCreateError(err):
		return outcomeError{outcome: OutcomeCreateError, err: err}
	case datasource.IsRetrievalError(err):
		return outcomeError{outcome: OutcomeRetrievalError, err: err}
	default:
		return outcomeError{outcome: OutcomeError, err: err}
	}
}

// describe returns the trace text for an error. Parse errors carry
// decoder offsets that vary with the input, so only the outcome is kept.
func describe(oe outcomeError) string {
	if oe.err == nil || oe.outcome == OutcomeParseError {
		return ""
	}
	var createErr *datasource.CreateError
	if errors.As(oe.err, &createErr) {
		return createErr.Diagnostic()
	}
	return oe.err.Error()
}

func (h *Harness) checkExpect(step FlowStep, ev TraceEvent, set *record.RecordSet, oe outcomeError) []string {
	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}

	want := expect.Outcome
	if want == "" {
		want = OutcomeOK
	}
	if ev.Outcome != want {
		msg := fmt.Sprintf("expected outcome %s, got %s", want, ev.Outcome)
		if oe.err != nil {
			msg += ": " + oe.err.Error()
		}
		return []string{msg}
	}

	var errs []string
	if expect.Count != nil && ev.Count != *expect.Count {
		errs = append(errs, fmt.Sprintf("expected %d record(s), got %d", *expect.Count, ev.Count))
	}
	if len(expect.Records) > 0 {
		errs = append(errs, matchRecords(set, expect.Records)...)
	}
	if len(expect.Fields) > 0 {
		var fieldErr *model.InvalidFieldError
		if errors.As(oe.err, &fieldErr) && !slices.Equal(fieldErr.Fields, expect.Fields) {
			errs = append(errs, fmt.Sprintf("expected invalid fields %v, got %v", expect.Fields, fieldErr.Fields))
		}
	}
	if expect.Message != "" && ev.Error != expect.Message {
		errs = append(errs, fmt.Sprintf("expected message %q, got %q", expect.Message, ev.Error))
	}
	if expect.Received != "" {
		errs = append(errs, h.checkReceived(step.Model, expect.Received)...)
	}
	return errs
}

// checkReceived compares the last record the model's data source got.
func (h *Harness) checkReceived(name, want string) []string {
	got := h.counters[name].LastCreated()
	if got == nil {
		return []string{"data source received no record"}
	}
	var errs []string
	if got.CollectionName() != name {
		errs = append(errs, fmt.Sprintf("expected collection %q, got %q", name, got.CollectionName()))
	}
	if got.Encode() != want {
		errs = append(errs, fmt.Sprintf("expected received record %s, got %s", want, got.Encode()))
	}
	return errs
}

func matchRecords(set *record.RecordSet, want []map[string]string) []string {
	var errs []string
	if set == nil {
		return []string{"no records returned"}
	}
	for i, fields := range want {
		if i >= set.Len() {
			errs = append(errs, fmt.Sprintf("records[%d]: missing", i))
			continue
		}
		if msg := matchFields(set.At(i), fields); msg != "" {
			errs = append(errs, fmt.Sprintf("records[%d]: %s", i, msg))
		}
	}
	return errs
}

// matchFields is a subset match on text values. It returns "" on success.
func matchFields(r *record.Record, fields map[string]string) string {
	for _, k := range sortedKeys(fields) {
		v, ok := r.Get(k)
		if !ok {
			return fmt.Sprintf("field %s missing", k)
		}
		if got := record.Text(v); got != fields[k] {
			return fmt.Sprintf("field %s: expected %q, got %q", k, fields[k], got)
		}
	}
	return ""
}
