package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines a model scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Models is a CUE file or directory of model declarations, relative
	// to the scenario file. Empty means the built-in Books model.
	Models string `yaml:"models,omitempty"`

	// Backends restricts the scenario to the named backends, for
	// expectations that depend on backend-specific messages. Empty means
	// every backend.
	Backends []string `yaml:"backends,omitempty"`

	// Setup creates records before the flow. Setup steps must succeed.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Flow lists the operations under test.
	Flow []FlowStep `yaml:"flow"`

	// Assertions are checked after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SetupStep creates one record.
type SetupStep struct {
	Model  string `yaml:"model"`
	Record string `yaml:"record"`
}

// FlowStep is one model operation.
type FlowStep struct {
	// Op is get_all, get_with_filter or create_new.
	Op    string `yaml:"op"`
	Model string `yaml:"model"`

	// Filter is the get_with_filter filter. Values are compared as text.
	Filter map[string]string `yaml:"filter,omitempty"`

	// Record is the create_new record as JSON object text.
	Record string `yaml:"record,omitempty"`

	// Expect checks the outcome. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected result of a flow step.
type ExpectClause struct {
	// Outcome is one of the Outcome constants. Defaults to ok.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of retrieved records.
	Count *int `yaml:"count,omitempty"`

	// Records are matched positionally against the retrieved records.
	// Each entry is a subset match on the record's text values.
	Records []map[string]string `yaml:"records,omitempty"`

	// Fields are the undeclared fields reported by invalid_field.
	Fields []string `yaml:"fields,omitempty"`

	// Message is the exact backend message reported by create_error.
	Message string `yaml:"message,omitempty"`

	// Received is the JSON text of the record the data source received
	// for create_new, compared byte for byte.
	Received string `yaml:"received,omitempty"`
}

// Assertion validates the run after the flow.
type Assertion struct {
	// Type is call_count, trace_order or final_state.
	Type string `yaml:"type"`

	// Model names the model (call_count, final_state).
	Model string `yaml:"model,omitempty"`

	// Op is the data source operation counted by call_count.
	Op string `yaml:"op,omitempty"`

	// Count is the expected number of calls (call_count).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected relative order of flow ops (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Where selects records (final_state).
	Where map[string]string `yaml:"where,omitempty"`

	// Expect is a subset match on the single selected record (final_state).
	Expect map[string]string `yaml:"expect,omitempty"`

	// Absent asserts that no record matches Where (final_state).
	Absent bool `yaml:"absent,omitempty"`
}

// RunsOn reports whether the scenario applies to the named backend.
func (s *Scenario) RunsOn(backend string) bool {
	return len(s.Backends) == 0 || slices.Contains(s.Backends, backend)
}

// Flow operations.
const (
	OpGetAll        = "get_all"
	OpGetWithFilter = "get_with_filter"
	OpCreateNew     = "create_new"
)

// Assertion type constants.
const (
	AssertCallCount  = "call_count"
	AssertTraceOrder = "trace_order"
	AssertFinalState = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected. A relative Models path is resolved against the file's
// directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Models != "" && !filepath.IsAbs(scenario.Models) {
		scenario.Models = filepath.Join(filepath.Dir(path), scenario.Models)
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must contain at least one step")
	}

	for i, step := range s.Setup {
		if step.Model == "" {
			return fmt.Errorf("setup[%d]: model is required", i)
		}
		if step.Record == "" {
			return fmt.Errorf("setup[%d]: record is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateFlowStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateFlowStep(index int, step FlowStep) error {
	if step.Model == "" {
		return fmt.Errorf("flow[%d]: model is required", index)
	}

	switch step.Op {
	case OpGetAll:
	case OpGetWithFilter:
		if len(step.Filter) == 0 {
			return fmt.Errorf("flow[%d]: filter is required for get_with_filter", index)
		}
	case OpCreateNew:
		// An empty record is allowed: it exercises the parse failure.
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	if step.Expect == nil {
		return nil
	}
	switch step.Expect.Outcome {
	case "", OutcomeOK, OutcomeInvalidField, OutcomeParseError,
		OutcomeCreateError, OutcomeRetrievalError, OutcomeError:
	default:
		return fmt.Errorf("flow[%d]: unknown outcome %q", index, step.Expect.Outcome)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertCallCount:
		if a.Model == "" || a.Op == "" {
			return fmt.Errorf("assertions[%d]: model and op are required for call_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertFinalState:
		if a.Model == "" {
			return fmt.Errorf("assertions[%d]: model is required for final_state", index)
		}
		if !a.Absent && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
