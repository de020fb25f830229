package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lakeidx/internal/catalog"
	"github.com/roach88/lakeidx/internal/engine"
	"github.com/roach88/lakeidx/internal/keys"
)

// Scenario defines an index test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the inline catalog source. An empty schema is allowed and
	// makes every put a schema-not-found.
	Schema catalog.Source `yaml:"schema"`

	// Config selects engine options. Zero values take the engine defaults.
	Config ScenarioConfig `yaml:"config,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ScenarioConfig mirrors the engine options of config.Config.
type ScenarioConfig struct {
	TxMode        engine.TxMode           `yaml:"tx_mode,omitempty"`
	KeyEncoding   keys.Encoding           `yaml:"key_encoding,omitempty"`
	UnknownFields keys.UnknownFieldPolicy `yaml:"unknown_fields,omitempty"`

	// MaxSubDBs overrides the capacity derived from the schema.
	MaxSubDBs int `yaml:"max_subdbs,omitempty"`
}

// Step is either a put or a get, with an optional expectation.
type Step struct {
	Put    *PutStep `yaml:"put,omitempty"`
	Get    *GetStep `yaml:"get,omitempty"`
	Expect *Expect  `yaml:"expect,omitempty"`
}

// PutStep writes one record.
type PutStep struct {
	Noun string `yaml:"noun"`

	// Fields are the record's values. A record without an "id" field is
	// given one from the scenario's id sequence.
	Fields map[string]any `yaml:"fields"`

	// Declare lists fields the record's type has but this record leaves empty.
	Declare []string `yaml:"declare,omitempty"`
}

// GetStep looks up one key. Values, when given, are composed with the
// index's options; otherwise Key is used as the raw key.
type GetStep struct {
	Noun   string   `yaml:"noun"`
	Index  string   `yaml:"index"`
	Key    string   `yaml:"key,omitempty"`
	Values []string `yaml:"values,omitempty"`
}

// Expect specifies the outcome of a step.
type Expect struct {
	// ID is the id Put or Get must return.
	ID string `yaml:"id,omitempty"`

	// Error is the expected error class, or empty for success.
	// One of: not_found, unknown_index, store_error.
	Error string `yaml:"error,omitempty"`
}

// Error classes used in Expect.Error.
const (
	ErrClassNotFound     = "not_found"
	ErrClassUnknownIndex = "unknown_index"
	ErrClassStore        = "store_error"
	ErrClassOther        = "error"
)

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event matches Kind and the non-empty fields below
	// - "trace_order": events of Kinds appear in order
	// - "trace_count": events of Kind (and Index, if set) appear Count times
	// - "final_state": the index Noun.Index holds exactly Entries
	Type string `yaml:"type"`

	Kind  string   `yaml:"kind,omitempty"`
	Kinds []string `yaml:"kinds,omitempty"`

	Noun     string `yaml:"noun,omitempty"`
	Index    string `yaml:"index,omitempty"`
	Key      string `yaml:"key,omitempty"`
	ID       string `yaml:"id,omitempty"`
	Existing string `yaml:"existing,omitempty"`
	Field    string `yaml:"field,omitempty"`

	Count int `yaml:"count,omitempty"`

	Entries map[string]string `yaml:"entries,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	opts := engine.Options{
		TxMode:        s.Config.TxMode,
		Encoding:      s.Config.KeyEncoding,
		UnknownFields: s.Config.UnknownFields,
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if s.Config.MaxSubDBs < 0 {
		return fmt.Errorf("config: max_subdbs must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s *Step) error {
	switch {
	case s.Put != nil && s.Get != nil:
		return fmt.Errorf("steps[%d]: put and get are mutually exclusive", index)
	case s.Put != nil:
		if s.Put.Noun == "" {
			return fmt.Errorf("steps[%d].put: noun is required", index)
		}
	case s.Get != nil:
		if s.Get.Noun == "" || s.Get.Index == "" {
			return fmt.Errorf("steps[%d].get: noun and index are required", index)
		}
	default:
		return fmt.Errorf("steps[%d]: one of put or get is required", index)
	}

	if s.Expect != nil {
		switch s.Expect.Error {
		case "", ErrClassNotFound, ErrClassUnknownIndex, ErrClassStore, ErrClassOther:
		default:
			return fmt.Errorf("steps[%d].expect: unknown error class %q", index, s.Expect.Error)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Noun == "" || a.Index == "" {
			return fmt.Errorf("assertions[%d]: noun and index are required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
