package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario scripts operations against a fresh environment and asserts on
// the resulting trace, hierarchy and journal.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is an optional CUE fixture directory applied before the steps.
	// Relative paths are resolved against the scenario file's directory.
	Fixture string `yaml:"fixture,omitempty"`

	// EnvID fixes the environment ID. Defaults to "test-env-1".
	EnvID string `yaml:"env_id,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scripted operation.
type Step struct {
	// Op selects the operation; see the Op* constants.
	Op string `yaml:"op"`

	// Class is the class operated on (define_class, make_instance, iterate).
	Class string `yaml:"class,omitempty"`

	// Superclasses lists direct superclasses for define_class.
	Superclasses []string `yaml:"superclasses,omitempty"`

	// Instance names the instance for make_instance and delete_instance.
	Instance string `yaml:"instance,omitempty"`

	// Name names a teardown or ready check.
	Name string `yaml:"name,omitempty"`

	// EnvAware selects the environment-aware calling convention for
	// register_teardown.
	EnvAware bool `yaml:"env_aware,omitempty"`

	// Nested makes a registered teardown call clear on its own environment.
	Nested bool `yaml:"nested,omitempty"`

	// Panic makes a registered teardown panic.
	Panic bool `yaml:"panic,omitempty"`

	// Busy is the value set by set_busy.
	Busy bool `yaml:"busy,omitempty"`

	// DeleteDuring lists instances deleted after iterate yields its first
	// instance.
	DeleteDuring []string `yaml:"delete_during,omitempty"`

	// Expect is the expected outcome: "ok" or an error kind
	// (clear_busy, reentrant_clear, invalid_class, invalid_instance, duplicate).
	// Empty means "ok".
	Expect string `yaml:"expect,omitempty"`

	// Instances is the expected iterate output, if set.
	Instances []string `yaml:"instances,omitempty"`
}

// Step operations.
const (
	OpDefineClass      = "define_class"
	OpMakeInstance     = "make_instance"
	OpDeleteInstance   = "delete_instance"
	OpReclaim          = "reclaim"
	OpIterate          = "iterate"
	OpRegisterTeardown = "register_teardown"
	OpSetBusy          = "set_busy"
	OpClear            = "clear"
)

// Outcome kinds used in Step.Expect and TraceEvent.Outcome.
const (
	OutcomeOK              = "ok"
	OutcomeClearBusy       = "clear_busy"
	OutcomeReentrantClear  = "reentrant_clear"
	OutcomeInvalidClass    = "invalid_class"
	OutcomeInvalidInstance = "invalid_instance"
	OutcomeDuplicate       = "duplicate"
	OutcomeError           = "error"
)

// Assertion validates the final trace and state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Label is an event label (trace_contains, trace_count).
	Label string `yaml:"label,omitempty"`

	// Labels is the expected label order (trace_order).
	Labels []string `yaml:"labels,omitempty"`

	// Count is the expected occurrence count (trace_count, journal_count).
	Count int `yaml:"count,omitempty"`

	// Class is iterated for an instances assertion.
	Class string `yaml:"class,omitempty"`

	// Instances is the exact expected iteration result (instances).
	Instances []string `yaml:"instances,omitempty"`

	// Outcome filters journal rows (journal_count).
	Outcome string `yaml:"outcome,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains   = "trace_contains"
	AssertTraceOrder      = "trace_order"
	AssertTraceCount      = "trace_count"
	AssertInstances       = "instances"
	AssertJournalCount    = "journal_count"
	AssertRoutersBalanced = "routers_balanced"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected. A relative fixture path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) {
		scenario.Fixture = filepath.Join(filepath.Dir(path), scenario.Fixture)
	}
	if scenario.Fixture != "" {
		if _, err := os.Stat(scenario.Fixture); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: fixture not found: %s", scenario.Fixture)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Unknown fields are rejected.
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
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	switch s.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpDefineClass, OpIterate:
		if s.Class == "" {
			return fmt.Errorf("steps[%d]: class is required for %s", index, s.Op)
		}
	case OpMakeInstance:
		if s.Class == "" || s.Instance == "" {
			return fmt.Errorf("steps[%d]: class and instance are required for %s", index, s.Op)
		}
	case OpDeleteInstance:
		if s.Instance == "" {
			return fmt.Errorf("steps[%d]: instance is required for %s", index, s.Op)
		}
	case OpRegisterTeardown:
		if s.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for %s", index, s.Op)
		}
	case OpReclaim, OpSetBusy, OpClear:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	switch s.Expect {
	case "", OutcomeOK, OutcomeClearBusy, OutcomeReentrantClear,
		OutcomeInvalidClass, OutcomeInvalidInstance, OutcomeDuplicate:
	default:
		return fmt.Errorf("steps[%d]: unknown expect %q", index, s.Expect)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Label == "" {
			return fmt.Errorf("assertions[%d]: label is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Labels) == 0 {
			return fmt.Errorf("assertions[%d]: labels list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Label == "" {
			return fmt.Errorf("assertions[%d]: label is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertInstances:
		if a.Class == "" {
			return fmt.Errorf("assertions[%d]: class is required for instances", index)
		}
	case AssertJournalCount:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for journal_count", index)
		}
	case AssertRoutersBalanced:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
