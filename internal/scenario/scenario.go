// Package scenario describes stores and dispatch scripts in YAML and runs
// them against a real store and host loop.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Action kinds.
const (
	KindSet    = "set"
	KindPatch  = "patch"
	KindAdd    = "add"
	KindEffect = "effect"
)

// Scenario defines a store and the dispatches to run against it.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Initial is the store's starting state.
	Initial map[string]any `yaml:"initial"`

	// Actions declares the store's actions by name.
	Actions map[string]ActionSpec `yaml:"actions"`

	// Steps run in order. The loop is drained after the last step.
	Steps []Step `yaml:"steps"`

	// Expect lists fields the final state must hold. Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// ActionSpec declares one action.
//   - set: writes the first dispatch argument to Field
//   - patch: merges Patch
//   - add: adds By plus an optional numeric argument to Field, reading the
//     latest state; with neither, adds 1
//   - effect: posts a dispatch of Then (with Args) to the host loop; commits nothing
type ActionSpec struct {
	Kind  string         `yaml:"kind"`
	Field string         `yaml:"field,omitempty"`
	By    any            `yaml:"by,omitempty"`
	Patch map[string]any `yaml:"patch,omitempty"`
	Then  string         `yaml:"then,omitempty"`
	Args  []any          `yaml:"args,omitempty"`
}

// Step either dispatches an action or drains the host loop.
type Step struct {
	Dispatch string `yaml:"dispatch,omitempty"`
	Args     []any  `yaml:"args,omitempty"`
	Drain    bool   `yaml:"drain,omitempty"`
}

// Load reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks that required fields are present and references resolve.
func Validate(sc *Scenario) error {
	if sc.Name == "" {
		return errors.New("name is required")
	}
	if len(sc.Actions) == 0 {
		return errors.New("actions map is required and must be non-empty")
	}
	if len(sc.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}

	var errs []error
	for _, name := range sortedNames(sc.Actions) {
		if err := validateAction(sc, name, sc.Actions[name]); err != nil {
			errs = append(errs, fmt.Errorf("action %q: %w", name, err))
		}
	}
	for i, step := range sc.Steps {
		switch {
		case step.Drain && step.Dispatch != "":
			errs = append(errs, fmt.Errorf("step %d: dispatch and drain are exclusive", i+1))
		case step.Drain:
			if len(step.Args) > 0 {
				errs = append(errs, fmt.Errorf("step %d: drain takes no args", i+1))
			}
		case step.Dispatch == "":
			errs = append(errs, fmt.Errorf("step %d: dispatch or drain is required", i+1))
		default:
			if _, ok := sc.Actions[step.Dispatch]; !ok {
				errs = append(errs, fmt.Errorf("step %d: unknown action %q", i+1, step.Dispatch))
			}
		}
	}
	return errors.Join(errs...)
}

func validateAction(sc *Scenario, name string, spec ActionSpec) error {
	switch spec.Kind {
	case KindSet:
		if spec.Field == "" {
			return errors.New("set requires field")
		}
	case KindPatch:
		if spec.Patch == nil {
			return errors.New("patch requires patch")
		}
	case KindAdd:
		if spec.Field == "" {
			return errors.New("add requires field")
		}
		if spec.By != nil {
			if _, _, ok := toNumber(spec.By); !ok {
				return fmt.Errorf("add: by must be numeric, got %T", spec.By)
			}
		}
		if v, ok := sc.Initial[spec.Field]; ok && v != nil {
			if _, _, ok := toNumber(v); !ok {
				return fmt.Errorf("add: initial %s must be numeric, got %T", spec.Field, v)
			}
		}
	case KindEffect:
		if spec.Then == "" {
			return errors.New("effect requires then")
		}
		if _, ok := sc.Actions[spec.Then]; !ok {
			return fmt.Errorf("effect: unknown action %q", spec.Then)
		}
	case "":
		return errors.New("kind is required")
	default:
		return fmt.Errorf("unknown kind %q (want set, patch, add or effect)", spec.Kind)
	}
	return nil
}

func sortedNames(m map[string]ActionSpec) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
