// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/storex"
	"github.com/comalice/storex/internal/scenario"
)

// GenWideState creates a state with n integer fields f0..f(n-1).
func GenWideState(n int) storex.State {
	if n < 1 {
		n = 1
	}
	s := make(storex.State, n)
	for i := 0; i < n; i++ {
		s[fmt.Sprintf("f%d", i)] = i
	}
	return s
}

// GenCounterStore creates a store over a state of width fields with "set",
// "increment" and "noop" actions on field f0.
func GenCounterStore(width int, opts ...storex.Option) *storex.Store {
	return storex.CreateStore(storex.Creators{
		"set": func(args ...any) (storex.Result, error) {
			return storex.Patch{"f0": args[0]}, nil
		},
		"increment": func(args ...any) (storex.Result, error) {
			return storex.Transform(func(s storex.State, _ *storex.Actions) storex.Patch {
				return storex.Patch{"f0": s.Int("f0") + 1}
			}), nil
		},
		"noop": func(args ...any) (storex.Result, error) {
			return storex.Effect(func(storex.State, *storex.Actions) {}), nil
		},
	}, GenWideState(width), opts...)
}

// GenScenarioYAML generates a scenario document with the given number of
// increment steps.
func GenScenarioYAML(steps int) []byte {
	sc := scenario.Scenario{
		Name:    fmt.Sprintf("bench_%d", steps),
		Initial: map[string]any{"count": 0},
		Actions: map[string]scenario.ActionSpec{
			"increment": {Kind: scenario.KindAdd, Field: "count"},
		},
		Expect: map[string]any{"count": steps},
	}
	for i := 0; i < steps; i++ {
		sc.Steps = append(sc.Steps, scenario.Step{Dispatch: "increment"})
	}
	data, err := yaml.Marshal(sc)
	if err != nil {
		panic(err)
	}
	return data
}
