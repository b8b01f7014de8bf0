package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/comalice/storex"
	"github.com/comalice/storex/loop"
)

// ErrNotNumeric is returned by add actions given a non-numeric argument.
var ErrNotNumeric = errors.New("not numeric")

// RunConfig tunes how a scenario is executed.
type RunConfig struct {
	StoreOptions []storex.Option
	Loop         loop.Config
	Logger       *slog.Logger
}

// TraceEntry is one committed state observed by the runner's subscriber.
type TraceEntry struct {
	Seq    int          `json:"seq"`
	Action string       `json:"action"`
	State  storex.State `json:"state"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Name       string       `json:"name"`
	Trace      []TraceEntry `json:"trace"`
	Final      storex.State `json:"final"`
	Mismatches []string     `json:"mismatches,omitempty"`
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Mismatches) == 0
}

// Run builds the scenario's store, executes its steps, drains the host loop,
// and checks expectations. Dispatch failures abort the run.
func Run(ctx context.Context, sc *Scenario, cfg RunConfig) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	host := loop.New(cfg.Loop, loop.WithLogger(logger))
	defer host.Stop()

	opts := append([]storex.Option{storex.WithLogger(logger)}, cfg.StoreOptions...)
	store, err := Build(sc, host, logger, opts...)
	if err != nil {
		return nil, err
	}

	res := &Result{Name: sc.Name}
	var mu sync.Mutex
	store.Subscribe(func(state storex.State, action string) {
		mu.Lock()
		defer mu.Unlock()
		res.Trace = append(res.Trace, TraceEntry{
			Seq:    len(res.Trace) + 1,
			Action: action,
			State:  state,
		})
	})

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if step.Drain {
			host.Drain(ctx)
			continue
		}
		if err := store.Dispatch(step.Dispatch, step.Args...); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Dispatch, err)
		}
	}
	host.Drain(ctx)

	res.Final = store.GetState()
	res.Mismatches = compare(sc.Expect, res.Final)
	return res, nil
}

// Build creates the store described by sc. Effects post to host.
func Build(sc *Scenario, host *loop.Loop, logger *slog.Logger, opts ...storex.Option) (*storex.Store, error) {
	b := storex.NewBuilder(storex.State(sc.Initial))
	for _, name := range sortedNames(sc.Actions) {
		spec := sc.Actions[name]
		ab := b.Action(name)
		switch spec.Kind {
		case KindSet:
			ab.Set(spec.Field)
		case KindPatch:
			ab.Patch(storex.Patch(spec.Patch))
		case KindAdd:
			ab.Creator(addCreator(name, spec.Field, spec.By, logger))
		case KindEffect:
			then, args := spec.Then, spec.Args
			ab.Effect(func(_ storex.State, actions *storex.Actions, _ ...any) {
				if err := host.Post(loop.Dispatch(actions, then, args...)); err != nil {
					logger.Error("effect could not schedule", "action", name, "then", then, "error", err)
				}
			})
		default:
			return nil, fmt.Errorf("action %q: unknown kind %q", name, spec.Kind)
		}
	}
	return b.Build(opts...)
}

// addCreator rejects a non-numeric argument before anything is computed. A
// field that holds a non-numeric value when the transform runs is logged and
// left unchanged.
func addCreator(action, field string, by any, logger *slog.Logger) storex.ActionCreator {
	return func(args ...any) (storex.Result, error) {
		if len(args) > 0 {
			if _, _, ok := toNumber(args[0]); !ok {
				return nil, fmt.Errorf("%w: argument %v (%T)", ErrNotNumeric, args[0], args[0])
			}
		}
		return storex.Transform(func(state storex.State, _ *storex.Actions) storex.Patch {
			patch, err := addTo(field, by)(state, args...)
			if err != nil {
				logger.Error("add skipped", "action", action, "field", field, "error", err)
				return nil
			}
			return patch
		}), nil
	}
}

func addTo(field string, by any) func(storex.State, ...any) (storex.Patch, error) {
	return func(state storex.State, args ...any) (storex.Patch, error) {
		sum := state[field]
		if sum == nil {
			sum = 0
		}
		operands := make([]any, 0, 2)
		if by != nil {
			operands = append(operands, by)
		} else if len(args) == 0 {
			operands = append(operands, 1)
		}
		if len(args) > 0 {
			operands = append(operands, args[0])
		}
		for _, n := range operands {
			next, err := add(sum, n)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", field, err)
			}
			sum = next
		}
		return storex.Patch{field: sum}, nil
	}
}

// add sums two numbers, staying integral when both are.
func add(a, b any) (any, error) {
	af, aInt, aok := toNumber(a)
	if !aok {
		return nil, fmt.Errorf("%w: %v (%T)", ErrNotNumeric, a, a)
	}
	bf, bInt, bok := toNumber(b)
	if !bok {
		return nil, fmt.Errorf("%w: %v (%T)", ErrNotNumeric, b, b)
	}
	if aInt && bInt {
		return int(af) + int(bf), nil
	}
	return af + bf, nil
}

func toNumber(v any) (f float64, integral bool, ok bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true, true
	case int64:
		return float64(n), true, true
	case int32:
		return float64(n), true, true
	case uint64:
		return float64(n), true, true
	case float64:
		return n, false, true
	case float32:
		return float64(n), false, true
	}
	return 0, false, false
}

// compare returns one message per expected field that does not match.
func compare(expect map[string]any, final storex.State) []string {
	var out []string
	for _, key := range storex.State(expect).Keys() {
		want := expect[key]
		got, ok := final[key]
		if !ok {
			out = append(out, fmt.Sprintf("%s: want %v, missing", key, want))
			continue
		}
		if !equal(want, got) {
			out = append(out, fmt.Sprintf("%s: want %v, got %v", key, want, got))
		}
	}
	return out
}

func equal(want, got any) bool {
	wf, _, wok := toNumber(want)
	gf, _, gok := toNumber(got)
	if wok && gok {
		return wf == gf
	}
	return reflect.DeepEqual(want, got)
}
