package storex

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingArgument is returned by Set actions dispatched without a value.
var ErrMissingArgument = errors.New("storex: missing argument")

// Builder provides a fluent API for declaring a store's actions by the shape
// of their results instead of writing raw ActionCreators.
type Builder struct {
	initial State
	order   []string
	actions map[string]*ActionBuilder
	errs    []error
}

// ActionBuilder configures a single named action.
type ActionBuilder struct {
	b       *Builder
	name    string
	creator ActionCreator
}

// NewBuilder creates a builder whose store will start from initial.
func NewBuilder(initial State) *Builder {
	return &Builder{
		initial: initial.Clone(),
		actions: make(map[string]*ActionBuilder),
	}
}

// Action declares an action by name. Declaring the same name twice is
// reported by Build.
func (b *Builder) Action(name string) *ActionBuilder {
	ab := &ActionBuilder{b: b, name: name}
	if strings.TrimSpace(name) == "" {
		b.errs = append(b.errs, errors.New("action name must not be empty"))
		return ab
	}
	if _, exists := b.actions[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate action %q", name))
		return ab
	}
	b.actions[name] = ab
	b.order = append(b.order, name)
	return ab
}

// Set makes the action write its first argument to field.
func (ab *ActionBuilder) Set(field string) *Builder {
	return ab.Creator(func(args ...any) (Result, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: value for %q", ErrMissingArgument, field)
		}
		return Patch{field: args[0]}, nil
	})
}

// Patch makes the action merge a constant fragment.
func (ab *ActionBuilder) Patch(p Patch) *Builder {
	fixed := Patch(State(p).Clone())
	return ab.Creator(func(args ...any) (Result, error) {
		return Patch(State(fixed).Clone()), nil
	})
}

// Update makes the action compute its fragment from the latest state at
// commit time.
func (ab *ActionBuilder) Update(fn func(state State, args ...any) Patch) *Builder {
	return ab.Creator(func(args ...any) (Result, error) {
		return Transform(func(state State, _ *Actions) Patch {
			return fn(state, args...)
		}), nil
	})
}

// Effect makes the action run fn for its side effects without committing.
func (ab *ActionBuilder) Effect(fn func(state State, actions *Actions, args ...any)) *Builder {
	return ab.Creator(func(args ...any) (Result, error) {
		return Effect(func(state State, actions *Actions) {
			fn(state, actions, args...)
		}), nil
	})
}

// Creator installs a raw ActionCreator.
func (ab *ActionBuilder) Creator(fn ActionCreator) *Builder {
	if fn == nil {
		ab.b.errs = append(ab.b.errs, fmt.Errorf("action %q has a nil creator", ab.name))
		return ab.b
	}
	ab.creator = fn
	return ab.b
}

// Build validates the declarations and creates the store.
// Returns an error if the configuration is invalid.
func (b *Builder) Build(opts ...Option) (*Store, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	creators := make(Creators, len(b.order))
	for _, name := range b.order {
		creators[name] = b.actions[name].creator
	}
	return CreateStore(creators, b.initial, opts...), nil
}

func (b *Builder) validate() error {
	errs := append([]error(nil), b.errs...)
	for _, name := range b.order {
		if b.actions[name].creator == nil {
			errs = append(errs, fmt.Errorf("action %q has no result shape (call Set, Patch, Update, Effect or Creator)", name))
		}
	}
	return errors.Join(errs...)
}
