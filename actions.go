package storex

import (
	"fmt"
	"sort"
)

// BoundAction dispatches one action. The store supplies state and actions to
// the creator's result, so callers pass only their own arguments.
type BoundAction func(args ...any) error

// Actions is the fixed set of bound actions of a store. The same value is
// handed to transforms and effects so they can dispatch again.
type Actions struct {
	store *Store
	bound map[string]BoundAction
	names []string
}

func newActions(s *Store, creators Creators) *Actions {
	a := &Actions{
		store: s,
		bound: make(map[string]BoundAction, len(creators)),
		names: make([]string, 0, len(creators)),
	}
	for name, creator := range creators {
		if creator == nil {
			continue
		}
		a.bound[name] = bind(s, name, creator)
		a.names = append(a.names, name)
	}
	sort.Strings(a.names)
	return a
}

func bind(s *Store, name string, creator ActionCreator) BoundAction {
	return func(args ...any) error {
		return s.dispatch(name, creator, args)
	}
}

// Get returns the bound action registered under name.
func (a *Actions) Get(name string) (BoundAction, bool) {
	fn, ok := a.bound[name]
	return fn, ok
}

// Has reports whether name is a bound action.
func (a *Actions) Has(name string) bool {
	_, ok := a.bound[name]
	return ok
}

// Names returns the bound action names in sorted order.
func (a *Actions) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Dispatch invokes the named action. It is the single entry point used by
// direct callers, subscribers, transforms, effects and deferred tasks alike.
func (a *Actions) Dispatch(name string, args ...any) error {
	fn, ok := a.bound[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return fn(args...)
}
