// Package storex is a small state container: one State value, a fixed set of
// named actions that may transform it, and subscribers notified after every
// commit.
//
// # Example Usage
//
//	store := storex.CreateStore(storex.Creators{
//		"set": func(args ...any) (storex.Result, error) {
//			return storex.Patch{"count": args[0]}, nil
//		},
//		"increment": func(args ...any) (storex.Result, error) {
//			return storex.Transform(func(s storex.State, _ *storex.Actions) storex.Patch {
//				return storex.Patch{"count": s.Int("count") + 1}
//			}), nil
//		},
//	}, storex.State{"count": 0})
//
//	store.Subscribe(func(s storex.State, action string) {
//		fmt.Println(action, s["count"])
//	})
//	store.Dispatch("set", 5)
//	store.Dispatch("increment") // prints "increment 6"
//
// # Result Shapes
//
// An action creator returns exactly one of:
//   - Patch: merged immediately, then subscribers are notified
//   - Transform: called with the latest state and the actions; its Patch is merged
//   - Effect: called for side effects only; nothing is committed
//
// A nil Patch (including one returned by a Transform) commits nothing.
//
// # Deferred Work
//
// Effects that need to act later schedule a task on a host scheduler, such as
// the loop package, and that task dispatches again through Actions.Dispatch.
// The later dispatch is an ordinary, independent cycle.
package storex
