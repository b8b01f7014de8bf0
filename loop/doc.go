// Package loop provides a tick-based host scheduler for deferred store work.
//
// A storex Effect returns without committing anything. When the effect needs
// to act later, it posts a Task to a Loop, and the task re-enters the store
// through Actions.Dispatch as an ordinary, independent dispatch.
//
// # Example Usage
//
//	l := loop.New(loop.Config{TickRate: 10 * time.Millisecond})
//	l.Start(ctx)
//	defer l.Stop()
//
//	store := storex.NewBuilder(storex.State{"count": 0}).
//		Action("increment").Update(func(s storex.State, _ ...any) storex.Patch {
//			return storex.Patch{"count": s.Int("count") + 1}
//		}).
//		Action("incrementLater").Effect(func(_ storex.State, a *storex.Actions, _ ...any) {
//			l.After(50*time.Millisecond, loop.Dispatch(a, "increment"))
//		})
//
// # Execution Model
//
//   - Tasks are batched and run at fixed tick boundaries
//   - Batches never overlap, so all deferred dispatches share one logical thread
//   - RunPending and Drain run batches on the caller's goroutine (tests, scripts)
//
// # Task Ordering Guarantees
//
// Tasks are ordered deterministically using:
//  1. Priority (higher priority runs first)
//  2. Sequence number (FIFO for same priority)
//  3. Stable sorting (preserves relative order)
//
// # Failure Model
//
// A task error or panic is logged and the loop keeps running. The store never
// observes deferred failures; a task that cares must handle them itself.
package loop
