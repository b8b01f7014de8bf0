package storex_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/storex"
	"github.com/comalice/storex/loop"
	"github.com/comalice/storex/testutil"
)

// newCounterStore builds the counter store used across these tests. The
// returned loop is never started; tests run it with RunPending/Drain.
func newCounterStore(t *testing.T, opts ...storex.Option) (*storex.Store, *loop.Loop) {
	t.Helper()
	host := loop.New(loop.Config{})
	t.Cleanup(func() { host.Stop() })

	store := storex.CreateStore(storex.Creators{
		"set": func(args ...any) (storex.Result, error) {
			return storex.Patch{"count": args[0]}, nil
		},
		"increment": func(args ...any) (storex.Result, error) {
			return storex.Transform(func(s storex.State, _ *storex.Actions) storex.Patch {
				return storex.Patch{"count": s.Int("count") + 1}
			}), nil
		},
		"incrementAsync": func(args ...any) (storex.Result, error) {
			return storex.Effect(func(_ storex.State, a *storex.Actions) {
				require.NoError(t, host.Post(loop.Dispatch(a, "increment")))
			}), nil
		},
	}, storex.State{"count": 0}, opts...)
	return store, host
}

func TestInitializesState(t *testing.T) {
	store, _ := newCounterStore(t)
	assert.Equal(t, 0, store.GetState().Int("count"))
	assert.Equal(t, storex.State{"count": 0}, store.GetState())
}

func TestCreateStoreAcceptsEmptyCreators(t *testing.T) {
	store := storex.CreateStore(nil, nil)
	assert.Empty(t, store.GetState())
	assert.Empty(t, store.Actions().Names())

	err := store.Dispatch("anything")
	assert.ErrorIs(t, err, storex.ErrUnknownAction)
}

func TestCreateStoreCopiesInitialState(t *testing.T) {
	initial := storex.State{"count": 1}
	store := storex.CreateStore(nil, initial)

	initial["count"] = 99
	assert.Equal(t, 1, store.GetState().Int("count"))
}

func TestUpdatesState(t *testing.T) {
	store, _ := newCounterStore(t)
	require.NoError(t, store.Dispatch("increment"))
	assert.Equal(t, 1, store.GetState().Int("count"))
}

func TestAcceptsDataInActionFunctions(t *testing.T) {
	store, _ := newCounterStore(t)
	require.NoError(t, store.Dispatch("set", 5))
	assert.Equal(t, 5, store.GetState().Int("count"))
}

func TestBoundActionFromActions(t *testing.T) {
	store, _ := newCounterStore(t)
	set, ok := store.Actions().Get("set")
	require.True(t, ok)

	require.NoError(t, set(3))
	assert.Equal(t, 3, store.GetState().Int("count"))
	assert.Equal(t, []string{"increment", "incrementAsync", "set"}, store.Actions().Names())
	assert.True(t, store.Actions().Has("increment"))
	assert.False(t, store.Actions().Has("decrement"))
}

func TestUpdatesStateAndNotifiesSubscribers(t *testing.T) {
	store, _ := newCounterStore(t)
	rec := testutil.NewRecorder()
	store.Subscribe(rec.Notify)

	require.NoError(t, store.Dispatch("increment"))

	require.Equal(t, 1, rec.Count())
	last, _ := rec.Last()
	assert.Equal(t, storex.State{"count": 1}, last.State)
	assert.Equal(t, "increment", last.Action)
}

func TestTransformReadsLatestState(t *testing.T) {
	store, _ := newCounterStore(t)
	rec := testutil.NewRecorder()
	store.Subscribe(rec.Notify)

	require.NoError(t, store.Dispatch("increment"))
	require.NoError(t, store.Dispatch("increment"))

	assert.Equal(t, 2, rec.Count())
	last, _ := rec.Last()
	assert.Equal(t, storex.State{"count": 2}, last.State)
	assert.Equal(t, "increment", last.Action)
}

func TestNotifiesOncePerCommitInDispatchOrder(t *testing.T) {
	store, _ := newCounterStore(t)
	rec := testutil.NewRecorder()
	store.Subscribe(rec.Notify)

	require.NoError(t, store.Dispatch("set", 10))
	require.NoError(t, store.Dispatch("increment"))
	require.NoError(t, store.Dispatch("set", 1))
	require.NoError(t, store.Dispatch("increment"))

	calls := rec.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, []string{"set", "increment", "set", "increment"}, rec.Actions())
	assert.Equal(t, []int{10, 11, 1, 2}, []int{
		calls[0].State.Int("count"),
		calls[1].State.Int("count"),
		calls[2].State.Int("count"),
		calls[3].State.Int("count"),
	})
}

func TestPassesTheTriggerActionToSubscribers(t *testing.T) {
	store, _ := newCounterStore(t)
	rec := testutil.NewRecorder()
	store.Subscribe(func(s storex.State, trigger string) {
		if trigger == "increment" {
			rec.Notify(s, trigger)
		}
	})

	require.NoError(t, store.Dispatch("set", 5))
	require.NoError(t, store.Dispatch("increment"))

	require.Equal(t, 1, rec.Count())
	last, _ := rec.Last()
	assert.Equal(t, storex.State{"count": 6}, last.State)
	assert.Equal(t, "increment", last.Action)
}

func TestEffectDoesNotExtendState(t *testing.T) {
	store, host := newCounterStore(t)
	rec := testutil.NewRecorder()

	require.NoError(t, store.Dispatch("incrementAsync"))
	store.Subscribe(rec.Notify)

	// Nothing committed when the bound action returns.
	assert.Equal(t, 0, rec.Count())
	assert.Equal(t, 0, store.GetState().Int("count"))
	assert.Equal(t, 1, host.Pending())

	// The deferred dispatch is an independent cycle with one notification.
	assert.Equal(t, 1, host.Drain(context.Background()))
	require.Equal(t, 1, rec.Count())
	last, _ := rec.Last()
	assert.Equal(t, storex.State{"count": 1}, last.State)
	assert.Equal(t, "increment", last.Action)
}

func TestEffectReceivesStoreActions(t *testing.T) {
	var got *storex.Actions
	store := storex.CreateStore(storex.Creators{
		"probe": func(args ...any) (storex.Result, error) {
			return storex.Effect(func(_ storex.State, a *storex.Actions) { got = a }), nil
		},
	}, nil)

	require.NoError(t, store.Dispatch("probe"))
	assert.Same(t, store.Actions(), got)
}

func TestMergeIsShallowAndPreservesOtherFields(t *testing.T) {
	store := storex.CreateStore(storex.Creators{
		"rename": func(args ...any) (storex.Result, error) {
			return storex.Patch{"name": args[0]}, nil
		},
	}, storex.State{"name": "a", "count": 3, "tags": []string{"x"}})

	require.NoError(t, store.Dispatch("rename", "b"))
	assert.Equal(t, storex.State{"name": "b", "count": 3, "tags": []string{"x"}}, store.GetState())
}

func TestGetStateReturnsSnapshot(t *testing.T) {
	store, _ := newCounterStore(t)
	snap := store.GetState()
	snap["count"] = 42
	snap["extra"] = true

	assert.Equal(t, storex.State{"count": 0}, store.GetState())
}

func TestCommitReplacesStateWithoutTouchingOldSnapshots(t *testing.T) {
	store, _ := newCounterStore(t)
	before := store.GetState()

	require.NoError(t, store.Dispatch("set", 8))
	assert.Equal(t, 0, before.Int("count"))
	assert.Equal(t, 8, store.GetState().Int("count"))
}

func TestCreatorErrorPropagatesWithoutCommit(t *testing.T) {
	boom := errors.New("boom")
	store := storex.CreateStore(storex.Creators{
		"fail": func(args ...any) (storex.Result, error) {
			return storex.Patch{"count": 1}, boom
		},
	}, storex.State{"count": 0})
	rec := testutil.NewRecorder()
	store.Subscribe(rec.Notify)

	err := store.Dispatch("fail")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var actionErr *storex.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "fail", actionErr.Action)

	assert.Equal(t, 0, rec.Count())
	assert.Equal(t, 0, store.GetState().Int("count"))
}

func TestUnknownActionNameIsAnError(t *testing.T) {
	store, _ := newCounterStore(t)
	err := store.Actions().Dispatch("decrement")
	assert.ErrorIs(t, err, storex.ErrUnknownAction)
	assert.Contains(t, err.Error(), `"decrement"`)
}

func TestSubscriberCanDispatchReentrantly(t *testing.T) {
	store, _ := newCounterStore(t)
	rec := testutil.NewRecorder()

	// Clamp: any set above 10 is followed by a nested set back to 10.
	store.Subscribe(func(s storex.State, action string) {
		if action == "set" && s.Int("count") > 10 {
			require.NoError(t, store.Dispatch("set", 10))
		}
	})
	store.Subscribe(rec.Notify)

	require.NoError(t, store.Dispatch("set", 50))

	assert.Equal(t, 10, store.GetState().Int("count"))
	// The nested cycle completes (and notifies) before the outer one resumes.
	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 10, calls[0].State.Int("count"))
	assert.Equal(t, 50, calls[1].State.Int("count"))
}

func TestTransformCanDispatchReentrantly(t *testing.T) {
	store := storex.CreateStore(storex.Creators{
		"log": func(args ...any) (storex.Result, error) {
			return storex.Transform(func(s storex.State, _ *storex.Actions) storex.Patch {
				return storex.Patch{"logged": s.Int("logged") + 1}
			}), nil
		},
		"work": func(args ...any) (storex.Result, error) {
			return storex.Transform(func(s storex.State, a *storex.Actions) storex.Patch {
				require.NoError(t, a.Dispatch("log"))
				return storex.Patch{"done": true}
			}), nil
		},
	}, nil)

	require.NoError(t, store.Dispatch("work"))
	// The outer fragment merges onto the state the nested dispatch committed.
	assert.Equal(t, storex.State{"logged": 1, "done": true}, store.GetState())
}

func TestDepthGuardStopsSelfTriggeringSubscriber(t *testing.T) {
	store, _ := newCounterStore(t, storex.WithMaxDepth(5))

	var errs []error
	store.Subscribe(func(s storex.State, action string) {
		if err := store.Dispatch("increment"); err != nil {
			errs = append(errs, err)
		}
	})

	require.NoError(t, store.Dispatch("increment"))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], storex.ErrDepthExceeded)
	assert.Equal(t, 5, store.GetState().Int("count"))
}

func TestDepthGuardCountsNestingNotSequence(t *testing.T) {
	store, host := newCounterStore(t, storex.WithMaxDepth(1))

	for i := 0; i < 100; i++ {
		require.NoError(t, store.Dispatch("increment"))
	}
	// Deferred dispatches drained on one goroutine are sequential too.
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Dispatch("incrementAsync"))
	}
	assert.Equal(t, 10, host.Drain(context.Background()))
	assert.Equal(t, 110, store.GetState().Int("count"))

	var nested error
	store.Subscribe(func(storex.State, string) {
		if nested == nil {
			nested = store.Dispatch("increment")
		}
	})
	require.NoError(t, store.Dispatch("increment"))
	assert.ErrorIs(t, nested, storex.ErrDepthExceeded)
}

func TestDepthGuardDisabled(t *testing.T) {
	store, _ := newCounterStore(t, storex.WithMaxDepth(0))
	store.Subscribe(func(s storex.State, action string) {
		if s.Int("count") < 200 {
			require.NoError(t, store.Dispatch("increment"))
		}
	})

	require.NoError(t, store.Dispatch("increment"))
	assert.Equal(t, 200, store.GetState().Int("count"))
}

func TestWithID(t *testing.T) {
	store := storex.CreateStore(nil, nil, storex.WithID("cart"))
	assert.Equal(t, "cart", store.ID())

	other := storex.CreateStore(nil, nil)
	assert.NotEmpty(t, other.ID())
	assert.NotEqual(t, other.ID(), storex.CreateStore(nil, nil).ID())
}

func TestConcurrentReadsDuringDispatch(t *testing.T) {
	store, _ := newCounterStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.GetState().Int("count")
				_ = store.Subscribers()
			}
		}()
	}
	for i := 0; i < 100; i++ {
		require.NoError(t, store.Dispatch("increment"))
	}
	wg.Wait()

	assert.Equal(t, 100, store.GetState().Int("count"))
}
