// Package testutil provides helpers for asserting on store notifications.
package testutil

import (
	"sync"
	"time"

	"github.com/comalice/storex"
)

// Call is one recorded subscriber invocation.
type Call struct {
	State  storex.State
	Action string
}

// Recorder is a subscriber that records every notification it receives.
// Register it with store.Subscribe(rec.Notify).
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	signal chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{signal: make(chan struct{}, 1)}
}

// Notify has the storex.Subscriber signature.
func (r *Recorder) Notify(state storex.State, action string) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{State: state, Action: action})
	r.mu.Unlock()

	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Calls returns a copy of all recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns the number of recorded calls.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// CountFor returns the number of calls triggered by action.
func (r *Recorder) CountFor(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Action == action {
			n++
		}
	}
	return n
}

// Last returns the most recent call, if any.
func (r *Recorder) Last() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}

// Actions returns the trigger names in call order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Action
	}
	return out
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// WaitForCount blocks until at least n calls were recorded or timeout elapses.
// Reports whether the count was reached.
func (r *Recorder) WaitForCount(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if r.Count() >= n {
			return true
		}
		select {
		case <-r.signal:
		case <-deadline.C:
			return r.Count() >= n
		}
	}
}
