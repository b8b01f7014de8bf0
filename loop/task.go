package loop

import (
	"context"
	"sort"

	"github.com/comalice/storex"
)

// Task is one unit of deferred work.
type Task func(ctx context.Context) error

// TaskWithMeta adds sequencing metadata for deterministic ordering
type TaskWithMeta struct {
	Task        Task
	SequenceNum uint64
	Priority    int
}

// Dispatch returns a task that re-enters the store through actions.Dispatch.
func Dispatch(actions *storex.Actions, name string, args ...any) Task {
	return func(ctx context.Context) error {
		return actions.Dispatch(name, args...)
	}
}

// sortTasks orders tasks deterministically
func sortTasks(tasks []TaskWithMeta) {
	// Stable sort preserves insertion order for equal priorities
	sort.SliceStable(tasks, func(i, j int) bool {
		// Primary: Higher priority first
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}

		// Secondary: Earlier sequence number first (FIFO)
		return tasks[i].SequenceNum < tasks[j].SequenceNum
	})
}
