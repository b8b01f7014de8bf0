package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/storex"
)

func TestRecorderRecordsInOrder(t *testing.T) {
	rec := NewRecorder()
	_, ok := rec.Last()
	assert.False(t, ok)

	rec.Notify(storex.State{"n": 1}, "a")
	rec.Notify(storex.State{"n": 2}, "b")
	rec.Notify(storex.State{"n": 3}, "a")

	assert.Equal(t, 3, rec.Count())
	assert.Equal(t, 2, rec.CountFor("a"))
	assert.Equal(t, []string{"a", "b", "a"}, rec.Actions())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, 3, last.State.Int("n"))

	calls := rec.Calls()
	calls[0].Action = "mutated"
	assert.Equal(t, "a", rec.Calls()[0].Action)

	rec.Reset()
	assert.Equal(t, 0, rec.Count())
}

func TestRecorderWaitForCount(t *testing.T) {
	rec := NewRecorder()
	go func() {
		for i := 0; i < 3; i++ {
			time.Sleep(2 * time.Millisecond)
			rec.Notify(storex.State{}, "tick")
		}
	}()

	assert.True(t, rec.WaitForCount(3, time.Second))
	assert.False(t, rec.WaitForCount(4, 10*time.Millisecond))
}
