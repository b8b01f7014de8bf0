// Package publish forwards store commits to other parts of a program.
package publish

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/storex"
)

// Commit bundles a committed state with its trigger for publishing.
type Commit struct {
	Seq       uint64
	StoreID   string
	Action    string
	State     storex.State
	Timestamp time.Time
}

// ChannelPublisher forwards commits to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	storeID string

	mu      sync.RWMutex
	ch      chan<- Commit
	closed  bool
	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(storeID string, ch chan<- Commit) *ChannelPublisher {
	return &ChannelPublisher{storeID: storeID, ch: ch}
}

// Notify has the storex.Subscriber signature: store.Subscribe(p.Notify).
func (p *ChannelPublisher) Notify(state storex.State, action string) {
	c := Commit{
		Seq:       p.seq.Add(1),
		StoreID:   p.storeID,
		Action:    action,
		State:     state,
		Timestamp: time.Now(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.ch <- c:
	default:
		p.dropped.Add(1) // Non-blocking drop
	}
}

// Dropped returns how many commits were not delivered.
func (p *ChannelPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close closes the output channel. Later commits are counted as dropped.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.ch)
	return nil
}
