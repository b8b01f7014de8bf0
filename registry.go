package storex

import "fmt"

type subscription struct {
	id uint64
	fn Subscriber
}

// registry is the ordered subscriber list. Insertion order is notification
// order; a function registered twice is called twice. Guarded by Store.mu.
type registry struct {
	nextID uint64
	subs   []subscription
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	store *Store
	id    uint64
}

// Subscribe appends fn to the registry. Past commits are not replayed.
// A nil fn is ignored and yields an inert Subscription.
func (s *Store) Subscribe(fn Subscriber) *Subscription {
	if fn == nil {
		return &Subscription{}
	}

	s.mu.Lock()
	s.registry.nextID++
	id := s.registry.nextID
	s.registry.subs = append(s.registry.subs, subscription{id: id, fn: fn})
	n := len(s.registry.subs)
	s.mu.Unlock()

	s.metrics.SetSubscribers(s.id, n)
	return &Subscription{store: s, id: id}
}

// Subscribers returns the number of registrations.
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry.subs)
}

// Unsubscribe removes this registration and keeps the order of the others.
// Calling it more than once is a no-op.
func (sub *Subscription) Unsubscribe() {
	if sub == nil || sub.store == nil {
		return
	}
	s := sub.store

	s.mu.Lock()
	kept := make([]subscription, 0, len(s.registry.subs))
	for _, entry := range s.registry.subs {
		if entry.id != sub.id {
			kept = append(kept, entry)
		}
	}
	s.registry.subs = kept
	n := len(kept)
	s.mu.Unlock()

	s.metrics.SetSubscribers(s.id, n)
}

// notify calls every subscriber registered at the time of the commit.
// Copy subscribers while holding lock, then call them without it so they can
// dispatch or subscribe.
func (s *Store) notify(state State, action string) {
	s.mu.RLock()
	subs := make([]subscription, len(s.registry.subs))
	copy(subs, s.registry.subs)
	s.mu.RUnlock()

	for _, sub := range subs {
		s.call(sub, state, action)
	}
}

// call isolates one subscriber: it gets its own copy of state, and a panic is
// logged and counted while the remaining subscribers still run.
func (s *Store) call(sub subscription, state State, action string) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.SubscriberPanicked(action)
			s.logger.Error("subscriber panicked",
				"store", s.id,
				"action", action,
				"subscription", sub.id,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	sub.fn(state.Clone(), action)
}
