package db

import "sync"

// ChangeOp is the kind of mutation a change event describes.
type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// ChangeEvent notifies subscribers that a record in a collection changed.
type ChangeEvent struct {
	Collection string
	Op         ChangeOp
	ID         string
}

// ChangeFeed is an in-process publish/subscribe bus for record mutations.
// The store publishes after every successful write; report caches subscribe
// to invalidate themselves. Publishing never blocks: a subscriber whose
// buffer is full misses the event, which is acceptable because consumers
// treat events as invalidation hints, not as a replication stream.
type ChangeFeed struct {
	mu   sync.RWMutex
	subs map[int]chan ChangeEvent
	next int
}

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[int]chan ChangeEvent)}
}

// Subscribe registers a buffered listener. The returned cancel func must be
// called when the subscriber is done; it closes the channel.
func (f *ChangeFeed) Subscribe() (<-chan ChangeEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan ChangeEvent, 64)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish fans the event out to all current subscribers without blocking.
func (f *ChangeFeed) Publish(event ChangeEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
