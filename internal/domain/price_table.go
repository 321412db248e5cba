package domain

import (
	"sync"
)

// TableEventKind tells subscribers what changed in the table.
type TableEventKind int

const (
	EventPrices TableEventKind = iota
	EventStatus
)

// TableEvent is delivered to subscribers after every mutation.
// For EventPrices, Prices holds only the entries of the merged batch.
type TableEvent struct {
	Kind   TableEventKind
	Prices map[string]Price
	Status ConnStatus
}

// Listener receives table events on the goroutine that mutated the table.
// It must return quickly: it blocks delivery of the next update.
type Listener func(TableEvent)

// PriceTable holds the latest price per canonical asset id, merged from
// snapshot and realtime sources with last-writer-wins semantics, plus the
// live connection status of the primary feed.
type PriceTable struct {
	mu      sync.RWMutex
	entries map[string]Price
	status  ConnStatus

	lmu       sync.Mutex
	listeners []subscription
	nextSubID int
}

type subscription struct {
	id int
	fn Listener
}

// NewPriceTable creates an empty table with status disconnected.
func NewPriceTable() *PriceTable {
	return &PriceTable{
		entries: make(map[string]Price),
		status:  StatusDisconnected,
	}
}

// Merge overwrites the entry of every asset id in updates and leaves all
// other entries untouched. Invalid entries are skipped.
func (t *PriceTable) Merge(updates map[string]Price) {
	batch := make(map[string]Price, len(updates))

	t.mu.Lock()
	for id, p := range updates {
		if id == "" || !p.Valid() {
			continue
		}
		t.entries[id] = p
		batch[id] = p
	}
	t.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	t.publish(TableEvent{Kind: EventPrices, Prices: batch})
}

// SetStatus records the connection status and notifies subscribers when it changed.
func (t *PriceTable) SetStatus(s ConnStatus) {
	t.mu.Lock()
	if t.status == s {
		t.mu.Unlock()
		return
	}
	t.status = s
	t.mu.Unlock()

	t.publish(TableEvent{Kind: EventStatus, Status: s})
}

// Get returns the current entry for id.
func (t *PriceTable) Get(id string) (Price, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.entries[id]
	return p, ok
}

// GetAll returns a copy of every tracked entry.
func (t *PriceTable) GetAll() map[string]Price {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := make(map[string]Price, len(t.entries))
	for id, p := range t.entries {
		snap[id] = p
	}
	return snap
}

// Len returns the number of tracked assets.
func (t *PriceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Status returns the live connection status.
func (t *PriceTable) Status() ConnStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Subscribe registers fn for every future mutation. The returned func removes it.
func (t *PriceTable) Subscribe(fn Listener) func() {
	t.lmu.Lock()
	t.nextSubID++
	id := t.nextSubID
	t.listeners = append(t.listeners, subscription{id: id, fn: fn})
	t.lmu.Unlock()

	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		for i, s := range t.listeners {
			if s.id == id {
				t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
				return
			}
		}
	}
}

func (t *PriceTable) publish(ev TableEvent) {
	t.lmu.Lock()
	subs := make([]subscription, len(t.listeners))
	copy(subs, t.listeners)
	t.lmu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
