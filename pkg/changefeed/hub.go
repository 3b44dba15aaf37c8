// Package changefeed delivers "table changed" signals to live views. A
// subscriber reacts by re-reading its query; events carry no row data.
package changefeed

import (
	"sync"
	"time"
)

type Table string

const (
	TableProducts Table = "products"
	TableReceipts Table = "receipts"
	TableSettings Table = "settings"
	TableMemos    Table = "memos"
)

type Event struct {
	Table Table
	At    time.Time
}

type Publisher interface {
	Publish(table Table)
}

// Hub fans table events out to subscribers. Unread events on a subscription
// coalesce into one.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[Table]map[int]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[Table]map[int]chan Event)}
}

func (h *Hub) Publish(table Table) {
	ev := Event{Table: table, At: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[table] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) Subscribe(table Table) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[table] == nil {
		h.subs[table] = make(map[int]chan Event)
	}
	h.nextID++
	ch := make(chan Event, 1)
	h.subs[table][h.nextID] = ch

	return &Subscription{hub: h, table: table, id: h.nextID, ch: ch}
}

// Subscribers returns the number of live subscriptions on table.
func (h *Hub) Subscribers(table Table) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[table])
}

type Subscription struct {
	hub   *Hub
	table Table
	id    int
	ch    chan Event
	once  sync.Once
}

func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Stop unregisters the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription) Stop() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.subs[s.table], s.id)
		close(s.ch)
	})
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(Table) {}
