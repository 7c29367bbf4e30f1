package chat

import (
	"context"
	"log"
	"sync"
	"time"
)

// Store persists a room's state to durable storage, overwriting any prior
// record for that room. Implementations live in internal/store.
type Store interface {
	SaveHistory(ctx context.Context, room string, history []Message) error
	SaveMembers(ctx context.Context, room string, members []string) error
}

// snapshot is the most recent state awaiting a write for one room. A nil
// field means that record has no pending change.
type snapshot struct {
	history []Message
	members []string
}

// persister runs store writes in the background so persistence never blocks
// broadcast delivery. At most one write per room is in flight; a snapshot
// queued behind it is superseded by newer ones, so a burst of mutations
// collapses into a single write and per-room writes are never reordered.
type persister struct {
	store   Store
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*snapshot
	active  map[string]bool
	wg      sync.WaitGroup
}

func newPersister(store Store) *persister {
	return &persister{
		store:   store,
		timeout: 5 * time.Second,
		pending: make(map[string]*snapshot),
		active:  make(map[string]bool),
	}
}

func (p *persister) SaveHistory(room string, history []Message) {
	p.enqueue(room, func(s *snapshot) { s.history = history })
}

func (p *persister) SaveMembers(room string, members []string) {
	p.enqueue(room, func(s *snapshot) { s.members = members })
}

func (p *persister) enqueue(room string, update func(*snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.pending[room]; ok {
		update(s)
		return
	}
	s := &snapshot{}
	update(s)
	p.pending[room] = s
	if p.active[room] {
		return
	}
	p.active[room] = true
	p.wg.Add(1)
	go p.flush(room)
}

func (p *persister) flush(room string) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		s, ok := p.pending[room]
		if !ok {
			delete(p.active, room)
			p.mu.Unlock()
			return
		}
		delete(p.pending, room)
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if s.history != nil {
			if err := p.store.SaveHistory(ctx, room, s.history); err != nil {
				log.Printf("persist: history write for room %q failed: %v", room, err)
			}
		}
		if s.members != nil {
			if err := p.store.SaveMembers(ctx, room, s.members); err != nil {
				log.Printf("persist: member write for room %q failed: %v", room, err)
			}
		}
		cancel()
	}
}

// Wait blocks until every in-flight write has drained.
func (p *persister) Wait() {
	p.wg.Wait()
}
