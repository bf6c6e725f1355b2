package app

import (
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/interaction"
	"github.com/ayusman/mudra/internal/perf"
)

// Update types pushed to subscribers.
const (
	UpdateEvent       = "event"
	UpdatePerformance = "performance"
)

// Update is one message for a subscriber: either an interaction event or a
// performance status change.
type Update struct {
	Type        string             `json:"type"`
	Event       *interaction.Event `json:"event,omitempty"`
	Performance *perf.Status       `json:"performance,omitempty"`
}

// broadcaster fans updates out to subscribers without ever blocking the
// publisher. A subscriber whose buffer is full misses the update.
type broadcaster struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Update
	nextID  uint64
	dropped atomic.Uint64
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[uint64]chan Update)}
}

func (b *broadcaster) subscribe(buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Update, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broadcaster) publish(u Update) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
