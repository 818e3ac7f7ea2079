package gallery

import (
	"sync"

	"github.com/desertthunder/rivora/internal/models"
)

// EventKind identifies a change to the store.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventLoadFailed
	EventCleared
	EventInserted
	EventRolledBack
	EventFavorited
	EventReconciled
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load failed"
	case EventCleared:
		return "cleared"
	case EventInserted:
		return "inserted"
	case EventRolledBack:
		return "rolled back"
	case EventFavorited:
		return "favorited"
	case EventReconciled:
		return "reconciled"
	default:
		return "unknown"
	}
}

// Event describes one change. Item is set for item-level events;
// PreviousID is set for [EventReconciled]; Err is set for failures.
type Event struct {
	Kind       EventKind
	Item       models.MediaItem
	PreviousID int64
	Count      int
	Err        error
}

type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe(buf int) (<-chan Event, func()) {
	if buf < 1 {
		buf = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, buf)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// publish never blocks; full subscribers drop the event.
func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
