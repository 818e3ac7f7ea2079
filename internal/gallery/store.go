package gallery

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
)

// Options configures a [Store]. The zero value is usable.
type Options struct {
	Logger *log.Logger
	// Now is the clock used to synthesize local ids. Defaults to [time.Now].
	Now func() time.Time
}

// Store is the identity-scoped list of a user's [models.MediaItem] values, newest first.
type Store struct {
	remote RemoteStore
	logger *log.Logger
	now    func() time.Time

	mu        sync.RWMutex
	identity  models.Identity
	items     []models.MediaItem
	loading   bool
	generated bool
	ticket    uint64
	lastID    int64

	toggles *keyedMutex
	events  *broker
}

// New creates a [Store] backed by remote.
func New(remote RemoteStore, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		remote:  remote,
		logger:  shared.WithLogger(logger, "component", "gallery"),
		now:     now,
		toggles: newKeyedMutex(),
		events:  newBroker(),
	}
}

// Load replaces the list with the items owned by identity.
//
// An absent identity empties the list without contacting the remote store.
// A fetch failure is logged, leaves the list empty and is returned for callers that want to report it.
// Results of a Load that has been superseded by a newer call are discarded.
func (s *Store) Load(ctx context.Context, identity models.Identity) error {
	s.mu.Lock()
	s.ticket++
	ticket := s.ticket
	switched := !s.identity.Same(identity)
	s.identity = identity

	if identity.IsZero() {
		s.items = nil
		s.loading = false
		s.mu.Unlock()
		s.events.publish(Event{Kind: EventCleared})
		return nil
	}

	if switched {
		s.items = nil
	}
	s.loading = true
	s.mu.Unlock()

	if switched {
		s.events.publish(Event{Kind: EventCleared})
	}

	rows, err := s.remote.FetchItems(ctx, identity)

	s.mu.Lock()
	if ticket != s.ticket || !s.identity.Same(identity) {
		s.mu.Unlock()
		s.logger.Debug("discarding stale load", "user", identity.UserID, "ticket", ticket)
		return nil
	}

	s.loading = false
	if err != nil {
		s.items = nil
		s.mu.Unlock()

		s.logger.Error("failed to load generations", "user", identity.UserID, "error", err)
		s.events.publish(Event{Kind: EventLoadFailed, Err: err})
		return fmt.Errorf("failed to load generations: %w", err)
	}

	items := make([]models.MediaItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.MediaItem())
	}
	s.items = items
	s.mu.Unlock()

	s.logger.Debug("loaded generations", "user", identity.UserID, "count", len(items))
	s.events.publish(Event{Kind: EventLoaded, Count: len(items)})
	return nil
}

// AddItem prepends a new item built from draft and persists it.
//
// The item is visible to readers before the remote insert completes. When the insert fails the item is removed again
// and the wrapped failure is returned.
func (s *Store) AddItem(ctx context.Context, draft models.Draft) (models.MediaItem, error) {
	var (
		item     models.MediaItem
		identity models.Identity
	)

	apply := func() (func(), error) {
		if s.identity.IsZero() {
			return nil, shared.ErrAuthRequired
		}
		if err := draft.Validate(); err != nil {
			return nil, err
		}

		identity = s.identity
		item = models.MediaItem{
			ID:     s.nextID(),
			Type:   draft.Type,
			Prompt: draft.Prompt,
			URL:    draft.URL,
		}
		s.items = slices.Insert(s.items, 0, item)
		s.generated = true
		s.events.publish(Event{Kind: EventInserted, Item: item})

		return func() {
			if i := s.indexOf(item.ID); i >= 0 {
				s.items = slices.Delete(s.items, i, i+1)
			}
			s.events.publish(Event{Kind: EventRolledBack, Item: item})
		}, nil
	}

	var stored *models.StoredItem
	effect := func() error {
		var err error
		stored, err = s.remote.InsertItem(ctx, identity, models.NewStoredItem(item, identity.UserID))
		return err
	}

	if err := s.optimistic(apply, effect); err != nil {
		if item.ID != 0 {
			s.logger.Error("failed to save generation", "id", item.ID, "error", err)
			return models.MediaItem{}, fmt.Errorf("%w: %w", shared.ErrSaveFailed, err)
		}
		return models.MediaItem{}, err
	}

	if stored != nil && stored.ID != 0 && stored.ID != item.ID {
		item = s.reconcile(ctx, identity, item, *stored)
	}
	return item, nil
}

// reconcile swaps a local id for the server id unless the server id is already present.
//
// Toggles on either id are held off while the swap happens. A favorite flag that settled against the local id never
// reached the stored row, so it is written again under the server id and undone if that write fails.
func (s *Store) reconcile(ctx context.Context, identity models.Identity, item models.MediaItem, stored models.StoredItem) models.MediaItem {
	unlockLocal := s.toggles.lock(item.ID)
	defer unlockLocal()
	unlockServer := s.toggles.lock(stored.ID)
	defer unlockServer()

	s.mu.Lock()
	i := s.indexOf(item.ID)
	if i < 0 || s.indexOf(stored.ID) >= 0 {
		s.mu.Unlock()
		return item
	}

	s.items[i].ID = stored.ID
	current := s.items[i]
	s.mu.Unlock()
	s.events.publish(Event{Kind: EventReconciled, Item: current, PreviousID: item.ID})

	if current.IsFavorite == stored.IsFavorite {
		return current
	}

	err := s.remote.UpdateItem(ctx, identity, stored.ID, map[string]any{"is_favorite": current.IsFavorite})
	if err == nil {
		return current
	}

	s.logger.Error("failed to update favorite", "id", stored.ID, "favorite", current.IsFavorite, "error", err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if j := s.indexOf(stored.ID); j >= 0 && s.items[j].IsFavorite == current.IsFavorite {
		s.items[j].IsFavorite = stored.IsFavorite
		current = s.items[j]
		s.events.publish(Event{Kind: EventRolledBack, Item: current})
	}
	return current
}

// ToggleFavorite flips the favorite flag of the item with id and persists it.
//
// Unknown ids are ignored. Remote failures are logged and the previous flag restored; they are not returned as errors
// because the list is already consistent again. The returned error is reserved for a cancelled context while waiting
// on an earlier toggle of the same id.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) error {
	unlock := s.toggles.lock(id)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		identity models.Identity
		next     bool
	)

	apply := func() (func(), error) {
		i := s.indexOf(id)
		if i < 0 {
			return nil, nil
		}

		identity = s.identity
		prev := s.items[i].IsFavorite
		next = !prev
		s.items[i].IsFavorite = next
		s.events.publish(Event{Kind: EventFavorited, Item: s.items[i]})

		return func() {
			j := s.indexOf(id)
			if j < 0 || s.items[j].IsFavorite != next {
				return
			}
			s.items[j].IsFavorite = prev
			s.events.publish(Event{Kind: EventRolledBack, Item: s.items[j]})
		}, nil
	}

	effect := func() error {
		return s.remote.UpdateItem(ctx, identity, id, map[string]any{"is_favorite": next})
	}

	if err := s.optimistic(apply, effect); err != nil {
		s.logger.Error("failed to update favorite", "id", id, "favorite", next, "error", err)
	}
	return nil
}

// optimistic runs apply under the store lock, then effect without it.
//
// apply returns the undo for exactly what it changed; a nil undo means nothing changed and effect is skipped.
// undo runs under the store lock when effect fails.
func (s *Store) optimistic(apply func() (func(), error), effect func() error) error {
	s.mu.Lock()
	undo, err := apply()
	s.mu.Unlock()

	if err != nil || undo == nil {
		return err
	}

	if err := effect(); err != nil {
		s.mu.Lock()
		undo()
		s.mu.Unlock()
		return err
	}
	return nil
}

// nextID synthesizes a local id from the clock, kept strictly increasing and unique within the list.
// Callers hold s.mu.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	for s.indexOf(id) >= 0 {
		id++
	}
	s.lastID = id
	return id
}

// indexOf requires s.mu to be held.
func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(m models.MediaItem) bool { return m.ID == id })
}

// Items returns a copy of the list, newest first.
func (s *Store) Items() []models.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Filtered returns the items visible under f.
func (s *Store) Filtered(f models.Filter) []models.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.Apply(s.items)
}

// Get returns the item with id.
func (s *Store) Get(id int64) (models.MediaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return models.MediaItem{}, fmt.Errorf("%w: %d", shared.ErrItemNotFound, id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// HasGeneratedThisSession reports whether AddItem has inserted anything since the process started.
func (s *Store) HasGeneratedThisSession() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generated
}

func (s *Store) Identity() models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Subscribe returns a channel of change events with the given buffer and a cancel func that closes it.
func (s *Store) Subscribe(buf int) (<-chan Event, func()) {
	return s.events.subscribe(buf)
}
