package testing

import (
	"context"
	"slices"
	"sync"

	"github.com/desertthunder/rivora/internal/models"
)

// FakeUpdate records a call to [FakeRemoteStore.UpdateItem].
type FakeUpdate struct {
	UserID string
	ID     int64
	Fields map[string]any
}

// FakeRemoteStore is an in-memory remote store for gallery and controller tests.
//
// Rows are kept per user, newest first. The Err fields force failures; the Hook fields replace the default behavior
// entirely and are used to block or reorder calls.
type FakeRemoteStore struct {
	mu sync.Mutex

	Rows map[string][]models.StoredItem

	FetchErr  error
	InsertErr error
	UpdateErr error

	// AssignIDs makes InsertItem return a row with a server-assigned id starting at 1.
	AssignIDs bool
	// Silent makes InsertItem return a nil row, like a backend that does not echo inserts.
	Silent bool

	FetchHook  func(ctx context.Context, identity models.Identity) ([]models.StoredItem, error)
	InsertHook func(ctx context.Context, identity models.Identity, item models.StoredItem) (*models.StoredItem, error)
	UpdateHook func(ctx context.Context, identity models.Identity, id int64, fields map[string]any) error

	FetchCalls int
	Inserts    []models.StoredItem
	Updates    []FakeUpdate

	nextID int64
}

func NewFakeRemoteStore() *FakeRemoteStore {
	return &FakeRemoteStore{Rows: make(map[string][]models.StoredItem)}
}

// Seed stores rows for userID as if they were already persisted.
func (f *FakeRemoteStore) Seed(userID string, rows ...models.StoredItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		row.UserID = userID
		f.Rows[userID] = append(f.Rows[userID], row)
	}
}

func (f *FakeRemoteStore) FetchItems(ctx context.Context, identity models.Identity) ([]models.StoredItem, error) {
	f.mu.Lock()
	f.FetchCalls++
	hook := f.FetchHook
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, identity)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	return slices.Clone(f.Rows[identity.UserID]), nil
}

func (f *FakeRemoteStore) InsertItem(ctx context.Context, identity models.Identity, item models.StoredItem) (*models.StoredItem, error) {
	f.mu.Lock()
	f.Inserts = append(f.Inserts, item)
	hook := f.InsertHook
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, identity, item)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InsertErr != nil {
		return nil, f.InsertErr
	}

	if f.AssignIDs {
		f.nextID++
		item.ID = f.nextID
	}
	f.Rows[identity.UserID] = slices.Insert(f.Rows[identity.UserID], 0, item)

	if f.Silent {
		return nil, nil
	}
	return &item, nil
}

func (f *FakeRemoteStore) UpdateItem(ctx context.Context, identity models.Identity, id int64, fields map[string]any) error {
	f.mu.Lock()
	f.Updates = append(f.Updates, FakeUpdate{UserID: identity.UserID, ID: id, Fields: fields})
	hook := f.UpdateHook
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, identity, id, fields)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return f.UpdateErr
	}

	rows := f.Rows[identity.UserID]
	for i := range rows {
		if rows[i].ID == id {
			if fav, ok := fields["is_favorite"].(bool); ok {
				rows[i].IsFavorite = fav
			}
		}
	}
	return nil
}

// InsertCount returns the number of InsertItem calls so far.
func (f *FakeRemoteStore) InsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Inserts)
}

// UpdateCount returns the number of UpdateItem calls so far.
func (f *FakeRemoteStore) UpdateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Updates)
}

// Fetches returns the number of FetchItems calls so far.
func (f *FakeRemoteStore) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.FetchCalls
}
