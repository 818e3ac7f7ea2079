package gallery

import (
	"context"

	"github.com/desertthunder/rivora/internal/models"
)

// RemoteStore is the persistence backend behind a [Store].
//
// Implementations: [services.BackendService] (hosted backend) and [repositories.GenerationRepository] (SQLite).
type RemoteStore interface {
	// FetchItems returns the rows owned by identity, newest first.
	FetchItems(ctx context.Context, identity models.Identity) ([]models.StoredItem, error)

	// InsertItem stores item for identity. It may return the stored row, or nil when the backend does not echo it.
	InsertItem(ctx context.Context, identity models.Identity, item models.StoredItem) (*models.StoredItem, error)

	// UpdateItem sets fields (storage naming) on the row with the given id.
	UpdateItem(ctx context.Context, identity models.Identity, id int64, fields map[string]any) error
}
