package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
)

// GenerationRepository stores generated media in the generations table.
//
// It satisfies gallery.RemoteStore. Inserts keep the caller's id when one is given, so locally synthesized ids and
// stored ids agree.
type GenerationRepository struct {
	db  *sql.DB
	now clock
}

// NewGenerationRepository creates a new [GenerationRepository] with the given database connection
func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db, now: utcNow}
}

// updatable maps storage field names to the columns UpdateItem may change.
var updatable = map[string]string{
	"is_favorite": "is_favorite",
}

const selectGenerations = `
	SELECT id, user_id, type, prompt, url, is_favorite, created_at
	FROM generations
`

// FetchItems lists identity's generations, newest first.
func (r *GenerationRepository) FetchItems(ctx context.Context, identity models.Identity) ([]models.StoredItem, error) {
	query := selectGenerations + `
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	items := []models.StoredItem{}
	for rows.Next() {
		item, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// InsertItem stores item for identity and returns the stored row.
func (r *GenerationRepository) InsertItem(ctx context.Context, identity models.Identity, item models.StoredItem) (*models.StoredItem, error) {
	if identity.IsZero() {
		return nil, shared.ErrAuthRequired
	}

	item.UserID = identity.UserID
	item.CreatedAt = r.now()

	var (
		result sql.Result
		err    error
	)
	if item.ID != 0 {
		result, err = r.db.ExecContext(ctx, `
			INSERT INTO generations (id, user_id, type, prompt, url, is_favorite, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, item.ID, item.UserID, item.Type, item.Prompt, item.URL, item.IsFavorite, item.CreatedAt)
	} else {
		result, err = r.db.ExecContext(ctx, `
			INSERT INTO generations (user_id, type, prompt, url, is_favorite, created_at) VALUES (?, ?, ?, ?, ?, ?)
		`, item.UserID, item.Type, item.Prompt, item.URL, item.IsFavorite, item.CreatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert generation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted id: %w", err)
	}

	return r.Get(ctx, id)
}

// UpdateItem sets fields on identity's row. Only the favorite flag may change.
func (r *GenerationRepository) UpdateItem(ctx context.Context, identity models.Identity, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	set := ""
	args := make([]any, 0, len(fields)+2)
	for field, value := range fields {
		column, ok := updatable[field]
		if !ok {
			return fmt.Errorf("%w: field %q cannot be updated", shared.ErrInvalidInput, field)
		}
		if set != "" {
			set += ", "
		}
		set += column + " = ?"
		args = append(args, value)
	}
	args = append(args, id, identity.UserID)

	result, err := r.db.ExecContext(ctx, "UPDATE generations SET "+set+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update generation: %w", err)
	}

	return affected(result, fmt.Errorf("%w: %d", shared.ErrItemNotFound, id))
}

// Get retrieves a generation by id, excluding soft-deleted rows
func (r *GenerationRepository) Get(ctx context.Context, id int64) (*models.StoredItem, error) {
	row := r.db.QueryRowContext(ctx, selectGenerations+" WHERE id = ?", id)

	item, err := scanRow(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %d", shared.ErrItemNotFound, id)
	}
	return item, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*models.StoredItem, error) {
	var (
		item      models.StoredItem
		mediaType string
	)

	err := s.Scan(&item.ID, &item.UserID, &mediaType, &item.Prompt, &item.URL, &item.IsFavorite, &item.CreatedAt)
	if isNoRows(err) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan generation: %w", err)
	}

	item.Type = models.MediaType(mediaType)
	return &item, nil
}
