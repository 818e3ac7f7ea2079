package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/rivora/internal/formatter"
	"github.com/desertthunder/rivora/internal/gallery"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/urfave/cli/v3"
)

// filterFromFlags reads --type and --favorites.
func filterFromFlags(cmd *cli.Command) (models.Filter, error) {
	t, err := models.ParseFilterType(cmd.String("type"))
	if err != nil {
		return models.Filter{}, fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
	}
	return models.Filter{Type: t, FavoritesOnly: cmd.Bool("favorites")}, nil
}

// loadedGallery opens the gallery and fails when it could not be loaded.
func (r *Runner) loadedGallery(ctx context.Context) (*gallery.Store, error) {
	store, _, err := r.openGallery(ctx)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// GalleryList prints the signed-in user's generations, newest first.
func (r *Runner) GalleryList(ctx context.Context, cmd *cli.Command) error {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := r.loadedGallery(ctx)
	if err != nil {
		return err
	}

	items := store.Filtered(filter)
	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	if len(items) == 0 {
		if store.Len() == 0 {
			return r.writePlain("No generations yet. Run 'rivora generate \"your prompt\"' to create one.\n")
		}
		return r.writePlain("Nothing matches %s.\n", filter)
	}

	data, err := formatter.ExportToText(items)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// GalleryFavorite toggles the favorite flag of one item.
func (r *Runner) GalleryFavorite(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Int64("id")

	store, err := r.loadedGallery(ctx)
	if err != nil {
		return err
	}

	before, err := store.Get(id)
	if err != nil {
		return fmt.Errorf("%w: #%d", err, id)
	}

	if err := store.ToggleFavorite(ctx, id); err != nil {
		return err
	}

	after, err := store.Get(id)
	if err != nil {
		return err
	}
	if after.IsFavorite == before.IsFavorite {
		return fmt.Errorf("%w: favorite change for #%d was not saved", shared.ErrAPIRequest, id)
	}

	if after.IsFavorite {
		return r.writePlain("★ #%d added to favorites\n", id)
	}
	return r.writePlain("#%d removed from favorites\n", id)
}

// GalleryExport writes the (filtered) gallery to a file.
func (r *Runner) GalleryExport(ctx context.Context, cmd *cli.Command) error {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := r.loadedGallery(ctx)
	if err != nil {
		return err
	}

	items := store.Filtered(filter)
	path, err := formatter.WriteExport(items, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("gallery exported", "path", path, "items", len(items))
	return r.writePlain("✓ Exported %d items to %s\n", len(items), path)
}

// GallerySave downloads one item (or writes its text) into a directory.
func (r *Runner) GallerySave(ctx context.Context, cmd *cli.Command) error {
	store, err := r.loadedGallery(ctx)
	if err != nil {
		return err
	}

	item, err := store.Get(cmd.Int64("id"))
	if err != nil {
		return err
	}

	path, err := formatter.SaveMedia(ctx, r.httpClient, item, shared.ExpandHome(cmd.String("dir")))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved #%d to %s\n", item.ID, path)
}

// GalleryOpen opens an item's media in the browser. Text items are printed instead.
func (r *Runner) GalleryOpen(ctx context.Context, cmd *cli.Command) error {
	store, err := r.loadedGallery(ctx)
	if err != nil {
		return err
	}

	item, err := store.Get(cmd.Int64("id"))
	if err != nil {
		return err
	}

	if _, ok := item.Text(); ok {
		return r.writeItem(item)
	}

	r.logger.Info("opening media", "id", item.ID, "url", item.URL)
	return shared.OpenBrowser(item.URL)
}

// Plans prints the subscription plans.
func (r *Runner) Plans(ctx context.Context, cmd *cli.Command) error {
	plans := models.SubscriptionPlans()
	if cmd.Bool("json") {
		return r.writeJSON(plans, true)
	}

	r.writePlainHeader("Plans")
	_, err := r.output.Write(formatter.FormatPlans(plans))
	return err
}
