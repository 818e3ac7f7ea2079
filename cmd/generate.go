package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/desertthunder/rivora/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Generate submits one prompt to the generation webhook and stores the result in the gallery.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	mediaType, err := models.ParseMediaType(cmd.String("type"))
	if err != nil {
		return err
	}
	if !mediaType.Generatable() {
		return fmt.Errorf("%w: --type must be Image or Video", shared.ErrInvalidFlag)
	}

	var attachment *models.Attachment
	if path := cmd.String("file"); path != "" {
		if attachment, err = tasks.NewFileAttachment(shared.ExpandHome(path)); err != nil {
			return err
		}
	}

	store, _, err := r.openGallery(ctx)
	if store == nil {
		return err
	}
	if err != nil {
		r.logger.Warn("gallery could not be loaded, the result will still be saved", "error", err)
	}

	controller, err := r.submissionController(store)
	if err != nil {
		return err
	}

	quiet := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if !quiet {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	item, err := controller.Generate(ctx, progress, tasks.Request{Prompt: prompt, Type: mediaType, Attachment: attachment})
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if quiet {
		return r.writeJSON(item, true)
	}
	r.writePlainln("")
	return r.writeItem(item)
}

// writeItem prints one gallery item with its content or link.
func (r *Runner) writeItem(item models.MediaItem) error {
	star := ""
	if item.IsFavorite {
		star = " ★"
	}
	r.writePlain("#%d [%s]%s %s\n", item.ID, item.Type, star, item.Prompt)

	if content, ok := item.Text(); ok {
		return r.writePlain("%s\n", content)
	}
	return r.writePlain("%s\n", item.URL)
}
