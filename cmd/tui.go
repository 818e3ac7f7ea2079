package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rivora/internal/gallery"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/desertthunder/rivora/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	identity, err := r.requireSession()
	if err != nil {
		return err
	}

	remote, err := r.remoteStore()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	store := gallery.New(remote, gallery.Options{Logger: fileLogger})
	controller, err := r.submissionController(store)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, store, controller, identity, fileLogger)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
