package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
)

// session is the signed-in identity persisted between runs.
type session struct {
	Identity models.Identity `json:"identity"`
	// Local marks an account from the SQLite users table; it has no backend tokens.
	Local bool `json:"local"`
}

// loadSession returns nil when nobody is signed in.
func (r *Runner) loadSession() (*session, error) {
	var s session
	if err := shared.ReadJSONFile(r.config.SessionPath(), &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s.Identity.IsZero() {
		return nil, nil
	}
	return &s, nil
}

func (r *Runner) saveSession(s session) error {
	if err := shared.WriteJSONFile(r.config.SessionPath(), s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *Runner) clearSession() error {
	return shared.RemoveFile(r.config.SessionPath())
}

// requireSession returns the signed-in identity or [shared.ErrAuthRequired].
func (r *Runner) requireSession() (models.Identity, error) {
	s, err := r.loadSession()
	if err != nil {
		return models.Identity{}, err
	}
	if s == nil {
		return models.Identity{}, fmt.Errorf("%w: run 'rivora auth login' first", shared.ErrAuthRequired)
	}
	return s.Identity, nil
}
