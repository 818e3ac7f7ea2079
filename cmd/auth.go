package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/repositories"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with the hosted backend, or with a local account when --local is set.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))

	if cmd.Bool("local") {
		users, err := r.users()
		if err != nil {
			return err
		}
		user, err := users.GetByEmail(email)
		if err != nil {
			if errors.Is(err, shared.ErrUserNotFound) {
				return fmt.Errorf("%w: no local account for %s, run 'rivora auth signup --local' first", err, email)
			}
			return err
		}
		return r.startSession(session{Identity: user.Identity(), Local: true})
	}

	if r.auth == nil {
		return fmt.Errorf("%w: backend service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("signing in", "email", email)
	identity, err := r.auth.SignIn(ctx, email, cmd.String("password"))
	if err != nil {
		return err
	}
	return r.startSession(session{Identity: *identity})
}

// AuthSignup registers a new account.
//
// Local accounts are created in the users table. Backend accounts may need email confirmation before a session exists.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))

	if cmd.Bool("local") {
		users, err := r.users()
		if err != nil {
			return err
		}
		user := &models.User{Email: email, DisplayName: cmd.String("name")}
		if err := users.Create(user); err != nil {
			return fmt.Errorf("failed to create local account: %w", err)
		}
		r.logger.Info("local account created", "id", user.ID)
		return r.startSession(session{Identity: user.Identity(), Local: true})
	}

	if r.auth == nil {
		return fmt.Errorf("%w: backend service not initialized", shared.ErrServiceUnavailable)
	}

	identity, err := r.auth.SignUp(ctx, email, cmd.String("password"))
	if err != nil {
		return err
	}
	if identity == nil {
		return r.writePlain("✓ Account created. Check %s for a confirmation link, then run 'rivora auth login'.\n", email)
	}
	return r.startSession(session{Identity: *identity})
}

// AuthLogout revokes the backend session (best effort) and forgets the local one.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	s, err := r.loadSession()
	if err != nil {
		return err
	}
	if s == nil {
		return r.writePlain("Not signed in\n")
	}

	if !s.Local && r.auth != nil {
		if err := r.auth.SignOut(ctx, s.Identity); err != nil {
			r.logger.Warn("failed to revoke backend session", "error", err)
		}
	}

	if err := r.clearSession(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out %s\n", s.Identity.Email)
}

// AuthStatus reports the current session, validating backend sessions with the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	s, err := r.loadSession()
	if err != nil {
		return err
	}
	if s == nil {
		return r.writePlain("✗ Not signed in\n")
	}

	identity := s.Identity
	kind := "backend"
	if s.Local {
		kind = "local"
	} else if r.auth != nil {
		current, err := r.auth.User(ctx, identity)
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				r.writePlain("✗ Session for %s has expired\n", identity.Email)
				return fmt.Errorf("%w: run 'rivora auth login' again", err)
			}
			return err
		}
		identity = *current
	}

	r.writePlain("✓ Signed in as %s\n", identity.Email)
	r.writePlain("User ID: %s\n", identity.UserID)
	r.writePlain("Account: %s\n", kind)
	r.writePlain("Store: %s\n", r.config.Store.Kind)
	return nil
}

func (r *Runner) startSession(s session) error {
	if err := r.saveSession(s); err != nil {
		return err
	}
	r.logger.Debug("session saved", "path", r.config.SessionPath())
	return r.writePlain("✓ Signed in as %s\n", s.Identity.Email)
}

func (r *Runner) users() (*repositories.UserRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewUserRepository(db), nil
}
