package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/rivora/internal/shared"
)

// Identity is the active session.
type Identity struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// IsZero reports whether nobody is signed in.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// Same reports whether both identities refer to the same user.
func (i Identity) Same(other Identity) bool {
	return i.UserID == other.UserID
}

// User is a local account kept in SQLite when generations are stored locally.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Validate requires an email that at least looks like one.
func (u User) Validate() error {
	at := strings.Index(u.Email, "@")
	if at < 1 || at == len(u.Email)-1 {
		return fmt.Errorf("%w: invalid email %q", shared.ErrInvalidInput, u.Email)
	}
	return nil
}

// Identity returns the session for a local user. Local sessions carry no tokens.
func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email}
}
