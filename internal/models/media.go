package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/rivora/internal/shared"
)

// MediaType is the kind of artifact a generation produced.
type MediaType string

const (
	Image MediaType = "Image"
	Video MediaType = "Video"
	Text  MediaType = "Text"
)

// TextPrefix marks a url field that carries inline text content instead of a link.
const TextPrefix = "text:"

// ParseMediaType accepts the canonical names case-insensitively.
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return Image, nil
	case "video":
		return Video, nil
	case "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown media type %q", shared.ErrInvalidInput, s)
	}
}

func (t MediaType) Valid() bool {
	return t == Image || t == Video || t == Text
}

// Generatable reports whether t can be requested from the generation service.
// Text items only ever come back as a fallback result.
func (t MediaType) Generatable() bool {
	return t == Image || t == Video
}

func (t MediaType) String() string { return string(t) }

// MediaItem is a single entry of a user's gallery.
//
// Type, Prompt and URL are fixed at creation; only IsFavorite changes afterwards.
type MediaItem struct {
	ID         int64     `json:"id"`
	Type       MediaType `json:"type"`
	Prompt     string    `json:"prompt"`
	URL        string    `json:"url"`
	IsFavorite bool      `json:"isFavorite"`
}

// Text returns the inline content of a text payload.
func (m MediaItem) Text() (string, bool) {
	if !strings.HasPrefix(m.URL, TextPrefix) {
		return "", false
	}
	return strings.TrimPrefix(m.URL, TextPrefix), true
}

// TextURL embeds content into a url field value.
func TextURL(content string) string {
	return TextPrefix + content
}

// Draft is the data needed to create a [MediaItem]; the store assigns the id.
type Draft struct {
	Type   MediaType
	Prompt string
	URL    string
}

// Validate checks that the draft can be turned into a gallery item.
func (d Draft) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown media type %q", shared.ErrInvalidInput, d.Type)
	}
	if strings.TrimSpace(d.Prompt) == "" {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, shared.ErrEmptyPrompt)
	}
	if d.URL == "" {
		return fmt.Errorf("%w: url is required", shared.ErrInvalidInput)
	}
	return nil
}

// ValidatePrompt rejects prompts that are empty after trimming whitespace.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return shared.ErrEmptyPrompt
	}
	return nil
}

// StoredItem is a gallery row as remote stores read and write it.
type StoredItem struct {
	ID         int64     `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	Type       MediaType `json:"type"`
	Prompt     string    `json:"prompt"`
	URL        string    `json:"url"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// MediaItem maps storage naming to the in-app shape.
func (s StoredItem) MediaItem() MediaItem {
	return MediaItem{
		ID:         s.ID,
		Type:       s.Type,
		Prompt:     s.Prompt,
		URL:        s.URL,
		IsFavorite: s.IsFavorite,
	}
}

// NewStoredItem maps an in-app item to the row inserted for userID.
func NewStoredItem(item MediaItem, userID string) StoredItem {
	return StoredItem{
		ID:         item.ID,
		UserID:     userID,
		Type:       item.Type,
		Prompt:     item.Prompt,
		URL:        item.URL,
		IsFavorite: item.IsFavorite,
	}
}
