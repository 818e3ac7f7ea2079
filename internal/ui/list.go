package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
)

var _ list.Item = mediaItem{}

// mediaItem wraps [models.MediaItem] to implement [list.Item].
type mediaItem struct {
	item models.MediaItem
}

func (i mediaItem) FilterValue() string { return i.item.Prompt }

func (i mediaItem) Title() string {
	title := shared.Truncate(i.item.Prompt, 60)
	if i.item.IsFavorite {
		return "★ " + title
	}
	return title
}

func (i mediaItem) Description() string {
	if content, ok := i.item.Text(); ok {
		preview := strings.Join(strings.Fields(content), " ")
		return fmt.Sprintf("%s • %s", i.item.Type, shared.Truncate(preview, 60))
	}
	return fmt.Sprintf("%s • %s", i.item.Type, i.item.URL)
}

func toListItems(items []models.MediaItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, item := range items {
		out[i] = mediaItem{item: item}
	}
	return out
}
