package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/rivora/internal/shared"
)

// FilterType selects which media types a gallery view shows.
type FilterType string

const (
	FilterAll   FilterType = "All"
	FilterImage FilterType = "Image"
	FilterVideo FilterType = "Video"
	FilterText  FilterType = "Text"
)

// FilterTypes lists the chips in display order.
var FilterTypes = []FilterType{FilterAll, FilterImage, FilterVideo, FilterText}

// ParseFilterType treats an empty string as [FilterAll].
func ParseFilterType(s string) (FilterType, error) {
	if strings.TrimSpace(s) == "" || strings.EqualFold(s, string(FilterAll)) {
		return FilterAll, nil
	}
	t, err := ParseMediaType(s)
	if err != nil {
		return "", fmt.Errorf("%w: unknown filter %q", shared.ErrInvalidInput, s)
	}
	return FilterType(t), nil
}

// Next cycles through [FilterTypes].
func (f FilterType) Next() FilterType {
	for i, t := range FilterTypes {
		if t == f {
			return FilterTypes[(i+1)%len(FilterTypes)]
		}
	}
	return FilterAll
}

// Filter is a gallery view selection.
type Filter struct {
	Type          FilterType
	FavoritesOnly bool
}

// Match reports whether item is visible under f.
func (f Filter) Match(item MediaItem) bool {
	if f.FavoritesOnly && !item.IsFavorite {
		return false
	}
	if f.Type == "" || f.Type == FilterAll {
		return true
	}
	return string(item.Type) == string(f.Type)
}

// Apply returns the matching items in their original order.
func (f Filter) Apply(items []MediaItem) []MediaItem {
	out := make([]MediaItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

func (f Filter) String() string {
	t := f.Type
	if t == "" {
		t = FilterAll
	}
	if f.FavoritesOnly {
		return string(t) + " (favorites)"
	}
	return string(t)
}
