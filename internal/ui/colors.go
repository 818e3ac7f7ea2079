package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF4F4F", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title      lipgloss.Style
	ok         lipgloss.Style
	err        lipgloss.Style
	warn       lipgloss.Style
	help       lipgloss.Style
	chip       lipgloss.Style
	chipActive lipgloss.Style
	card       lipgloss.Style
	popular    lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:      NewBold(t).MarginBottom(1),
		ok:         NewBold(s),
		err:        NewBold(e),
		warn:       NewStyle(w),
		help:       NewEm(h),
		chip:       NewStyle(h).Padding(0, 1),
		chipActive: NewBold("#FFFFFF").Background(lipgloss.Color(t)).Padding(0, 1),
		card:       NewCard(h),
		popular:    NewCard(t),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// NewCard is a rounded box with a border in the given color.
func NewCard(border string) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		MarginRight(1).
		Width(28)
}
