package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rivora/internal/gallery"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgGalleryLoaded MsgKind = iota
	MsgStoreEvent
	MsgProgressUpdate
	MsgSubmissionComplete
	MsgFavoriteToggled
)

type submitResult struct {
	item models.MediaItem
	err  error
}

// galleryLoadedMsg is the constructor for [MsgGalleryLoaded]
func galleryLoadedMsg(err error) Msg {
	return Msg{kind: MsgGalleryLoaded, data: err}
}

// storeEventMsg is the constructor for [MsgStoreEvent]
func storeEventMsg(e gallery.Event) Msg {
	return Msg{kind: MsgStoreEvent, data: e}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// submissionCompleteMsg is the constructor for [MsgSubmissionComplete]
func submissionCompleteMsg(result submitResult) Msg {
	return Msg{kind: MsgSubmissionComplete, data: result}
}

// favoriteToggledMsg is the constructor for [MsgFavoriteToggled]
func favoriteToggledMsg(err error) Msg {
	return Msg{kind: MsgFavoriteToggled, data: err}
}

// errData extracts an optional error payload.
func errData(msg Msg) error {
	err, _ := msg.data.(error)
	return err
}
