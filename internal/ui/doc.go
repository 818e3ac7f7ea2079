// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [GalleryView] : Browse generations with type chips and a favorites-only toggle
//  2. [PromptView] : Enter a prompt, pick Image or Video, optionally attach a reference file
//  3. [PlansView] : Subscription plan listing
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// The gallery list is redrawn from store events delivered through [gallery.Store.Subscribe], so optimistic inserts,
// favorite flips and their rollbacks show up without polling. Submission progress flows through a channel from the
// [tasks.SubmissionController], the same way the CLI reports it.
package ui
