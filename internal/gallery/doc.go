// Package gallery holds the in-process cache of a user's generated media.
//
// A [Store] is created once per process with [New] and passed to every consumer (CLI commands, the TUI, the local HTTP API).
// It is synchronized with a [RemoteStore] and is the only writer of the item list.
//
// # Optimistic Updates
//
// [Store.AddItem] and [Store.ToggleFavorite] change the local list first so readers see the result immediately,
// then write to the remote store without holding the store lock.
// When the remote write fails the exact previous state is restored:
//   - a failed insert removes the item it added, matched by its local id
//   - a failed toggle restores the favorite flag it replaced
//
// Toggles on the same id are serialized; toggles on different ids run concurrently.
//
// # Loading
//
// [Store.Load] replaces the list for an identity. Each call takes a ticket and only the newest ticket may apply its
// result, so a slow fetch for a previous identity never overwrites the current list.
//
// # Events
//
// [Store.Subscribe] returns a channel of [Event] values. Sends never block; a subscriber that falls behind misses events
// and should re-read [Store.Items].
package gallery
