// Package repositories implements SQLite persistence for local development and offline use.
//
// Key Implementations:
//   - [GenerationRepository] : The generations table; satisfies gallery.RemoteStore so the gallery can run without the
//     hosted backend
//   - [UserRepository] : Local accounts with email-based lookups, used by "auth login --local"
//
// Users are soft deleted via a deleted_at timestamp and hidden from lookups. Generations have no delete path, so
// their table carries no tombstone column.
//
// Timestamps are written in UTC so text ordering in SQLite matches chronological ordering.
package repositories
