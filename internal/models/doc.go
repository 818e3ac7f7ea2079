// Package models defines the domain types shared by the gallery, the submission controller and the remote stores.
//
// The package contains three categories of types:
//
// 1. Gallery entries
//   - [MediaItem] : A generated artifact as the application sees it
//   - [Draft] : A classified generation result that has not been stored yet
//   - [StoredItem] : The row shape used by remote stores (snake_case columns)
//
// 2. Session and presentation
//   - [Identity] : The signed-in user; the zero value means nobody is signed in
//   - [Filter] : Gallery view selection (type chips and favorites-only)
//   - [Plan] : Subscription plan listing
//
// 3. Uploads
//   - [Attachment] : An optional reference file sent along with a prompt
//
// Text results have no hosted url, so their content is embedded in the url field behind [TextPrefix].
package models
