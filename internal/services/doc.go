// Package services defines clients for the external HTTP collaborators: the generation webhook,
// the hosted backend and a raw API helper for the local server.
//
// # Generation Webhook
//
// [WebhookService] implements [Generator]. Each call posts one multipart form (prompt, generationType and an
// optional file part) and waits for a JSON reply. Calls are paced by a [rate.Limiter] so a stuck UI or script
// cannot flood the webhook.
//
// Replies are classified by [ClassifyResponse]:
//   - url: the artifact lives at a URL and keeps the requested media type
//   - text: inline text, stored as a Text item
//   - json: any object or array, pretty-printed and stored as a Text item
//
// Anything else is [shared.ErrUnrecognizedResponse].
//
// # Hosted Backend
//
// [BackendService] covers password auth (sign in, sign up, current user, sign out) and the generations table.
// Table calls authenticate with the session's access token through an [oauth2.Transport];
// an expired token is refreshed with the stored refresh token before the request is sent.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNetwork] : the request never got a response (DNS, refused, timeout)
//   - [shared.ErrAuthFailed] : bad credentials
//   - [shared.ErrNotAuthenticated] : the session was rejected or could not be refreshed
//   - [shared.ErrAPIRequest] : non-2xx status
//   - [shared.ErrUnrecognizedResponse] : webhook reply without a usable artifact
package services
