// Package tasks runs generation submissions with real-time progress reporting.
//
// # Submission Lifecycle
//
// [SubmissionController] owns at most one outstanding generation request. A submission moves through:
//
//  1. [Validating] : The prompt must be non-blank and no other submission may be in flight
//  2. [Submitting] : Exactly one call to the [services.Generator]
//  3. [Classifying] : The response is turned into a [models.Draft] (url, then text, then json)
//  4. [Persisting] : Exactly one call to the gallery's AddItem
//
// and ends in [Succeeded] (prompt and attachment cleared) or [Failed] (inputs kept for a retry).
// Both terminal states return to [Idle] before Submit returns; [SubmissionController.LastOutcome] keeps the last one.
//
// A second Submit while one is outstanding fails immediately with [shared.ErrSubmissionInFlight]; it is never queued.
//
// # Attachments
//
// [SubmissionController.Attach] rejects files larger than [MaxAttachmentBytes] before they can reach the generator.
// [NewFileAttachment] builds an attachment from a path on disk.
//
// # Progress Reporting
//
// Submit and Generate accept an optional channel of [ProgressUpdate] values.
// Updates use select with default so a slow reader never blocks a submission.
//
// # User Messages
//
// [UserMessage] converts an error into the text shown to the user. Connectivity failures get a dedicated message,
// worded differently when the generation succeeded but saving it did not; other failures pass the collaborator's
// message through.
package tasks
