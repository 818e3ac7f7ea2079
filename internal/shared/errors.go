package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrAuthRequired     = fmt.Errorf("authentication required")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest           = fmt.Errorf("API request failed")
	ErrNetwork              = fmt.Errorf("network error")
	ErrServiceUnavailable   = fmt.Errorf("service unavailable")
	ErrUnrecognizedResponse = fmt.Errorf("invalid response from generation service")
	ErrItemNotFound         = fmt.Errorf("item not found")
	ErrUserNotFound         = fmt.Errorf("user not found")

	// Submission errors
	ErrEmptyPrompt        = fmt.Errorf("prompt is required")
	ErrSubmissionInFlight = fmt.Errorf("a generation is already in progress")
	ErrFileTooLarge       = fmt.Errorf("file is too large")
	ErrSaveFailed         = fmt.Errorf("failed to save generation")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
