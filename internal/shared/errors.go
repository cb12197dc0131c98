package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Metadata API errors
	ErrUpstreamUnavailable = fmt.Errorf("upstream unavailable")
	ErrChannelNotFound     = fmt.Errorf("channel not found")

	// Capture errors
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrCaptureFailed  = fmt.Errorf("capture failed")
	ErrPublishFailed  = fmt.Errorf("publish failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
