package apperr

import "errors"

// Sentinels for the failure modes the gateway distinguishes. Callers wrap
// them with fmt.Errorf("...: %w", ...) and match with errors.Is.
var (
	// ErrNotConfigured means no usable credential exists for a provider.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrProviderFailure covers upstream LLM network/timeout/rate-limit and
	// malformed-response failures.
	ErrProviderFailure = errors.New("provider failure")
	// ErrToolExecution is a tool handler failure. The registry converts these
	// into structured {error} results; the sentinel exists for callers that
	// need to classify a wrapped handler error.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrValidation is missing or malformed caller input.
	ErrValidation = errors.New("invalid input")
	// ErrForbidden is an ownership mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is an unknown thread, tool, or resource.
	ErrNotFound = errors.New("not found")
	// ErrLoopBoundExceeded means the agent loop hit its round-trip cap.
	ErrLoopBoundExceeded = errors.New("agent loop bound exceeded")
	// ErrPersistence is a storage layer failure.
	ErrPersistence = errors.New("persistence failure")
)
