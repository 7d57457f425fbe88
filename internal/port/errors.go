package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrEmptyQuery          = errors.New("query must not be empty")
	ErrEmptyText           = errors.New("text must not be empty")
	ErrInvalidEntityType   = errors.New("invalid entity type")
	ErrMissingEntityID     = errors.New("entity_id is required")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrEmptyResponse       = errors.New("provider returned empty response")
)
