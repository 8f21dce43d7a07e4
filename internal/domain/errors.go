package domain

import "errors"

// Sentinel errors for the client layers. Callers match these with
// errors.Is; the wrapped message carries the user-facing detail.
var (
	// Send preconditions, raised before any network I/O.
	ErrEmptyQuery        = errors.New("query cannot be empty")
	ErrModelNotSupported = errors.New("model not supported")
	ErrAPIKeyRequired    = errors.New("API key required for this model")

	// Extractor.
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")

	// Transport, mapped from backend responses.
	ErrTimeout      = errors.New("request timeout, please try again")
	ErrRateLimited  = errors.New("too many requests, please slow down")
	ErrServer       = errors.New("server error, please retry later")
	ErrUnauthorized = errors.New("session expired, please log in again")
	ErrNetwork      = errors.New("cannot reach server, check your connection")
)
