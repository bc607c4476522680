package engine

import "errors"

// Degradations. None of them reach the client; they classify why a request
// produced no result.
var (
	// ErrNoEngine indicates the document has no owning engine.
	ErrNoEngine = errors.New("engine: no engine for document")

	// ErrStaleCorrelation indicates a resolve request lost its origin document.
	ErrStaleCorrelation = errors.New("engine: correlation data missing")

	// ErrCancelled indicates a fan-out was abandoned.
	ErrCancelled = errors.New("engine: request cancelled")

	// ErrConfigurationUnavailable indicates the client did not answer a
	// configuration request.
	ErrConfigurationUnavailable = errors.New("engine: configuration unavailable")
)
