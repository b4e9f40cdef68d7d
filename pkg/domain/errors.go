package domain

import "errors"

// Sentinel errors shared across the state manager, stores, and the HTTP
// layer. Handlers map these to status codes with errors.Is.
var (
	// ErrNotFound indicates a session or node that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyTopic indicates a session create request with a blank topic.
	ErrEmptyTopic = errors.New("topic must not be empty")
	// ErrRootConcept indicates an attempt to mark the root topic itself
	// as known or unknown.
	ErrRootConcept = errors.New("root concept cannot be marked")
	// ErrUnknownConcept indicates a node reference outside the session's map.
	ErrUnknownConcept = errors.New("concept not in session")
	// ErrMalformedImport indicates an import payload that is not a valid
	// exported session.
	ErrMalformedImport = errors.New("malformed session import")
	// ErrGenerationFailed indicates the language model did not produce a
	// usable response after all retries.
	ErrGenerationFailed = errors.New("generation failed")
)
