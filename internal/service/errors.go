package service

import "fmt"

// TokenExchangeError means the authorization code could not be turned into an
// access token. Not retried beyond the transport layer.
type TokenExchangeError struct {
	Detail string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %s", e.Detail)
}

// ProfileFetchError means the bearer-token profile request failed.
type ProfileFetchError struct {
	Detail string
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("profile fetch failed: %s", e.Detail)
}

// MediaUploadError identifies which file of a publish batch failed. The batch
// is aborted at that index; no partial asset list is returned.
type MediaUploadError struct {
	Index  int
	Detail string
	Cause  error
}

func (e *MediaUploadError) Error() string {
	return fmt.Sprintf("upload of image %d failed: %s", e.Index+1, e.Detail)
}

func (e *MediaUploadError) Unwrap() error { return e.Cause }

// PublishRejected is a terminal application-level rejection from the platform
// (bad token, policy violation). Retrying would not help and the publish call
// is never repeated.
type PublishRejected struct {
	Status int
	Detail string
}

func (e *PublishRejected) Error() string {
	return fmt.Sprintf("post rejected by platform (status %d): %s", e.Status, e.Detail)
}

type GenerationErrorKind int

const (
	// GenerationCallerError covers bad input such as an unknown length category.
	GenerationCallerError GenerationErrorKind = iota
	// GenerationBackendError covers failures of the model backend itself.
	GenerationBackendError
)

type GenerationError struct {
	Kind   GenerationErrorKind
	Detail string
	Cause  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %s", e.Detail)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// PersistenceError wraps a store-layer failure. It is tolerated (logged only)
// during the OAuth identity upsert and surfaced everywhere else.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// ValidationError is a caller error caught at the boundary, before any
// network call is made.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// NotFoundError maps to a client-facing 404.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}
