package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrBundleNotFound signals a cache miss for a (user, query) pair.
	ErrBundleNotFound = errors.New("result bundle not found")
	// ErrAborted signals a cooperatively cancelled search.
	ErrAborted = errors.New("search aborted")
	// ErrSearchLocked signals that a pipeline is already running.
	ErrSearchLocked = errors.New("search locked")
	// ErrGatewayUnavailable signals a search gateway transport or HTTP failure.
	ErrGatewayUnavailable = errors.New("search gateway unavailable")
	// ErrSummaryCountMismatch signals a per-document summary response whose
	// length does not match the request document list.
	ErrSummaryCountMismatch = errors.New("document summary count mismatch")
	// ErrUnauthenticated signals a request without a resolvable user identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrEmptyQuery signals a search trigger with an empty query string.
	ErrEmptyQuery = errors.New("empty query")
)
