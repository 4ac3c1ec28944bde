package evidlit

import "github.com/evidlit/evidlit/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound             = domain.ErrNotFound
	ErrAlreadyExists        = domain.ErrAlreadyExists
	ErrBundleNotFound       = domain.ErrBundleNotFound
	ErrAborted              = domain.ErrAborted
	ErrSearchLocked         = domain.ErrSearchLocked
	ErrGatewayUnavailable   = domain.ErrGatewayUnavailable
	ErrSummaryCountMismatch = domain.ErrSummaryCountMismatch
	ErrUnauthenticated      = domain.ErrUnauthenticated
	ErrEmptyQuery           = domain.ErrEmptyQuery
)
