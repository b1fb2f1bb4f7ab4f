package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals an empty or malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRetrievalFailed signals a retrieval back-end query failure.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrCacheUnavailable signals a cache store failure. Never propagated
	// to callers; cache reads degrade to misses and writes to no-ops.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Reason is the machine-readable failure class of a search request.
type Reason string

// Search failure reason codes.
const (
	ReasonInvalidQuery      Reason = "invalid_query"
	ReasonEmbeddingFailure  Reason = "embedding_failure"
	ReasonSemanticRetrieval Reason = "retrieval_failure_semantic"
	ReasonKeywordRetrieval  Reason = "retrieval_failure_keyword"
)

// SearchError carries a reason code alongside the underlying failure so
// transports can distinguish bad input from upstream unavailability.
type SearchError struct {
	Reason Reason
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed (%s): %v", e.Reason, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// NewSearchError wraps err with a reason code.
func NewSearchError(reason Reason, err error) *SearchError {
	return &SearchError{Reason: reason, Err: err}
}

// ReasonOf extracts the reason code from err, or empty if err is not a SearchError.
func ReasonOf(err error) Reason {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}
