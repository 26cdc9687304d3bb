package apperrors

import "errors"

// Failure kinds surfaced by the aggregation engine. Callers classify with
// errors.Is; lower layers wrap these with context instead of logging.
var (
	// ErrNotFound indicates that a ticker could not be resolved to a
	// registry identifier, or that a requested accession number does not
	// exist in the listed filing set.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable indicates that all retries were exhausted
	// against a transient fault, or that the circuit breaker is open.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamDataInvalid indicates that a successful HTTP call returned
	// a payload missing required fields, such as an empty result array or a
	// null module block.
	ErrUpstreamDataInvalid = errors.New("upstream data invalid")

	// ErrParseFailure indicates that semi-structured content (a filing
	// index page, a statement document) could not be interpreted.
	ErrParseFailure = errors.New("parse failure")
)
