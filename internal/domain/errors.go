package domain

import "errors"

// Sentinel errors forming the run-level error taxonomy. Collaborator adapters
// wrap these with fmt.Errorf("...: %w", ...); callers match with errors.Is.
var (
	// ErrCityNotFound means the requested city id has no registered city.
	ErrCityNotFound = errors.New("city not found")

	// ErrInvalidRange means a date is missing, malformed, or start > end.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrUpstreamUnavailable covers every event-catalog failure: transport
	// errors, non-success statuses, and undecodable bodies alike.
	ErrUpstreamUnavailable = errors.New("earthquake catalog unavailable")

	// ErrDuplicateRange is returned by a store insert whose range overlaps
	// an existing entry for the same city. Racing writers treat it as
	// benign and re-reconcile.
	ErrDuplicateRange = errors.New("cache range overlaps an existing entry")

	// ErrCacheIntegrity means overlapping entries were observed in the
	// store, which a correct writer can never produce. Fatal for the run.
	ErrCacheIntegrity = errors.New("cache integrity violation")
)
