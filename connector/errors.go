package connector

import "errors"

var (
	// ErrNoFetchers is returned when a Manager is created without fetchers.
	ErrNoFetchers = errors.New("at least one fetcher required")

	// ErrUpstream indicates a job board returned an unusable response.
	ErrUpstream = errors.New("upstream job board error")

	// ErrUnauthorized indicates a job board rejected the configured credentials.
	ErrUnauthorized = errors.New("job board rejected credentials")

	// ErrMissingCredentials is returned when a connector that needs keys has none.
	ErrMissingCredentials = errors.New("connector credentials missing")
)
