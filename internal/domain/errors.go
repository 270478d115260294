package domain

import "errors"

var (
	// ErrStoreUnavailable is returned when the store file or the products table cannot be reached
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSchema is returned when the store structure is not what the adapter expects
	ErrSchema = errors.New("unexpected store schema")

	// ErrQuery is returned when a statement against the store fails
	ErrQuery = errors.New("store query failed")

	// ErrMalformedValue marks a single field that could not be parsed.
	// It is recovered locally and never aborts a batch.
	ErrMalformedValue = errors.New("malformed value")

	// ErrProductNotFound is returned when a product id does not exist
	ErrProductNotFound = errors.New("product not found")

	// ErrObservationNotFound is returned when an observation id does not exist
	ErrObservationNotFound = errors.New("observation not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
