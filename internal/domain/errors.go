package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSessionNotFound is returned when a follow-up references an unknown or expired session
	ErrSessionNotFound = errors.New("session not found")

	// ErrLLMFailure is returned when a request to the LLM service fails
	ErrLLMFailure = errors.New("LLM request failed")

	// ErrScraperFailure is returned when the product source request fails
	ErrScraperFailure = errors.New("product source request failed")

	// ErrUnparsableQuery is returned when the LLM response cannot be decoded
	// into a structured query
	ErrUnparsableQuery = errors.New("could not parse query")
)
