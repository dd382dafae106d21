package rate

import "errors"

var (
	// ErrRateLimited is returned when a key exceeded its request budget for the current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidConfig is returned by New for non-positive limits or durations.
	ErrInvalidConfig = errors.New("invalid rate limit configuration")
)
