package rate

import "errors"

var (
	// ErrRateLimited is returned once the attempt budget for the window is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps backend failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
