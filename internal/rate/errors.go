package rate

import "errors"

var (
	// ErrInvalidRule indicates a rule with a non-positive budget or window.
	ErrInvalidRule = errors.New("invalid rate limit rule")
	// ErrCounterUnavailable indicates the counter backend is unreachable.
	ErrCounterUnavailable = errors.New("rate counter backend unavailable")
)
