package bookability

import "errors"

// Sentinel kinds for input validation errors.
var (
	ErrNegativeCount = errors.New("count must not be negative")
)
