package history

import "errors"

// Sentinel kinds for history errors.
var (
	ErrDisabled      = errors.New("snapshot history disabled")
	ErrInvalidLimit  = errors.New("invalid history limit")
	ErrCountOverflow = errors.New("metric count exceeds storage range")
)
