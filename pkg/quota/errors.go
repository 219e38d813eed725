package quota

import "errors"

// Package-level error definitions for quota operations.
var (
	ErrInvalidConfig    = errors.New("invalid quota configuration")
	ErrStoreUnavailable = errors.New("quota store unavailable")
)
