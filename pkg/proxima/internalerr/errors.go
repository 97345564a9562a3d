package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUnknownTag is returned when a part-of-speech tag is not part of the
	// Penn Treebank tag set.
	ErrUnknownTag = errors.New("unknown part-of-speech tag")

	// ErrUnknownMetadataKey is returned when no document carries the requested key.
	ErrUnknownMetadataKey = errors.New("unknown metadata key")

	// ErrInsufficientWindow marks a document whose occurrence spacing is too
	// tight for the lower-bound window heuristic.
	ErrInsufficientWindow = errors.New("lower window bound less than 5")
)
