package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNotFitted       = errors.New("model not fitted")
	ErrLengthMismatch  = errors.New("length mismatch")
	ErrLabelOutOfRange = errors.New("label out of range")
	ErrEmptyCorpus     = errors.New("empty corpus")
)
