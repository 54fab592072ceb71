package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for lookups and storage failures outside the pure fight core.
var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnknownTarget      = errors.New("unknown target")
	ErrUnknownSequence    = errors.New("unknown sequence")
	ErrUnknownPreset      = errors.New("unknown attack preset")
	ErrStorageUnavailable = errors.New("storage write failed")
)
