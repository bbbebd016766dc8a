package types

import "errors"

// Domain errors shared across components.
var (
	ErrMissingID        = errors.New("procedure id is required")
	ErrEmptyDefinition  = errors.New("procedure definition cannot be empty")
	ErrUnknownComponent = errors.New("unknown component kind")
)
