package service

import "errors"

var (
	ErrEmptyEntityID    = errors.New("no entity ID provided")
	ErrMissingPayload   = errors.New("no payload provided")
	ErrPayloadOnDelete  = errors.New("delete mutations must not carry a payload")
	ErrUnknownOperation = errors.New("unknown operation")

	ErrInvalidResolutionChoice = errors.New("invalid resolution choice")
	ErrMissingMergedPayload    = errors.New("merged resolution requires a payload")
)
