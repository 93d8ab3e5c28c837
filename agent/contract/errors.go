package contract

import "errors"

var (
	ErrRemoteCall      = errors.New("remote text generation failed")
	ErrEmptyCompletion = errors.New("remote completion has no content")
	ErrPersistence     = errors.New("persistence failed")
	ErrInvalidAmount   = errors.New("amount must be > 0")
	ErrInvalidStep     = errors.New("step out of bounds")
	ErrValidation      = errors.New("validation failed")
)
