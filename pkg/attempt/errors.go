package attempt

import "errors"

var (
	ErrNotStarted       = errors.New("attempt not started")
	ErrAlreadyStarted   = errors.New("attempt already started")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrNotCompleted     = errors.New("attempt has no results yet")
	ErrUnknownQuestion  = errors.New("question does not belong to this quiz")
	ErrClosed           = errors.New("attempt session closed")
	ErrEmptyResponse    = errors.New("backend returned an empty response")
)
