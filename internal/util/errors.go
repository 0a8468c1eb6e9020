package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptAlreadyDone   = errors.New("attempt already submitted")
	ErrSubmitInProgress     = errors.New("attempt submission already in progress")
	ErrFlashcardSetNotFound = errors.New("flashcard set not found")
	ErrUploadNotFound       = errors.New("upload not found")
	ErrNoFiles              = errors.New("no files provided")
	ErrTooManyFiles         = errors.New("too many files in one batch")
	ErrUnknownPrice         = errors.New("unknown price id")
	ErrInvalidBillingPeriod = errors.New("billingPeriod must be monthly or yearly")
	ErrInvalidQuestion      = errors.New("invalid question definition")
)
