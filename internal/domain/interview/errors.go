package interview

import "errors"

var (
	// ErrInterviewNotFound indicates the interview doesn't exist.
	ErrInterviewNotFound = errors.New("interview not found")
	// ErrInvalidTransition indicates a backward or skipping status transition.
	ErrInvalidTransition = errors.New("invalid interview status transition")
	// ErrMissingReason indicates a failure was requested without a reason.
	ErrMissingReason = errors.New("failure reason required")
	// ErrInvalidInput indicates invalid input for interview operations.
	ErrInvalidInput = errors.New("invalid interview input")
)
