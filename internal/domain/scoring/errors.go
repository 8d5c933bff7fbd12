package scoring

import "errors"

var (
	// ErrInvalidWeights indicates a weight set that does not sum to 1.0.
	ErrInvalidWeights = errors.New("weights must sum to 1.0")
	// ErrOutOfRange indicates a sub-score outside [0, 100].
	ErrOutOfRange = errors.New("score out of range [0, 100]")
	// ErrNoAnswers indicates a rollup was requested over an empty answer set.
	ErrNoAnswers = errors.New("no answer scores to roll up")
	// ErrInvalidThresholds indicates a non-monotonic or mismatched threshold set.
	ErrInvalidThresholds = errors.New("invalid decision thresholds")
)
