package interview

import "strings"

// ValidateTransition enforces monotonic forward transitions:
// scheduled -> in_progress -> {completed, failed}. Scheduled interviews may
// also fail directly (reservation abandoned before start).
func ValidateTransition(from, to Status, failureReason *string) error {
	valid := false
	switch from {
	case StatusScheduled:
		if to == StatusInProgress || to == StatusFailed {
			valid = true
		}
	case StatusInProgress:
		if to == StatusCompleted || to == StatusFailed {
			valid = true
		}
	}

	if !valid {
		return ErrInvalidTransition
	}

	if to == StatusFailed {
		if failureReason == nil || strings.TrimSpace(*failureReason) == "" {
			return ErrMissingReason
		}
	}

	return nil
}
