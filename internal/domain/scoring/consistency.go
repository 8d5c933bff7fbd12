package scoring

import (
	"fmt"
	"math"
)

// ConsistencyLimits bound the acceptable gap between the per-answer mean and
// a separately computed holistic score.
type ConsistencyLimits struct {
	// WarningThreshold is the discrepancy above which a warning is emitted.
	WarningThreshold float64 `json:"warning_threshold" yaml:"warning_threshold"`
	// MaxDiscrepancy is the tighter bound applied to high performers.
	MaxDiscrepancy float64 `json:"max_discrepancy" yaml:"max_discrepancy"`
	// HighPerformerFloor is the per-answer mean at which the tight bound kicks in.
	HighPerformerFloor float64 `json:"high_performer_floor" yaml:"high_performer_floor"`
}

// DefaultConsistencyLimits returns the observed defaults (15 / 10 / 75).
func DefaultConsistencyLimits() ConsistencyLimits {
	return ConsistencyLimits{
		WarningThreshold:   15,
		MaxDiscrepancy:     10,
		HighPerformerFloor: 75,
	}
}

// Warning levels, weakest first.
const (
	WarnDiscrepancy = "discrepancy"
	WarnDrift       = "evaluator_drift"
)

// ConsistencyWarning flags a suspicious gap between scoring passes. It is a
// detection signal only; neither score is ever corrected.
type ConsistencyWarning struct {
	Level       string  `json:"level"`
	Discrepancy float64 `json:"discrepancy"`
	Message     string  `json:"message"`
}

// CheckConsistency compares the per-answer mean against the holistic score.
// A gap above WarningThreshold yields a discrepancy warning; for high
// performers a gap above MaxDiscrepancy additionally yields a drift warning.
func CheckConsistency(perAnswerMean, holistic float64, lim ConsistencyLimits) []ConsistencyWarning {
	discrepancy := math.Abs(perAnswerMean - holistic)

	var warnings []ConsistencyWarning
	if discrepancy > lim.WarningThreshold {
		warnings = append(warnings, ConsistencyWarning{
			Level:       WarnDiscrepancy,
			Discrepancy: discrepancy,
			Message: fmt.Sprintf("per-answer mean %.1f and holistic score %.1f differ by %.1f (threshold %.1f)",
				perAnswerMean, holistic, discrepancy, lim.WarningThreshold),
		})
	}
	if perAnswerMean >= lim.HighPerformerFloor && discrepancy > lim.MaxDiscrepancy {
		warnings = append(warnings, ConsistencyWarning{
			Level:       WarnDrift,
			Discrepancy: discrepancy,
			Message: fmt.Sprintf("high performer (mean %.1f) with discrepancy %.1f exceeds max %.1f; possible evaluator drift",
				perAnswerMean, discrepancy, lim.MaxDiscrepancy),
		})
	}
	return warnings
}
