package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillgate/interviewd/internal/domain/scoring"
)

func TestCheckConsistency_WithinLimits(t *testing.T) {
	lim := scoring.DefaultConsistencyLimits()

	warnings := scoring.CheckConsistency(60, 70, lim)
	require.Empty(t, warnings)
}

func TestCheckConsistency_Discrepancy(t *testing.T) {
	lim := scoring.DefaultConsistencyLimits()

	warnings := scoring.CheckConsistency(50, 70, lim)
	require.Len(t, warnings, 1)
	require.Equal(t, scoring.WarnDiscrepancy, warnings[0].Level)
	require.InDelta(t, 20.0, warnings[0].Discrepancy, 1e-9)
}

func TestCheckConsistency_HighPerformerDrift(t *testing.T) {
	lim := scoring.DefaultConsistencyLimits()

	// Mean 80 vs holistic 68: gap 12 is under the general warning threshold
	// but over the tighter high-performer bound.
	warnings := scoring.CheckConsistency(80, 68, lim)
	require.Len(t, warnings, 1)
	require.Equal(t, scoring.WarnDrift, warnings[0].Level)

	// A large gap on a high performer trips both levels.
	warnings = scoring.CheckConsistency(80, 60, lim)
	require.Len(t, warnings, 2)
	require.Equal(t, scoring.WarnDiscrepancy, warnings[0].Level)
	require.Equal(t, scoring.WarnDrift, warnings[1].Level)

	// The same gap on a low performer only trips the general threshold.
	warnings = scoring.CheckConsistency(60, 40, lim)
	require.Len(t, warnings, 1)
	require.Equal(t, scoring.WarnDiscrepancy, warnings[0].Level)
}
