package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillgate/interviewd/internal/domain/scoring"
)

func answersWithScores(overall ...float64) ([]scoring.AnswerInput, []scoring.AnswerScore) {
	answers := make([]scoring.AnswerInput, len(overall))
	scores := make([]scoring.AnswerScore, len(overall))
	for i, v := range overall {
		answers[i] = scoring.AnswerInput{Sentences: 5, DurationSeconds: 60}
		scores[i] = scoring.AnswerScore{Overall: v}
	}
	return answers, scores
}

func TestSessionRollup_Mean(t *testing.T) {
	answers, scores := answersWithScores(70, 80, 90)

	result, err := scoring.SessionRollup(answers, scores, scoring.DefaultRules())
	require.NoError(t, err)
	require.InDelta(t, 80.0, result.Mean, 1e-9)
	require.InDelta(t, 80.0, result.Session, 1e-9)
	require.Empty(t, result.AppliedRules)
}

func TestSessionRollup_ConciseBonus(t *testing.T) {
	answers, scores := answersWithScores(80, 80)
	for i := range answers {
		answers[i].Sentences = 2
		answers[i].DurationSeconds = 30
	}

	result, err := scoring.SessionRollup(answers, scores, scoring.DefaultRules())
	require.NoError(t, err)
	require.InDelta(t, 83.0, result.Session, 1e-9)
	require.Contains(t, result.AppliedRules, "concise_answers")
}

func TestSessionRollup_ContradictionPenalty(t *testing.T) {
	answers, scores := answersWithScores(80, 80)
	answers[0].Contradictions = 1
	answers[1].Contradictions = 1

	result, err := scoring.SessionRollup(answers, scores, scoring.DefaultRules())
	require.NoError(t, err)
	require.InDelta(t, 75.0, result.Session, 1e-9)
	require.Contains(t, result.AppliedRules, "major_contradictions")
}

func TestSessionRollup_Clamped(t *testing.T) {
	answers, scores := answersWithScores(99, 99)
	for i := range answers {
		answers[i].Sentences = 1
		answers[i].DurationSeconds = 10
	}

	result, err := scoring.SessionRollup(answers, scores, scoring.DefaultRules())
	require.NoError(t, err)
	require.Equal(t, 100.0, result.Session)

	answers, scores = answersWithScores(1, 1)
	answers[0].Contradictions = 2
	result, err = scoring.SessionRollup(answers, scores, scoring.DefaultRules())
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Session)
}

func TestSessionRollup_Empty(t *testing.T) {
	_, err := scoring.SessionRollup(nil, nil, scoring.DefaultRules())
	require.ErrorIs(t, err, scoring.ErrNoAnswers)
}
