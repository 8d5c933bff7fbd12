package scoring

// Rule is a declarative bonus/penalty over the whole answer set. Points are
// signed: positive for a bonus, negative for a penalty.
type Rule struct {
	Name   string
	Points float64
	When   func(answers []AnswerInput, scores []AnswerScore) bool
}

// DefaultRules returns the built-in session adjustment rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "concise_answers",
			Points: 3,
			When: func(answers []AnswerInput, _ []AnswerScore) bool {
				if len(answers) == 0 {
					return false
				}
				for _, a := range answers {
					if a.Sentences > 2 || a.DurationSeconds > 35 {
						return false
					}
				}
				return true
			},
		},
		{
			Name:   "major_contradictions",
			Points: -5,
			When: func(answers []AnswerInput, _ []AnswerScore) bool {
				total := 0
				for _, a := range answers {
					total += a.Contradictions
				}
				return total >= 2
			},
		},
	}
}

// RollupResult is the session-level aggregation of answer scores.
type RollupResult struct {
	Mean         float64  `json:"mean"`
	Session      float64  `json:"session"`
	AppliedRules []string `json:"applied_rules,omitempty"`
}

// SessionRollup averages answer scores, applies every matching rule, and
// clamps the result to [0, 100]. The unadjusted mean is preserved for the
// consistency check.
func SessionRollup(answers []AnswerInput, scores []AnswerScore, rules []Rule) (RollupResult, error) {
	if len(scores) == 0 {
		return RollupResult{}, ErrNoAnswers
	}

	sum := 0.0
	for _, s := range scores {
		sum += s.Overall
	}
	mean := sum / float64(len(scores))

	session := mean
	var applied []string
	for _, rule := range rules {
		if rule.When != nil && rule.When(answers, scores) {
			session += rule.Points
			applied = append(applied, rule.Name)
		}
	}

	return RollupResult{
		Mean:         mean,
		Session:      Clamp(session),
		AppliedRules: applied,
	}, nil
}

// Clamp bounds a score to [0, 100].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
