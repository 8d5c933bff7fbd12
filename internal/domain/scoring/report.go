package scoring

import (
	"fmt"
	"sort"
)

// Report is the immutable final scoring output stored on a completed interview.
type Report struct {
	Decision   string               `json:"decision"`
	Overall    float64              `json:"overall"`
	Dimensions map[string]float64   `json:"dimensions"`
	Summary    string               `json:"summary"`
	Strengths  []string             `json:"strengths"`
	Weaknesses []string             `json:"weaknesses"`
	Warnings   []ConsistencyWarning `json:"warnings,omitempty"`
}

// Options parameterize report generation.
type Options struct {
	Profile     Profile
	BodyEnabled bool
	Rules       []Rule
	Thresholds  Thresholds
	Weights     DecisionWeights
	Limits      ConsistencyLimits
	// HolisticScore is an optional second-pass score. When present it drives
	// the consistency check; it never replaces the rollup.
	HolisticScore *float64
}

// DefaultOptions returns production defaults with the given profile.
func DefaultOptions(profile Profile) Options {
	return Options{
		Profile:     profile,
		BodyEnabled: true,
		Rules:       DefaultRules(),
		Thresholds:  TriState(),
		Weights:     DefaultDecisionWeights(),
		Limits:      DefaultConsistencyLimits(),
	}
}

// BuildReport scores each answer, rolls up the session, classifies the
// decision, and assembles the final report. Pure: no I/O, no stored state.
func BuildReport(answers []AnswerInput, opts Options) (*Report, []AnswerScore, error) {
	if len(answers) == 0 {
		return nil, nil, ErrNoAnswers
	}

	scores := make([]AnswerScore, 0, len(answers))
	for _, in := range answers {
		score, err := opts.Profile.AnswerScore(in, opts.BodyEnabled)
		if err != nil {
			return nil, nil, err
		}
		scores = append(scores, score)
	}

	rollup, err := SessionRollup(answers, scores, opts.Rules)
	if err != nil {
		return nil, nil, err
	}

	dimensions := averageDimensions(answers, scores, opts.BodyEnabled)
	minDim := minDimension(dimensions)

	decision := Classify(rollup.Session, minDim, opts.Weights, opts.Thresholds)

	var warnings []ConsistencyWarning
	if opts.HolisticScore != nil {
		warnings = CheckConsistency(rollup.Mean, *opts.HolisticScore, opts.Limits)
	}

	strengths, weaknesses := rankDimensions(dimensions)

	return &Report{
		Decision:   decision.Label,
		Overall:    decision.Score,
		Dimensions: dimensions,
		Summary: fmt.Sprintf("%d answers, session score %.1f, decision %s",
			len(answers), rollup.Session, decision.Label),
		Strengths:  strengths,
		Weaknesses: weaknesses,
		Warnings:   warnings,
	}, scores, nil
}

// averageDimensions averages each content sub-metric across answers and adds
// the speech/body channel composites as dimensions of their own.
func averageDimensions(answers []AnswerInput, scores []AnswerScore, bodyEnabled bool) map[string]float64 {
	dims := make(map[string]float64)
	counts := make(map[string]int)
	for _, a := range answers {
		for name, value := range a.Content {
			dims[name] += value
			counts[name]++
		}
	}
	for name := range dims {
		dims[name] /= float64(counts[name])
	}

	speech, body := 0.0, 0.0
	for _, s := range scores {
		speech += s.Speech
		body += s.Body
	}
	dims["speech"] = speech / float64(len(scores))
	if bodyEnabled {
		dims["body"] = body / float64(len(scores))
	}
	return dims
}

func minDimension(dims map[string]float64) *float64 {
	var min *float64
	for _, v := range dims {
		v := v
		if min == nil || v < *min {
			min = &v
		}
	}
	return min
}

// rankDimensions picks the two best and two worst dimensions.
func rankDimensions(dims map[string]float64) (strengths, weaknesses []string) {
	type dim struct {
		name  string
		value float64
	}
	ranked := make([]dim, 0, len(dims))
	for name, value := range dims {
		ranked = append(ranked, dim{name, value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value == ranked[j].value {
			return ranked[i].name < ranked[j].name
		}
		return ranked[i].value > ranked[j].value
	})

	for i := 0; i < len(ranked) && i < 2; i++ {
		strengths = append(strengths, ranked[i].name)
	}
	for i := len(ranked) - 1; i >= 0 && len(weaknesses) < 2; i-- {
		if ranked[i].name == strengths[0] || (len(strengths) > 1 && ranked[i].name == strengths[1]) {
			break
		}
		weaknesses = append(weaknesses, ranked[i].name)
	}
	return strengths, weaknesses
}
