package scoring

// AnswerInput carries the raw sub-metrics for one answer as produced by the
// upstream evaluator. Sub-metric names must match the profile's weight maps;
// metrics the profile doesn't weight are ignored.
type AnswerInput struct {
	Content map[string]float64 `json:"content"`
	Speech  map[string]float64 `json:"speech"`
	Body    map[string]float64 `json:"body,omitempty"`

	// Rollup rule inputs.
	Sentences       int     `json:"sentences"`
	DurationSeconds float64 `json:"duration_seconds"`
	Contradictions  int     `json:"contradictions"`
}

// AnswerScore is the composite score for one answer.
type AnswerScore struct {
	Content float64 `json:"content"`
	Speech  float64 `json:"speech"`
	Body    float64 `json:"body"`
	Overall float64 `json:"overall"`
}

// ChannelScore composes named sub-metrics into one channel score using the
// given weight map. Every metric the map weights must be present and in range.
func ChannelScore(metrics map[string]float64, weights Weights) (float64, error) {
	score := 0.0
	for name, weight := range weights {
		value, ok := metrics[name]
		if !ok {
			return 0, ErrOutOfRange
		}
		if value < 0 || value > 100 {
			return 0, ErrOutOfRange
		}
		score += weight * value
	}
	return score, nil
}

// CompositeAnswer blends channel scores into one answer score. When body
// tracking is disabled, the body weight is redistributed into content rather
// than dropped, keeping the total weight at 1.0.
func CompositeAnswer(content, speech, body float64, cw ChannelWeights, bodyEnabled bool) float64 {
	if !bodyEnabled {
		return (cw.Content+cw.Body)*content + cw.Speech*speech
	}
	return cw.Content*content + cw.Speech*speech + cw.Body*body
}

// AnswerScore computes channel composites and the overall answer score.
// With bodyEnabled=false the body input is ignored entirely.
func (p Profile) AnswerScore(in AnswerInput, bodyEnabled bool) (AnswerScore, error) {
	content, err := ChannelScore(in.Content, p.content)
	if err != nil {
		return AnswerScore{}, err
	}
	speech, err := ChannelScore(in.Speech, p.speech)
	if err != nil {
		return AnswerScore{}, err
	}
	body := 0.0
	if bodyEnabled {
		body, err = ChannelScore(in.Body, p.body)
		if err != nil {
			return AnswerScore{}, err
		}
	}
	return AnswerScore{
		Content: content,
		Speech:  speech,
		Body:    body,
		Overall: CompositeAnswer(content, speech, body, p.channels, bodyEnabled),
	}, nil
}
