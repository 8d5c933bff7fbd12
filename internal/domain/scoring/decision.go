package scoring

// Thresholds maps a score to an ordered label set. Labels run worst to best;
// Cutoffs[i] is the minimum score for Labels[i+1].
type Thresholds struct {
	Labels  []string  `json:"labels" yaml:"labels"`
	Cutoffs []float64 `json:"cutoffs" yaml:"cutoffs"`
}

// NewThresholds validates label/cutoff alignment and cutoff monotonicity.
func NewThresholds(labels []string, cutoffs []float64) (Thresholds, error) {
	if len(labels) < 2 || len(cutoffs) != len(labels)-1 {
		return Thresholds{}, ErrInvalidThresholds
	}
	for i, c := range cutoffs {
		if c < 0 || c > 100 {
			return Thresholds{}, ErrInvalidThresholds
		}
		if i > 0 && c <= cutoffs[i-1] {
			return Thresholds{}, ErrInvalidThresholds
		}
	}
	return Thresholds{Labels: labels, Cutoffs: cutoffs}, nil
}

// TriState is the accepted/borderline/rejected threshold pair.
func TriState() Thresholds {
	t, err := NewThresholds([]string{"rejected", "borderline", "accepted"}, []float64{45, 70})
	if err != nil {
		panic(err)
	}
	return t
}

// TrafficLight is the red/amber/green threshold pair.
func TrafficLight() Thresholds {
	t, err := NewThresholds([]string{"red", "amber", "green"}, []float64{40, 70})
	if err != nil {
		panic(err)
	}
	return t
}

// Label returns the label for a score.
func (t Thresholds) Label(score float64) string {
	for i := len(t.Cutoffs) - 1; i >= 0; i-- {
		if score >= t.Cutoffs[i] {
			return t.Labels[i+1]
		}
	}
	return t.Labels[0]
}

// Rank returns the ordinal position of a label, worst first. Unknown labels
// rank -1.
func (t Thresholds) Rank(label string) int {
	for i, l := range t.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// DecisionWeights blends the session score with the weakest dimension so one
// catastrophically low dimension can't be averaged away.
type DecisionWeights struct {
	Session   float64 `json:"session" yaml:"session"`
	Dimension float64 `json:"dimension" yaml:"dimension"`
}

// DefaultDecisionWeights is the standard 0.8/0.2 blend.
func DefaultDecisionWeights() DecisionWeights {
	return DecisionWeights{Session: 0.8, Dimension: 0.2}
}

// Decision is the final classification of an interview.
type Decision struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify maps a session score to a decision label. When minDimension is
// supplied, the classified score is the weighted blend of the session score
// and the lowest dimension score.
func Classify(session float64, minDimension *float64, dw DecisionWeights, t Thresholds) Decision {
	score := session
	if minDimension != nil {
		score = dw.Session*session + dw.Dimension*(*minDimension)
	}
	score = Clamp(score)
	return Decision{Label: t.Label(score), Score: score}
}
