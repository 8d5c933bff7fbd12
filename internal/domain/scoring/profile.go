package scoring

import "math"

// weightEpsilon is the tolerance for weight sets summing to 1.0.
const weightEpsilon = 1e-6

// Weights is a named weight map over sub-metrics. A valid set sums to 1.0.
type Weights map[string]float64

// Validate checks that the set is non-empty, all weights are non-negative,
// and the sum is 1.0 within tolerance.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return ErrInvalidWeights
	}
	sum := 0.0
	for _, v := range w {
		if v < 0 {
			return ErrInvalidWeights
		}
		sum += v
	}
	if math.Abs(sum-1.0) > weightEpsilon {
		return ErrInvalidWeights
	}
	return nil
}

// ChannelWeights distributes an answer score across the three evaluation channels.
type ChannelWeights struct {
	Content float64 `json:"content" yaml:"content"`
	Speech  float64 `json:"speech" yaml:"speech"`
	Body    float64 `json:"body" yaml:"body"`
}

// DefaultChannelWeights is the standard 0.7/0.2/0.1 split.
func DefaultChannelWeights() ChannelWeights {
	return ChannelWeights{Content: 0.7, Speech: 0.2, Body: 0.1}
}

// Validate checks the channel split sums to 1.0.
func (c ChannelWeights) Validate() error {
	if c.Content < 0 || c.Speech < 0 || c.Body < 0 {
		return ErrInvalidWeights
	}
	if math.Abs(c.Content+c.Speech+c.Body-1.0) > weightEpsilon {
		return ErrInvalidWeights
	}
	return nil
}

// Profile is an immutable, validated scoring configuration. Profiles are
// constructed once (at load time or from built-ins) and shared; they are never
// mutated per call.
type Profile struct {
	name     string
	channels ChannelWeights
	content  Weights
	speech   Weights
	body     Weights
}

// NewProfile validates every weight set and returns a profile.
func NewProfile(name string, channels ChannelWeights, content, speech, body Weights) (Profile, error) {
	if err := channels.Validate(); err != nil {
		return Profile{}, err
	}
	for _, set := range []Weights{content, speech, body} {
		if err := set.Validate(); err != nil {
			return Profile{}, err
		}
	}
	return Profile{
		name:     name,
		channels: channels,
		content:  cloneWeights(content),
		speech:   cloneWeights(speech),
		body:     cloneWeights(body),
	}, nil
}

// Name returns the profile name.
func (p Profile) Name() string { return p.name }

// Channels returns the channel split.
func (p Profile) Channels() ChannelWeights { return p.channels }

// StandardProfile uses four equally-weighted content dimensions.
func StandardProfile() Profile {
	p, err := NewProfile("standard",
		DefaultChannelWeights(),
		Weights{
			"relevance":        0.25,
			"specificity":      0.25,
			"self_consistency": 0.25,
			"plausibility":     0.25,
		},
		Weights{
			"clarity": 0.5,
			"pace":    0.5,
		},
		Weights{
			"eye_contact": 0.5,
			"posture":     0.5,
		},
	)
	if err != nil {
		panic(err) // built-in profiles are fixed at compile time
	}
	return p
}

// ExtendedProfile uses seven unequally-weighted content dimensions.
func ExtendedProfile() Profile {
	p, err := NewProfile("extended",
		DefaultChannelWeights(),
		Weights{
			"relevance":        0.20,
			"specificity":      0.20,
			"self_consistency": 0.15,
			"plausibility":     0.15,
			"depth":            0.10,
			"structure":        0.10,
			"ownership":        0.10,
		},
		Weights{
			"clarity": 0.5,
			"pace":    0.5,
		},
		Weights{
			"eye_contact": 0.5,
			"posture":     0.5,
		},
	)
	if err != nil {
		panic(err)
	}
	return p
}

// ProfileByName resolves a profile name, defaulting to the standard profile.
func ProfileByName(name string) Profile {
	switch name {
	case "extended":
		return ExtendedProfile()
	default:
		return StandardProfile()
	}
}

func cloneWeights(w Weights) Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
