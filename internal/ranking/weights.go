package ranking

// Weights maps a star tier (1..5) to the weight a single counted track
// contributes to its album's weighted sum.
type Weights map[int]float64

// DefaultWeights is the default schedule, monotonically increasing with star value.
func DefaultWeights() Weights {
	return Weights{
		5: 1.0,
		4: 0.8,
		3: 0.5,
		2: 0.25,
		1: 0.1,
	}
}

// For returns the weight for a star tier, 0 for out-of-range stars.
func (w Weights) For(star int) float64 {
	return w[star]
}

// ParseWeightOverrides merges caller-supplied overrides (keyed by the star
// value as a string, "1".."5") over the defaults. Unrecognised keys and
// out-of-range stars are ignored, leaving the default for that tier.
func ParseWeightOverrides(overrides map[string]float64) Weights {
	weights := DefaultWeights()

	for key, value := range overrides {
		if len(key) != 1 || key[0] < '1' || key[0] > '5' {
			continue
		}
		if value < 0 {
			continue
		}
		weights[int(key[0]-'0')] = value
	}

	return weights
}
