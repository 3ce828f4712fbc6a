package retrieval

// MinMaxNormalize rescales raw scores to [0,1]. When every score is
// identical the spread is zero, so each score maps to 0.5 instead of
// dividing by zero. An empty input returns nil.
func MinMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	normalized := make([]float64, len(scores))
	if max == min {
		for i := range normalized {
			normalized[i] = 0.5
		}
		return normalized
	}

	spread := max - min
	for i, s := range scores {
		normalized[i] = (s - min) / spread
	}
	return normalized
}
