package llm

import "math"

// Rubric weights. The prompt instructs the model to apply the same weighting,
// but the total is always recomputed here so persisted scores do not depend on
// model arithmetic.
const (
	weightGrammar    = 0.20
	weightExperience = 0.25
	weightSkills     = 0.25
	weightRelevance  = 0.20
	weightFiller     = 0.10
)

// FillerScore maps a raw filler-word count onto the 0-100 scale used for
// weighting: 0 fillers scores 100, 1-2 score 80, 3-5 score 60, 6+ score 40.
func FillerScore(count int) int {
	switch {
	case count <= 0:
		return 100
	case count <= 2:
		return 80
	case count <= 5:
		return 60
	default:
		return 40
	}
}

// TotalScore computes the weighted aggregate from the reported sub-scores,
// rounded to the nearest whole number. Sub-scores are clamped to [0,100]
// before weighting so a misbehaving model cannot push the total out of range.
func TotalScore(s FeedbackScores) int {
	total := weightGrammar*float64(clampScore(s.Grammar)) +
		weightExperience*float64(clampScore(s.Experience)) +
		weightSkills*float64(clampScore(s.Skills)) +
		weightRelevance*float64(clampScore(s.Relevance)) +
		weightFiller*float64(FillerScore(s.FillerCount))
	return int(math.Round(total))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
