// Package llm contains the provider-independent pieces of the scoring
// pipeline: prompt construction, response extraction, and score arithmetic.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencedJSONRe matches a ```json fenced block; models frequently wrap their
// output in one despite being told not to.
var fencedJSONRe = regexp.MustCompile("```json\\s*\\n([\\s\\S]*?)\\n\\s*```")

// ExtractJSON recovers a structured value from free-form model output and
// unmarshals it into dst. It first tries the content of a ```json fenced
// block, then falls back to parsing the whole trimmed text. An error is
// returned when neither form is valid JSON.
func ExtractJSON(text string, dst any) error {
	if m := fencedJSONRe.FindStringSubmatch(text); len(m) == 2 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), dst); err != nil {
			return fmt.Errorf("parse fenced json block: %w", err)
		}
		return nil
	}

	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), dst); err != nil {
		return fmt.Errorf("parse model response as json: %w", err)
	}
	return nil
}

// FeedbackResult is the typed shape of a feedback scoring response.
type FeedbackResult struct {
	Scores              FeedbackScores `json:"scores"`
	AreasOfImprovements []string       `json:"areasOfImprovements"`
	Feedbacks           []string       `json:"feedbacks"`
}

// FeedbackScores carries the five sub-scores plus the model-reported total.
// The total is recomputed locally before persistence; see Scoring.
type FeedbackScores struct {
	Grammar     int `json:"grammar"`
	Experience  int `json:"experience"`
	Skills      int `json:"skills"`
	Relevance   int `json:"relevance"`
	FillerCount int `json:"fillerCount"`
	TotalScore  int `json:"totalScore"`
}
