package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"salescoachdev/modelapi"
)

// CountedDimensions are the rubric dimensions that add up to the score, in
// display order. Each is rated 0-10, so the raw maximum is 60.
var CountedDimensions = []string{
	"rapport",
	"discovery",
	"solution_alignment",
	"objection_handling",
	"closing",
	"positivity",
}

// BonusDimension is rated 0-5 and shown with the feedback, but deliberately
// excluded from the numeric score.
const BonusDimension = "dale_carnegie_principles"

const rawMaxScore = 60

// ParseError means the model's rubric response was not well-formed JSON or
// was missing expected fields. It is surfaced to the user as a failed scoring
// attempt; there is no schema repair or retry.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluation parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("evaluation parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Evaluation is the parsed rubric response.
type Evaluation struct {
	Scores   map[string]int
	Bonus    int
	Feedback map[string]string
}

// Total scales the six counted sub-scores (max 60) onto the 0-100 range,
// truncating the fraction. The bonus dimension is not counted.
func (e *Evaluation) Total() int {
	sum := 0
	for _, dimension := range CountedDimensions {
		sum += e.Scores[dimension]
	}
	return sum * modelapi.MaxScore / rawMaxScore
}

type evaluationPayload struct {
	Rapport                *int              `json:"rapport"`
	Discovery              *int              `json:"discovery"`
	SolutionAlignment      *int              `json:"solution_alignment"`
	ObjectionHandling      *int              `json:"objection_handling"`
	Closing                *int              `json:"closing"`
	Positivity             *int              `json:"positivity"`
	DaleCarnegiePrinciples *int              `json:"dale_carnegie_principles"`
	Feedback               map[string]string `json:"feedback"`
}

// ParseEvaluation parses the raw model response into an Evaluation. Models
// often wrap the JSON in markdown code fences with a leading language tag;
// those are stripped before parsing.
func ParseEvaluation(raw string) (*Evaluation, error) {
	text := StripCodeFences(raw)

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, &ParseError{Reason: "response is not valid JSON", Err: err}
	}

	counted := map[string]*int{
		"rapport":            payload.Rapport,
		"discovery":          payload.Discovery,
		"solution_alignment": payload.SolutionAlignment,
		"objection_handling": payload.ObjectionHandling,
		"closing":            payload.Closing,
		"positivity":         payload.Positivity,
	}

	evaluation := &Evaluation{
		Scores:   make(map[string]int, len(CountedDimensions)),
		Feedback: payload.Feedback,
	}
	for _, dimension := range CountedDimensions {
		value := counted[dimension]
		if value == nil {
			return nil, &ParseError{Reason: fmt.Sprintf("missing %q sub-score", dimension)}
		}
		if *value < 0 || *value > 10 {
			return nil, &ParseError{Reason: fmt.Sprintf("%q sub-score %d is out of range", dimension, *value)}
		}
		evaluation.Scores[dimension] = *value
	}

	if payload.DaleCarnegiePrinciples != nil {
		if *payload.DaleCarnegiePrinciples < 0 || *payload.DaleCarnegiePrinciples > 5 {
			return nil, &ParseError{Reason: fmt.Sprintf("bonus score %d is out of range", *payload.DaleCarnegiePrinciples)}
		}
		evaluation.Bonus = *payload.DaleCarnegiePrinciples
	}

	if evaluation.Feedback == nil {
		return nil, &ParseError{Reason: "missing feedback object"}
	}

	return evaluation, nil
}

// StripCodeFences removes surrounding markdown fence markers and an optional
// leading language tag ("```json"), leaving the payload untouched otherwise.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.Trim(text, "`")
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "json"); ok {
		text = rest
	}
	return strings.TrimSpace(text)
}
