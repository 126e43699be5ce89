package assessment

import (
	"time"
)

type QuestionResult struct {
	QuestionID           string `json:"question_id"`
	Answer               string `json:"answer,omitempty"`
	Points               int    `json:"points"`
	MaxPoints            int    `json:"max_points"`
	Correct              bool   `json:"correct"`
	PendingManualGrading bool   `json:"pending_manual_grading"`
}

// Score is computed once, when a session is submitted, and never changes
// afterwards. Free text questions contribute nothing to AutomaticScore.
type Score struct {
	AutomaticScore int              `json:"automatic_score"`
	MaxScore       int              `json:"max_score"`
	Results        []QuestionResult `json:"results"`
	AutoSubmitted  bool             `json:"auto_submitted"`
	SubmittedAt    time.Time        `json:"submitted_at"`
}

// PendingManualGrading lists the questions that need a human grade.
func (s *Score) PendingManualGrading() []string {
	var out []string
	for _, r := range s.Results {
		if r.PendingManualGrading {
			out = append(out, r.QuestionID)
		}
	}

	return out
}

func (s *Score) clone() *Score {
	if s == nil {
		return nil
	}

	out := *s
	out.Results = append([]QuestionResult(nil), s.Results...)

	return &out
}

// Outcome combines the cached score with manual grades applied after
// submission.
type Outcome struct {
	AutomaticScore       int  `json:"automatic_score"`
	ManualScore          int  `json:"manual_score"`
	MaxScore             int  `json:"max_score"`
	PassingScore         int  `json:"passing_score"`
	PendingManualGrading int  `json:"pending_manual_grading"`
	Passed               bool `json:"passed"`
}

// score grades answers against def. It is a pure function of its inputs.
func score(def Definition, answers map[string]string, autoSubmitted bool, at time.Time) *Score {
	out := &Score{
		MaxScore:      def.MaxScore(),
		Results:       make([]QuestionResult, 0, len(def.Questions)),
		AutoSubmitted: autoSubmitted,
		SubmittedAt:   at,
	}

	for _, q := range def.Questions {
		answer, answered := answers[q.ID]
		r := QuestionResult{
			QuestionID: q.ID,
			Answer:     answer,
			MaxPoints:  q.Points,
		}

		switch q.Kind {
		case QuestionKindSingleChoice:
			if answered && answer == q.CorrectOption {
				r.Correct = true
				r.Points = q.Points
			}
		case QuestionKindFreeText:
			r.PendingManualGrading = true
		}

		out.AutomaticScore += r.Points
		out.Results = append(out.Results, r)
	}

	return out
}
