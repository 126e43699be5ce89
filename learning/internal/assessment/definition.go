package assessment

import (
	"github.com/juju/errors"
)

var (
	ErrDefinitionNotFound = errors.New("assessment: definition not found")
	ErrSessionNotFound    = errors.New("assessment: session not found")
	ErrInvalidDefinition  = errors.New("assessment: invalid definition")
	ErrInvalidQuestion    = errors.New("assessment: question is not part of the assessment")
	ErrOutOfRange         = errors.New("assessment: question index out of range")
	ErrSubmitted          = errors.New("assessment: session already submitted")
	ErrNotSubmitted       = errors.New("assessment: session not submitted yet")
	ErrInvalidGrade       = errors.New("assessment: grade outside the question points")
	ErrInvalidElapsed     = errors.New("assessment: elapsed time must not be negative")
	ErrInvalidSnapshot    = errors.New("assessment: snapshot does not match definition")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrDefinitionNotFound) || errors.Is(err, ErrSessionNotFound)
}

type Kind string

const (
	KindPre  Kind = "pre"
	KindPost Kind = "post"
	KindQuiz Kind = "quiz"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindPre, KindPost, KindQuiz:
		return true
	}

	return false
}

type QuestionKind string

const (
	QuestionKindSingleChoice QuestionKind = "single_choice"
	QuestionKindFreeText     QuestionKind = "free_text"
)

type Question struct {
	ID            string       `json:"id"`
	Kind          QuestionKind `json:"kind"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectOption string       `json:"correct_option,omitempty"`
	Points        int          `json:"points"`
}

// TrueFalse builds a single choice question whose options are "true" and
// "false".
func TrueFalse(id, prompt string, answer bool, points int) Question {
	correct := "false"
	if answer {
		correct = "true"
	}

	return Question{
		ID:            id,
		Kind:          QuestionKindSingleChoice,
		Prompt:        prompt,
		Options:       []string{"true", "false"},
		CorrectOption: correct,
		Points:        points,
	}
}

// Definition is the immutable description of an assessment.
type Definition struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
	// TimeLimitSeconds of zero means the assessment is not timed.
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	PassingScore     int        `json:"passing_score"`
	Questions        []Question `json:"questions"`
}

func (d Definition) IsTimed() bool {
	return d.TimeLimitSeconds > 0
}

func (d Definition) MaxScore() int {
	var total int
	for _, q := range d.Questions {
		total += q.Points
	}

	return total
}

// Question returns the question with the given id and its index.
func (d Definition) Question(id string) (Question, int, error) {
	for i, q := range d.Questions {
		if q.ID == id {
			return q, i, nil
		}
	}

	return Question{}, -1, errors.Annotatef(ErrInvalidQuestion, "question %q in assessment %q", id, d.ID)
}

// Validate reports the first problem found in d.
func (d Definition) Validate() error {
	if d.ID == "" {
		return errors.Annotate(ErrInvalidDefinition, "missing id")
	}

	if !d.Kind.IsValid() {
		return errors.Annotatef(ErrInvalidDefinition, "unknown kind %q", d.Kind)
	}

	if d.TimeLimitSeconds < 0 {
		return errors.Annotate(ErrInvalidDefinition, "negative time limit")
	}

	seen := make(map[string]struct{}, len(d.Questions))
	for _, q := range d.Questions {
		if q.ID == "" {
			return errors.Annotate(ErrInvalidDefinition, "question without id")
		}

		if _, ok := seen[q.ID]; ok {
			return errors.Annotatef(ErrInvalidDefinition, "duplicate question %q", q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Points < 0 {
			return errors.Annotatef(ErrInvalidDefinition, "negative points on question %q", q.ID)
		}

		switch q.Kind {
		case QuestionKindSingleChoice:
			if !contains(q.Options, q.CorrectOption) {
				return errors.Annotatef(ErrInvalidDefinition, "correct option of question %q is not one of its options", q.ID)
			}
		case QuestionKindFreeText:
		default:
			return errors.Annotatef(ErrInvalidDefinition, "unknown kind %q on question %q", q.Kind, q.ID)
		}
	}

	if d.PassingScore < 0 || d.PassingScore > d.MaxScore() {
		return errors.Annotatef(ErrInvalidDefinition, "passing score %d outside 0..%d", d.PassingScore, d.MaxScore())
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}

	return false
}
