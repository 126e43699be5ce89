package assessment

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/tilinna/clock"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

// Session is one attempt at an assessment. A session starts in progress and
// moves to submitted exactly once, either through Submit or when the timer
// runs out. Nothing but Grade is accepted after that.
type Session struct {
	mu         sync.Mutex
	clock      clock.Clock
	id         uuid.UUID
	definition Definition
	startedAt  time.Time

	answers   map[string]string
	remaining int
	index     int
	status    Status
	score     *Score
	grades    map[string]int
}

func NewSession(clk clock.Clock, def Definition) *Session {
	return &Session{
		clock:      clk,
		id:         uuid.New(),
		definition: def,
		startedAt:  clk.Now(),
		answers:    map[string]string{},
		remaining:  def.TimeLimitSeconds,
		status:     StatusInProgress,
		grades:     map[string]int{},
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Definition() Definition {
	return s.definition
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remaining
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index
}

// CurrentQuestion reports false when the assessment has no questions.
func (s *Session) CurrentQuestion() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.definition.Questions) == 0 {
		return Question{}, false
	}

	return s.definition.Questions[s.index], true
}

// Answer stores value as the answer to questionID, replacing any previous
// one. The current index does not move.
func (s *Session) Answer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSubmitted {
		return errors.Trace(ErrSubmitted)
	}

	if _, _, err := s.definition.Question(questionID); err != nil {
		return errors.Trace(err)
	}

	s.answers[questionID] = value

	return nil
}

// GoTo moves to the question at index. Indexes outside the question list are
// rejected, not clamped.
func (s *Session) GoTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.goTo(index)
}

func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.goTo(s.index + 1)
}

func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.goTo(s.index - 1)
}

func (s *Session) goTo(index int) error {
	if s.status == StatusSubmitted {
		return errors.Trace(ErrSubmitted)
	}

	if index < 0 || index >= len(s.definition.Questions) {
		return errors.Annotatef(ErrOutOfRange, "index %d of %d questions", index, len(s.definition.Questions))
	}

	s.index = index

	return nil
}

// Tick counts elapsed seconds off the timer. It reports true only on the call
// that ran the timer out and submitted the session. Ticks on a submitted or
// untimed session do nothing.
func (s *Session) Tick(elapsedSeconds int) (bool, error) {
	if elapsedSeconds < 0 {
		return false, errors.Annotatef(ErrInvalidElapsed, "%d seconds", elapsedSeconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSubmitted || !s.definition.IsTimed() {
		return false, nil
	}

	s.remaining -= elapsedSeconds
	if s.remaining > 0 {
		return false, nil
	}

	s.remaining = 0
	s.submit(true)

	return true, nil
}

// Submit closes the session and returns its score. Calling it again returns
// the very same score.
func (s *Session) Submit() *Score {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSubmitted {
		return s.score
	}

	s.submit(false)

	return s.score
}

func (s *Session) submit(auto bool) {
	s.status = StatusSubmitted
	s.score = score(s.definition, s.answers, auto, s.clock.Now())
}

// Score returns nil until the session is submitted.
func (s *Session) Score() *Score {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.score
}

// Grade records manual points for a free text question of a submitted
// session. A later grade for the same question replaces the earlier one.
func (s *Session) Grade(questionID string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusSubmitted {
		return errors.Trace(ErrNotSubmitted)
	}

	q, _, err := s.definition.Question(questionID)
	if err != nil {
		return errors.Trace(err)
	}

	if q.Kind != QuestionKindFreeText {
		return errors.Annotatef(ErrInvalidQuestion, "question %q is graded automatically", questionID)
	}

	if points < 0 || points > q.Points {
		return errors.Annotatef(ErrInvalidGrade, "%d points for question %q worth %d", points, questionID, q.Points)
	}

	s.grades[questionID] = points

	return nil
}

func (s *Session) Outcome() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusSubmitted {
		return Outcome{}, errors.Trace(ErrNotSubmitted)
	}

	return s.outcome(), nil
}

func (s *Session) outcome() Outcome {
	out := Outcome{
		AutomaticScore: s.score.AutomaticScore,
		MaxScore:       s.score.MaxScore,
		PassingScore:   s.definition.PassingScore,
	}

	for _, id := range s.score.PendingManualGrading() {
		points, graded := s.grades[id]
		if !graded {
			out.PendingManualGrading++
			continue
		}

		out.ManualScore += points
	}

	out.Passed = out.AutomaticScore+out.ManualScore >= out.PassingScore

	return out
}
