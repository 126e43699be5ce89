package assessment

import (
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/tilinna/clock"
)

// Snapshot is the persisted shape of a session.
type Snapshot struct {
	ID                   uuid.UUID         `json:"id"`
	DefinitionID         string            `json:"definition_id"`
	Answers              map[string]string `json:"answers"`
	RemainingSeconds     int               `json:"remaining_seconds"`
	CurrentQuestionIndex int               `json:"current_question_index"`
	Status               Status            `json:"status"`
	Score                *Score            `json:"score,omitempty"`
	Grades               map[string]int    `json:"grades,omitempty"`
	StartedAt            time.Time         `json:"started_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	var grades map[string]int
	if len(s.grades) > 0 {
		grades = make(map[string]int, len(s.grades))
		for k, v := range s.grades {
			grades[k] = v
		}
	}

	return Snapshot{
		ID:                   s.id,
		DefinitionID:         s.definition.ID,
		Answers:              answers,
		RemainingSeconds:     s.remaining,
		CurrentQuestionIndex: s.index,
		Status:               s.status,
		Score:                s.score.clone(),
		Grades:               grades,
		StartedAt:            s.startedAt,
	}
}

// RestoreSession rebuilds a session from a snapshot taken against def. The
// cached score is reused as is. A timed session in progress must have time
// left, since running out submits it.
func RestoreSession(def Definition, snap Snapshot, clk clock.Clock) (*Session, error) {
	if snap.DefinitionID != def.ID {
		return nil, errors.Annotatef(ErrInvalidSnapshot, "snapshot of %q restored against %q", snap.DefinitionID, def.ID)
	}

	switch snap.Status {
	case StatusInProgress:
		if snap.Score != nil {
			return nil, errors.Annotate(ErrInvalidSnapshot, "score on a session in progress")
		}

		if def.IsTimed() && snap.RemainingSeconds == 0 {
			return nil, errors.Annotate(ErrInvalidSnapshot, "session in progress with no time left")
		}
	case StatusSubmitted:
		if snap.Score == nil {
			return nil, errors.Annotate(ErrInvalidSnapshot, "submitted session without score")
		}
	default:
		return nil, errors.Annotatef(ErrInvalidSnapshot, "unknown status %q", snap.Status)
	}

	if snap.RemainingSeconds < 0 || (def.IsTimed() && snap.RemainingSeconds > def.TimeLimitSeconds) {
		return nil, errors.Annotatef(ErrInvalidSnapshot, "remaining %d of %d seconds", snap.RemainingSeconds, def.TimeLimitSeconds)
	}

	if snap.CurrentQuestionIndex != 0 && (snap.CurrentQuestionIndex < 0 || snap.CurrentQuestionIndex >= len(def.Questions)) {
		return nil, errors.Annotatef(ErrOutOfRange, "index %d of %d questions", snap.CurrentQuestionIndex, len(def.Questions))
	}

	answers := make(map[string]string, len(snap.Answers))
	for id, v := range snap.Answers {
		if _, _, err := def.Question(id); err != nil {
			return nil, errors.Trace(err)
		}

		answers[id] = v
	}

	grades := make(map[string]int, len(snap.Grades))
	for id, points := range snap.Grades {
		q, _, err := def.Question(id)
		if err != nil {
			return nil, errors.Trace(err)
		}

		if q.Kind != QuestionKindFreeText || points < 0 || points > q.Points {
			return nil, errors.Annotatef(ErrInvalidGrade, "%d points for question %q", points, id)
		}

		grades[id] = points
	}

	return &Session{
		clock:      clk,
		id:         snap.ID,
		definition: def,
		startedAt:  snap.StartedAt,
		answers:    answers,
		remaining:  snap.RemainingSeconds,
		index:      snap.CurrentQuestionIndex,
		status:     snap.Status,
		score:      snap.Score.clone(),
		grades:     grades,
	}, nil
}
