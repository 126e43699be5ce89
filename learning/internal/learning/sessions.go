package learning

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/tilinna/clock"

	"github.com/XaviFP/manabi/learning/internal/achievement"
	"github.com/XaviFP/manabi/learning/internal/assessment"
	"github.com/XaviFP/manabi/learning/internal/course"
)

// QuizTarget names the quiz lesson an attempt gates. The zero value means the
// attempt stands alone.
type QuizTarget struct {
	CourseID string `json:"course_id,omitempty"`
	LessonID string `json:"lesson_id,omitempty"`
}

func (q QuizTarget) IsZero() bool {
	return q.CourseID == "" && q.LessonID == ""
}

type SubmissionResult struct {
	Snapshot  assessment.Snapshot       `json:"snapshot"`
	Outcome   assessment.Outcome        `json:"outcome"`
	Quiz      *CompletionResult         `json:"quiz,omitempty"`
	NewBadges []achievement.EarnedBadge `json:"new_badges"`
}

type TickResult struct {
	Snapshot      assessment.Snapshot `json:"snapshot"`
	AutoSubmitted bool                `json:"auto_submitted"`
	Submission    *SubmissionResult   `json:"submission,omitempty"`
}

type sessionEntry struct {
	userID  uuid.UUID
	target  QuizTarget
	session *assessment.Session
}

// draft copies the attempt so a change can be stored before the live session
// sees it.
func (s *sessionEntry) draft(clk clock.Clock) (*sessionEntry, error) {
	session, err := assessment.RestoreSession(s.session.Definition(), s.session.Snapshot(), clk)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &sessionEntry{userID: s.userID, target: s.target, session: session}, nil
}

type attemptKey struct {
	userID       uuid.UUID
	definitionID string
}

// registry holds the attempts in progress. Only one attempt per learner and
// assessment is live; starting another drops the previous one.
type registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
	active   map[attemptKey]uuid.UUID
}

func newRegistry() *registry {
	return &registry{
		sessions: map[uuid.UUID]*sessionEntry{},
		active:   map[attemptKey]uuid.UUID{},
	}
}

func (r *registry) start(entry *sessionEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := attemptKey{userID: entry.userID, definitionID: entry.session.Definition().ID}
	if prev, ok := r.active[key]; ok {
		delete(r.sessions, prev)
	}

	r.active[key] = entry.session.ID()
	r.sessions[entry.session.ID()] = entry
}

func (r *registry) get(id uuid.UUID) (*sessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]

	return entry, ok
}

// resume puts a restored attempt back unless a newer one replaced it.
func (r *registry) resume(entry *sessionEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := attemptKey{userID: entry.userID, definitionID: entry.session.Definition().ID}
	if current, ok := r.active[key]; ok && current != entry.session.ID() {
		return false
	}

	r.active[key] = entry.session.ID()
	r.sessions[entry.session.ID()] = entry

	return true
}

func (r *registry) forget(entry *sessionEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := entry.session.ID()
	delete(r.sessions, id)

	key := attemptKey{userID: entry.userID, definitionID: entry.session.Definition().ID}
	if r.active[key] == id {
		delete(r.active, key)
	}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func (e *engine) Assessment(ctx context.Context, definitionID string) (assessment.Definition, error) {
	d, err := e.assessments.GetDefinition(ctx, definitionID)

	return d, errors.Trace(err)
}

func (e *engine) StoreAssessment(ctx context.Context, d assessment.Definition) error {
	if err := d.Validate(); err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(e.assessments.StoreDefinition(ctx, d))
}

// StartAssessment opens a new attempt. Any attempt the learner had in
// progress on the same assessment is dropped along with its answers.
func (e *engine) StartAssessment(ctx context.Context, userID uuid.UUID, definitionID string, target QuizTarget) (assessment.Snapshot, error) {
	def, err := e.assessments.GetDefinition(ctx, definitionID)
	if err != nil {
		return assessment.Snapshot{}, errors.Trace(err)
	}

	if !target.IsZero() {
		if err := e.openQuiz(ctx, userID, definitionID, target); err != nil {
			return assessment.Snapshot{}, errors.Trace(err)
		}
	}

	entry := &sessionEntry{
		userID:  userID,
		target:  target,
		session: assessment.NewSession(e.clock, def),
	}

	if err := e.persist(ctx, entry); err != nil {
		return assessment.Snapshot{}, errors.Trace(err)
	}

	e.sessions.start(entry)

	e.logger.InfoContext(ctx, "assessment started", "user_id", userID, "definition_id", definitionID, "session_id", entry.session.ID())

	return entry.session.Snapshot(), nil
}

// openQuiz checks target is an open quiz lesson gated by definitionID and
// records the visit.
func (e *engine) openQuiz(ctx context.Context, userID uuid.UUID, definitionID string, target QuizTarget) error {
	s, err := e.courses.GetCourseStructure(ctx, target.CourseID)
	if err != nil {
		return errors.Trace(err)
	}

	lesson, err := s.Lesson(target.LessonID)
	if err != nil {
		return errors.Trace(err)
	}

	if lesson.Type != course.LessonTypeQuiz || lesson.AssessmentID != definitionID {
		return errors.Annotatef(course.ErrNotQuizLesson, "lesson %q is not gated by assessment %q", lesson.ID, definitionID)
	}

	_, err = e.OpenLesson(ctx, userID, target.CourseID, target.LessonID)

	return errors.Trace(err)
}

// entry finds a learner's attempt, restoring it from storage when this
// process does not hold it.
func (e *engine) entry(ctx context.Context, userID, sessionID uuid.UUID) (*sessionEntry, error) {
	entry, err := e.lookup(ctx, sessionID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if entry.userID != userID {
		return nil, errors.Annotatef(assessment.ErrSessionNotFound, "session %s", sessionID)
	}

	return entry, nil
}

func (e *engine) lookup(ctx context.Context, sessionID uuid.UUID) (*sessionEntry, error) {
	if entry, ok := e.sessions.get(sessionID); ok {
		return entry, nil
	}

	rec, err := e.assessments.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	def, err := e.assessments.GetDefinition(ctx, rec.Snapshot.DefinitionID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	session, err := assessment.RestoreSession(def, rec.Snapshot, e.clock)
	if err != nil {
		return nil, errors.Trace(err)
	}

	entry := &sessionEntry{
		userID:  rec.UserID,
		target:  QuizTarget{CourseID: rec.CourseID, LessonID: rec.LessonID},
		session: session,
	}

	if session.Status() == assessment.StatusInProgress && !e.sessions.resume(entry) {
		return nil, errors.Annotatef(assessment.ErrSessionNotFound, "session %s was replaced by a newer attempt", sessionID)
	}

	return entry, nil
}

func (e *engine) persist(ctx context.Context, entry *sessionEntry) error {
	rec := assessment.Record{
		UserID:    entry.userID,
		CourseID:  entry.target.CourseID,
		LessonID:  entry.target.LessonID,
		Snapshot:  entry.session.Snapshot(),
		UpdatedAt: e.clock.Now(),
	}

	if outcome, err := entry.session.Outcome(); err == nil {
		rec.Passed = outcome.Passed
	}

	return errors.Trace(e.assessments.StoreSession(ctx, rec))
}

// mutate applies fn to the learner's attempt and persists the snapshot.
func (e *engine) mutate(ctx context.Context, userID, sessionID uuid.UUID, fn func(s *assessment.Session) error) (*sessionEntry, error) {
	entry, err := e.entry(ctx, userID, sessionID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if err := e.commit(ctx, entry, fn); err != nil {
		return nil, errors.Trace(err)
	}

	return entry, nil
}

// commit runs fn on a draft of the attempt and replaces the live session with
// it once the draft is stored. On failure the live session is left untouched.
func (e *engine) commit(ctx context.Context, entry *sessionEntry, fn func(s *assessment.Session) error) error {
	draft, err := entry.draft(e.clock)
	if err != nil {
		return errors.Trace(err)
	}

	if err := fn(draft.session); err != nil {
		return errors.Trace(err)
	}

	if err := e.persist(ctx, draft); err != nil {
		return errors.Trace(err)
	}

	entry.session = draft.session

	return nil
}

func (e *engine) SessionSnapshot(ctx context.Context, userID, sessionID uuid.UUID) (assessment.Snapshot, error) {
	unlock := e.locks.Lock(sessionKey(sessionID))
	defer unlock()

	entry, err := e.entry(ctx, userID, sessionID)
	if err != nil {
		return assessment.Snapshot{}, errors.Trace(err)
	}

	return entry.session.Snapshot(), nil
}

func (e *engine) Answer(ctx context.Context, userID, sessionID uuid.UUID, questionID, value string) (assessment.Snapshot, error) {
	unlock := e.locks.Lock(sessionKey(sessionID))
	defer unlock()

	entry, err := e.mutate(ctx, userID, sessionID, func(s *assessment.Session) error {
		return s.Answer(questionID, value)
	})
	if err != nil {
		return assessment.Snapshot{}, errors.Trace(err)
	}

	return entry.session.Snapshot(), nil
}

func (e *engine) GoTo(ctx context.Context, userID, sessionID uuid.UUID, index int) (assessment.Snapshot, error) {
	unlock := e.locks.Lock(sessionKey(sessionID))
	defer unlock()

	entry, err := e.mutate(ctx, userID, sessionID, func(s *assessment.Session) error {
		return s.GoTo(index)
	})
	if err != nil {
		return assessment.Snapshot{}, errors.Trace(err)
	}

	return entry.session.Snapshot(), nil
}

// Tick forwards elapsed time to the attempt. When the timer runs out the
// attempt is submitted and its result handled like an explicit Submit. A tick
// on a submitted attempt behaves like a repeated Submit.
func (e *engine) Tick(ctx context.Context, userID, sessionID uuid.UUID, elapsedSeconds int) (TickResult, error) {
	if elapsedSeconds < 0 {
		return TickResult{}, errors.Annotatef(assessment.ErrInvalidElapsed, "%d seconds", elapsedSeconds)
	}

	unlock := e.locks.Lock(sessionKey(sessionID))
	defer unlock()

	entry, err := e.entry(ctx, userID, sessionID)
	if err != nil {
		return TickResult{}, errors.Trace(err)
	}

	if entry.session.Status() == assessment.StatusSubmitted {
		submission, err := e.resubmit(ctx, entry)
		if err != nil {
			return TickResult{}, errors.Trace(err)
		}

		return TickResult{Snapshot: submission.Snapshot, Submission: &submission}, nil
	}

	var auto bool
	err = e.commit(ctx, entry, func(s *assessment.Session) error {
		var err error
		auto, err = s.Tick(elapsedSeconds)
		return err
	})
	if err != nil {
		return TickResult{}, errors.Trace(err)
	}

	out := TickResult{
		Snapshot:      entry.session.Snapshot(),
		AutoSubmitted: auto,
	}

	if auto {
		e.logger.InfoContext(ctx, "assessment timed out", "user_id", userID, "session_id", sessionID)

		submission, err := e.afterSubmit(ctx, entry)
		if err != nil {
			return TickResult{}, errors.Trace(err)
		}
		out.Submission = &submission
	}

	return out, nil
}

// Submit closes the attempt. Submitting twice yields the same outcome.
func (e *engine) Submit(ctx context.Context, userID, sessionID uuid.UUID) (SubmissionResult, error) {
	unlock := e.locks.Lock(sessionKey(sessionID))
	defer unlock()

	entry, err := e.entry(ctx, userID, sessionID)
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}

	if entry.session.Status() == assessment.StatusSubmitted {
		return e.resubmit(ctx, entry)
	}

	err = e.commit(ctx, entry, func(s *assessment.Session) error {
		s.Submit()
		return nil
	})
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}

	return e.afterSubmit(ctx, entry)
}

// resubmit answers for an attempt that is already submitted. A passed quiz
// attempt gets its result applied again, as the call that submitted it may
// have failed before getting there.
func (e *engine) resubmit(ctx context.Context, entry *sessionEntry) (SubmissionResult, error) {
	outcome, err := entry.session.Outcome()
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}

	out := SubmissionResult{
		Snapshot:  entry.session.Snapshot(),
		Outcome:   outcome,
		NewBadges: []achievement.EarnedBadge{},
	}

	if entry.target.IsZero() || !outcome.Passed {
		return out, nil
	}

	quiz, changed, err := e.applyQuizResult(ctx, entry, true)
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}
	out.Quiz = &quiz

	if changed {
		out.NewBadges = e.evaluateBadgesBestEffort(ctx, entry.userID)
	}

	return out, nil
}

// afterSubmit runs once an attempt reached submitted and its snapshot is
// stored: it releases the attempt, applies a quiz result and evaluates badges.
func (e *engine) afterSubmit(ctx context.Context, entry *sessionEntry) (SubmissionResult, error) {
	e.sessions.forget(entry)

	outcome, err := entry.session.Outcome()
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}

	out := SubmissionResult{
		Snapshot: entry.session.Snapshot(),
		Outcome:  outcome,
	}

	if !entry.target.IsZero() {
		quiz, _, err := e.applyQuizResult(ctx, entry, outcome.Passed)
		if err != nil {
			return SubmissionResult{}, errors.Trace(err)
		}
		out.Quiz = &quiz
	}

	out.NewBadges = e.evaluateBadgesBestEffort(ctx, entry.userID)

	return out, nil
}

func (e *engine) applyQuizResult(ctx context.Context, entry *sessionEntry, passed bool) (CompletionResult, bool, error) {
	result, changed, err := e.applyCompletion(ctx, entry.userID, entry.target.CourseID, entry.target.LessonID, func(t *course.Tracker) (course.Enrollment, error) {
		return t.RecordQuizResult(entry.target.LessonID, passed)
	})

	return result, changed, errors.Trace(err)
}

// GradeAnswer applies a manual grade to a submitted attempt. When the grade
// turns the attempt into a pass, a gated quiz lesson is completed.
func (e *engine) GradeAnswer(ctx context.Context, sessionID uuid.UUID, questionID string, points int) (SubmissionResult, error) {
	unlock := e.locks.Lock(sessionKey(sessionID))
	defer unlock()

	entry, err := e.lookup(ctx, sessionID)
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}

	before, err := entry.session.Outcome()
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}

	err = e.commit(ctx, entry, func(s *assessment.Session) error {
		return s.Grade(questionID, points)
	})
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}

	outcome, err := entry.session.Outcome()
	if err != nil {
		return SubmissionResult{}, errors.Trace(err)
	}

	out := SubmissionResult{
		Snapshot:  entry.session.Snapshot(),
		Outcome:   outcome,
		NewBadges: []achievement.EarnedBadge{},
	}

	if !outcome.Passed {
		return out, nil
	}

	// A passed quiz attempt is applied on every grade; a grade that failed
	// after storing the pass is repaired by the next one.
	var changed bool
	if !entry.target.IsZero() {
		quiz, quizChanged, err := e.applyQuizResult(ctx, entry, true)
		if err != nil {
			return SubmissionResult{}, errors.Trace(err)
		}
		out.Quiz = &quiz
		changed = quizChanged
	}

	if !before.Passed || changed {
		out.NewBadges = e.evaluateBadgesBestEffort(ctx, entry.userID)
	}

	return out, nil
}
