package learning

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/tilinna/clock"

	"github.com/XaviFP/manabi/common/pagination"
	"github.com/XaviFP/manabi/learning/internal/achievement"
	"github.com/XaviFP/manabi/learning/internal/assessment"
	"github.com/XaviFP/manabi/learning/internal/course"
)

// Engine is what the surrounding application talks to. It loads state from
// the repositories, runs the in-memory models over it and writes the result
// back.
type Engine interface {
	LoadCourseStructure(ctx context.Context, courseID string) (course.CourseStructure, error)
	StoreCourseStructure(ctx context.Context, s course.CourseStructure) error

	Enroll(ctx context.Context, userID uuid.UUID, courseID string) (course.Enrollment, error)
	LockState(ctx context.Context, userID uuid.UUID, courseID string) (course.LockState, error)
	OpenLesson(ctx context.Context, userID uuid.UUID, courseID, lessonID string) (course.Lesson, error)
	MarkLessonComplete(ctx context.Context, userID uuid.UUID, courseID, lessonID string) (CompletionResult, error)
	Progress(ctx context.Context, userID uuid.UUID, courseID string) (ProgressReport, error)
	Summary(ctx context.Context, userID uuid.UUID) (course.Summary, error)
	Certificate(ctx context.Context, userID uuid.UUID, courseID string) (course.Certificate, error)

	Assessment(ctx context.Context, definitionID string) (assessment.Definition, error)
	StoreAssessment(ctx context.Context, d assessment.Definition) error
	StartAssessment(ctx context.Context, userID uuid.UUID, definitionID string, target QuizTarget) (assessment.Snapshot, error)
	SessionSnapshot(ctx context.Context, userID, sessionID uuid.UUID) (assessment.Snapshot, error)
	Answer(ctx context.Context, userID, sessionID uuid.UUID, questionID, value string) (assessment.Snapshot, error)
	GoTo(ctx context.Context, userID, sessionID uuid.UUID, index int) (assessment.Snapshot, error)
	Tick(ctx context.Context, userID, sessionID uuid.UUID, elapsedSeconds int) (TickResult, error)
	Submit(ctx context.Context, userID, sessionID uuid.UUID) (SubmissionResult, error)
	GradeAnswer(ctx context.Context, sessionID uuid.UUID, questionID string, points int) (SubmissionResult, error)

	UserState(ctx context.Context, userID uuid.UUID) (achievement.UserState, error)
	EvaluateBadges(ctx context.Context, userID uuid.UUID) ([]achievement.EarnedBadge, error)
	ListBadges(ctx context.Context, userID uuid.UUID, p pagination.Pagination) (achievement.EarnedBadgeConnection, error)
	Catalog() []achievement.Badge
}

// CompletionResult is what completing a lesson produced.
type CompletionResult struct {
	Enrollment  course.Enrollment         `json:"enrollment"`
	Progress    course.Progress           `json:"progress"`
	NewBadges   []achievement.EarnedBadge `json:"new_badges"`
	Certificate *course.Certificate       `json:"certificate,omitempty"`
}

type ProgressReport struct {
	course.Report
	Percent         int    `json:"percent"`
	CurrentLessonID string `json:"current_lesson_id,omitempty"`
}

// GetLockState is the pure lock projection, exposed for callers that already
// hold a structure and a completion set.
func GetLockState(s course.CourseStructure, completions course.CompletionSet) course.LockState {
	return course.ResolveLocks(s, completions)
}

type engine struct {
	clock        clock.Clock
	courses      course.Repository
	assessments  assessment.Repository
	achievements achievement.Repository
	evaluator    *achievement.Evaluator
	logger       *slog.Logger

	locks    *keyedMutex
	sessions *registry
}

func NewEngine(
	clk clock.Clock,
	courses course.Repository,
	assessments assessment.Repository,
	achievements achievement.Repository,
	evaluator *achievement.Evaluator,
	logger *slog.Logger,
) Engine {
	return &engine{
		clock:        clk,
		courses:      courses,
		assessments:  assessments,
		achievements: achievements,
		evaluator:    evaluator,
		logger:       logger,
		locks:        newKeyedMutex(),
		sessions:     newRegistry(),
	}
}

func courseKey(userID uuid.UUID, courseID string) string {
	return "course:" + userID.String() + ":" + courseID
}

func (e *engine) LoadCourseStructure(ctx context.Context, courseID string) (course.CourseStructure, error) {
	s, err := e.courses.GetCourseStructure(ctx, courseID)
	if err != nil {
		return course.CourseStructure{}, errors.Trace(err)
	}

	return s, nil
}

func (e *engine) StoreCourseStructure(ctx context.Context, s course.CourseStructure) error {
	if err := s.Validate(); err != nil {
		return err
	}

	return errors.Trace(e.courses.StoreCourseStructure(ctx, course.NewCourseStructure(s)))
}

// Enroll starts an enrollment, or returns the existing one.
func (e *engine) Enroll(ctx context.Context, userID uuid.UUID, courseID string) (course.Enrollment, error) {
	unlock := e.locks.Lock(courseKey(userID, courseID))
	defer unlock()

	if _, err := e.courses.GetCourseStructure(ctx, courseID); err != nil {
		return course.Enrollment{}, errors.Trace(err)
	}

	existing, err := e.courses.GetEnrollment(ctx, userID, courseID)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, course.ErrNotEnrolled) {
		return course.Enrollment{}, errors.Trace(err)
	}

	now := e.clock.Now()
	enrollment := course.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		StartedAt:      now,
		LastAccessedAt: now,
	}

	if err := e.courses.StoreEnrollment(ctx, enrollment); err != nil {
		return course.Enrollment{}, errors.Trace(err)
	}

	e.logger.InfoContext(ctx, "enrolled", "user_id", userID, "course_id", courseID)

	return enrollment, nil
}

// tracker rebuilds the learner's tracker from storage. Callers that mutate it
// must hold the course lock.
func (e *engine) tracker(ctx context.Context, userID uuid.UUID, courseID string) (*course.Tracker, error) {
	s, err := e.courses.GetCourseStructure(ctx, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	enrollment, err := e.courses.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	records, err := e.courses.GetCompletions(ctx, userID, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return course.NewTracker(e.clock, s, enrollment, records), nil
}

func (e *engine) LockState(ctx context.Context, userID uuid.UUID, courseID string) (course.LockState, error) {
	t, err := e.tracker(ctx, userID, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return t.LockState(), nil
}

func (e *engine) OpenLesson(ctx context.Context, userID uuid.UUID, courseID, lessonID string) (course.Lesson, error) {
	unlock := e.locks.Lock(courseKey(userID, courseID))
	defer unlock()

	t, err := e.tracker(ctx, userID, courseID)
	if err != nil {
		return course.Lesson{}, errors.Trace(err)
	}

	lesson, err := t.Open(lessonID)
	if err != nil {
		return course.Lesson{}, errors.Trace(err)
	}

	if err := e.courses.StoreEnrollment(ctx, t.Enrollment()); err != nil {
		return course.Lesson{}, errors.Trace(err)
	}

	return lesson, nil
}

// MarkLessonComplete completes a lesson and persists the result. The lock
// check and the write happen under the learner's course lock, so a lesson
// that was locked when checked can never end up completed.
func (e *engine) MarkLessonComplete(ctx context.Context, userID uuid.UUID, courseID, lessonID string) (CompletionResult, error) {
	result, completed, err := e.applyCompletion(ctx, userID, courseID, lessonID, func(t *course.Tracker) (course.Enrollment, error) {
		return t.MarkComplete(lessonID)
	})
	if err != nil {
		return CompletionResult{}, errors.Trace(err)
	}

	if completed {
		result.NewBadges = e.evaluateBadgesBestEffort(ctx, userID)
	}

	return result, nil
}

// applyCompletion runs mutate against a fresh tracker and writes back what
// changed. It reports whether lessonID went from incomplete to complete or the
// course got its completion recorded.
func (e *engine) applyCompletion(
	ctx context.Context,
	userID uuid.UUID,
	courseID, lessonID string,
	mutate func(t *course.Tracker) (course.Enrollment, error),
) (CompletionResult, bool, error) {
	unlock := e.locks.Lock(courseKey(userID, courseID))
	defer unlock()

	t, err := e.tracker(ctx, userID, courseID)
	if err != nil {
		return CompletionResult{}, false, errors.Trace(err)
	}

	_, wasCompleted := t.Completion(lessonID)

	var finished *course.CourseCompletedEvent
	t.OnCourseCompleted(func(ev course.CourseCompletedEvent) {
		finished = &ev
	})
	t.OnModuleCompleted(func(ev course.ModuleCompletedEvent) {
		e.logger.InfoContext(ctx, "module completed", "user_id", ev.UserID, "course_id", ev.CourseID, "module_id", ev.ModuleID)
	})

	before := t.Enrollment()

	enrollment, err := mutate(t)
	if err != nil {
		return CompletionResult{}, false, errors.Trace(err)
	}

	record, isCompleted := t.Completion(lessonID)
	completed := isCompleted && !wasCompleted

	// A previous call may have stored the final completion but not the
	// enrollment that goes with it.
	if finished == nil {
		if repaired, ok := t.Reconcile(); ok {
			enrollment = repaired
			finished = &course.CourseCompletedEvent{UserID: userID, CourseID: courseID, CompletedAt: *repaired.CompletedAt}
		}
	}

	if completed {
		if err := e.courses.AppendCompletion(ctx, userID, courseID, record); err != nil {
			return CompletionResult{}, false, errors.Trace(err)
		}
	}

	if enrollment != before {
		if err := e.courses.StoreEnrollment(ctx, enrollment); err != nil {
			return CompletionResult{}, false, errors.Trace(err)
		}
	}

	result := CompletionResult{
		Enrollment: enrollment,
		Progress:   t.Progress(),
	}

	if finished != nil {
		e.logger.InfoContext(ctx, "course completed", "user_id", userID, "course_id", courseID)

		cert, err := e.issueCertificate(ctx, userID, courseID)
		if err != nil {
			e.logger.ErrorContext(ctx, "certificate issuance failed", "user_id", userID, "course_id", courseID, "error", err)
		} else {
			result.Certificate = &cert
		}
	}

	return result, completed || finished != nil, nil
}

// issueCertificate stores a certificate unless one exists and returns the one
// that ends up stored.
func (e *engine) issueCertificate(ctx context.Context, userID uuid.UUID, courseID string) (course.Certificate, error) {
	if err := e.courses.StoreCertificate(ctx, course.NewCertificate(userID, courseID, e.clock.Now())); err != nil {
		return course.Certificate{}, errors.Trace(err)
	}

	cert, err := e.courses.GetCertificate(ctx, userID, courseID)

	return cert, errors.Trace(err)
}

// Certificate returns the learner's certificate for a course. A completed
// enrollment whose certificate was never written gets one now.
func (e *engine) Certificate(ctx context.Context, userID uuid.UUID, courseID string) (course.Certificate, error) {
	cert, err := e.courses.GetCertificate(ctx, userID, courseID)
	if err == nil {
		return cert, nil
	}

	if !errors.Is(err, course.ErrCertificateNotFound) {
		return course.Certificate{}, errors.Trace(err)
	}

	enrollment, eerr := e.courses.GetEnrollment(ctx, userID, courseID)
	if eerr != nil {
		return course.Certificate{}, errors.Trace(eerr)
	}

	if !enrollment.IsCompleted() {
		return course.Certificate{}, errors.Trace(err)
	}

	cert, err = e.issueCertificate(ctx, userID, courseID)

	return cert, errors.Trace(err)
}

func (e *engine) Progress(ctx context.Context, userID uuid.UUID, courseID string) (ProgressReport, error) {
	t, err := e.tracker(ctx, userID, courseID)
	if err != nil {
		return ProgressReport{}, errors.Trace(err)
	}

	report := t.Report()
	out := ProgressReport{
		Report:  report,
		Percent: report.Progress.Percent(),
	}

	if l, ok := t.CurrentLesson(); ok {
		out.CurrentLessonID = l.ID
	}

	return out, nil
}

func (e *engine) reports(ctx context.Context, userID uuid.UUID) ([]course.Report, []course.CourseStructure, error) {
	enrollments, err := e.courses.GetEnrollments(ctx, userID)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}

	reports := make([]course.Report, 0, len(enrollments))
	structures := make([]course.CourseStructure, 0, len(enrollments))
	for _, enrollment := range enrollments {
		s, err := e.courses.GetCourseStructure(ctx, enrollment.CourseID)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}

		records, err := e.courses.GetCompletions(ctx, userID, enrollment.CourseID)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}

		reports = append(reports, course.NewTracker(e.clock, s, enrollment, records).Report())
		structures = append(structures, s)
	}

	return reports, structures, nil
}

func (e *engine) Summary(ctx context.Context, userID uuid.UUID) (course.Summary, error) {
	reports, _, err := e.reports(ctx, userID)
	if err != nil {
		return course.Summary{}, errors.Trace(err)
	}

	return course.Summarize(reports...), nil
}
