package course

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/tilinna/clock"
)

type ModuleCompletedEvent struct {
	UserID      uuid.UUID
	CourseID    string
	ModuleID    string
	CompletedAt time.Time
}

type CourseCompletedEvent struct {
	UserID      uuid.UUID
	CourseID    string
	CompletedAt time.Time
}

// Tracker owns one learner's completion set for one course. Every mutation
// runs the lock check and the write under the same mutex. Subscribers are
// called after the mutex is released, in registration order.
type Tracker struct {
	mu          sync.Mutex
	clock       clock.Clock
	structure   CourseStructure
	enrollment  Enrollment
	completions CompletionSet

	onModuleCompleted []func(ModuleCompletedEvent)
	onCourseCompleted []func(CourseCompletedEvent)
}

func NewTracker(clk clock.Clock, structure CourseStructure, enrollment Enrollment, records []CompletionRecord) *Tracker {
	return &Tracker{
		clock:       clk,
		structure:   structure,
		enrollment:  enrollment,
		completions: NewCompletionSet(records...),
	}
}

// OnModuleCompleted registers fn to be called once per module going from
// incomplete to complete.
func (t *Tracker) OnModuleCompleted(fn func(ModuleCompletedEvent)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.onModuleCompleted = append(t.onModuleCompleted, fn)
}

// OnCourseCompleted registers fn to be called once, when the last missing
// lesson of the course is completed.
func (t *Tracker) OnCourseCompleted(fn func(CourseCompletedEvent)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.onCourseCompleted = append(t.onCourseCompleted, fn)
}

// MarkComplete completes a non quiz lesson. Completing a lesson twice is a
// no-op. Quiz lessons are completed through RecordQuizResult.
func (t *Tracker) MarkComplete(lessonID string) (Enrollment, error) {
	t.mu.Lock()

	lesson, err := t.structure.Lesson(lessonID)
	if err != nil {
		t.mu.Unlock()
		return Enrollment{}, errors.Trace(err)
	}

	if t.completions.IsCompleted(lessonID) {
		e := t.enrollment
		t.mu.Unlock()
		return e, nil
	}

	if ResolveLocks(t.structure, t.completions).IsLocked(lessonID) {
		t.mu.Unlock()
		return Enrollment{}, errors.Annotatef(ErrLocked, "lesson %q", lessonID)
	}

	if lesson.Type == LessonTypeQuiz {
		t.mu.Unlock()
		return Enrollment{}, errors.Annotatef(ErrQuizNotPassed, "lesson %q", lessonID)
	}

	e, dispatch := t.complete(lessonID)
	t.mu.Unlock()

	dispatch()

	return e, nil
}

// RecordQuizResult applies the outcome of the assessment gating a quiz lesson.
// Only a pass completes the lesson; a fail just counts as a visit.
func (t *Tracker) RecordQuizResult(lessonID string, passed bool) (Enrollment, error) {
	t.mu.Lock()

	lesson, err := t.structure.Lesson(lessonID)
	if err != nil {
		t.mu.Unlock()
		return Enrollment{}, errors.Trace(err)
	}

	if lesson.Type != LessonTypeQuiz {
		t.mu.Unlock()
		return Enrollment{}, errors.Annotatef(ErrNotQuizLesson, "lesson %q", lessonID)
	}

	if t.completions.IsCompleted(lessonID) {
		e := t.enrollment
		t.mu.Unlock()
		return e, nil
	}

	if ResolveLocks(t.structure, t.completions).IsLocked(lessonID) {
		t.mu.Unlock()
		return Enrollment{}, errors.Annotatef(ErrLocked, "lesson %q", lessonID)
	}

	if !passed {
		t.enrollment.LastAccessedAt = t.clock.Now()
		e := t.enrollment
		t.mu.Unlock()
		return e, nil
	}

	e, dispatch := t.complete(lessonID)
	t.mu.Unlock()

	dispatch()

	return e, nil
}

// Reconcile sets CompletedAt on an enrollment whose lessons are all completed
// but which was never marked as such, dating it to the last completion. It
// reports whether the enrollment changed.
func (t *Tracker) Reconcile() (Enrollment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.enrollment.CompletedAt != nil || !ComputeProgress(t.structure, t.completions).IsCompleted() {
		return t.enrollment, false
	}

	var last time.Time
	for _, r := range t.completions {
		if r.CompletedAt.After(last) {
			last = r.CompletedAt
		}
	}

	t.enrollment.CompletedAt = &last

	return t.enrollment, true
}

// Open records a visit to an accessible lesson. Quiz lessons can be opened
// before they are passed.
func (t *Tracker) Open(lessonID string) (Lesson, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lesson, err := t.structure.Lesson(lessonID)
	if err != nil {
		return Lesson{}, errors.Trace(err)
	}

	if ResolveLocks(t.structure, t.completions).IsLocked(lessonID) {
		return Lesson{}, errors.Annotatef(ErrLocked, "lesson %q", lessonID)
	}

	t.enrollment.LastAccessedAt = t.clock.Now()

	return lesson, nil
}

// complete must be called with t.mu held. The returned func fires the events
// the completion produced and must be called after unlocking.
func (t *Tracker) complete(lessonID string) (Enrollment, func()) {
	now := t.clock.Now()

	module, _ := t.structure.ModuleOf(lessonID)
	moduleWasComplete := t.moduleCompleted(module)
	courseWasComplete := ComputeProgress(t.structure, t.completions).IsCompleted()

	t.completions[lessonID] = CompletionRecord{LessonID: lessonID, CompletedAt: now}
	t.enrollment.LastAccessedAt = now

	var (
		moduleEvents []ModuleCompletedEvent
		courseEvents []CourseCompletedEvent
	)

	if !moduleWasComplete && t.moduleCompleted(module) {
		moduleEvents = append(moduleEvents, ModuleCompletedEvent{
			UserID:      t.enrollment.UserID,
			CourseID:    t.structure.CourseID,
			ModuleID:    module.ID,
			CompletedAt: now,
		})
	}

	if !courseWasComplete && ComputeProgress(t.structure, t.completions).IsCompleted() {
		if t.enrollment.CompletedAt == nil {
			completedAt := now
			t.enrollment.CompletedAt = &completedAt
		}

		courseEvents = append(courseEvents, CourseCompletedEvent{
			UserID:      t.enrollment.UserID,
			CourseID:    t.structure.CourseID,
			CompletedAt: now,
		})
	}

	moduleHandlers := append([]func(ModuleCompletedEvent){}, t.onModuleCompleted...)
	courseHandlers := append([]func(CourseCompletedEvent){}, t.onCourseCompleted...)

	return t.enrollment, func() {
		for _, ev := range moduleEvents {
			for _, fn := range moduleHandlers {
				fn(ev)
			}
		}

		for _, ev := range courseEvents {
			for _, fn := range courseHandlers {
				fn(ev)
			}
		}
	}
}

func (t *Tracker) moduleCompleted(m Module) bool {
	for _, l := range m.Lessons {
		if !t.completions.IsCompleted(l.ID) {
			return false
		}
	}

	return true
}

func (t *Tracker) Structure() CourseStructure {
	return t.structure
}

func (t *Tracker) Enrollment() Enrollment {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.enrollment
}

// Completions returns a copy of the completion set.
func (t *Tracker) Completions() CompletionSet {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.completions.clone()
}

// Completion returns the record for lessonID, if the lesson is completed.
func (t *Tracker) Completion(lessonID string) (CompletionRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.completions[lessonID]

	return r, ok
}

func (t *Tracker) LockState() LockState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return ResolveLocks(t.structure, t.completions)
}

func (t *Tracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	return ComputeProgress(t.structure, t.completions)
}

// CurrentLesson returns the first open lesson that is not completed yet, or
// the last lesson once everything is done. It reports false for a course
// without lessons.
func (t *Tracker) CurrentLesson() (Lesson, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lessons := t.structure.Lessons()
	if len(lessons) == 0 {
		return Lesson{}, false
	}

	locks := ResolveLocks(t.structure, t.completions)
	for _, l := range lessons {
		if !t.completions.IsCompleted(l.ID) && !locks.IsLocked(l.ID) {
			return l, true
		}
	}

	return lessons[len(lessons)-1], true
}

func (t *Tracker) StudyTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	return StudyTime(t.structure, t.completions)
}

func (t *Tracker) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Report{
		Enrollment: t.enrollment,
		Progress:   ComputeProgress(t.structure, t.completions),
		StudyTime:  StudyTime(t.structure, t.completions),
	}
}
