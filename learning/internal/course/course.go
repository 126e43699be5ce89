package course

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

var (
	ErrCourseNotFound      = errors.New("course: course not found")
	ErrLessonNotFound      = errors.New("course: lesson not found")
	ErrNotEnrolled         = errors.New("course: user is not enrolled in course")
	ErrCertificateNotFound = errors.New("course: certificate not found")
	ErrLocked              = errors.New("course: lesson is locked")
	ErrQuizNotPassed       = errors.New("course: quiz lesson requires a passing assessment")
	ErrNotQuizLesson       = errors.New("course: lesson is not a quiz")
)

// IsNotFound reports whether err refers to a course, lesson, enrollment or
// certificate that does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrLessonNotFound) ||
		errors.Is(err, ErrNotEnrolled) ||
		errors.Is(err, ErrCertificateNotFound)
}

type LessonType string

const (
	LessonTypeVideo    LessonType = "video"
	LessonTypeDocument LessonType = "document"
	LessonTypeQuiz     LessonType = "quiz"
)

func (t LessonType) IsValid() bool {
	switch t {
	case LessonTypeVideo, LessonTypeDocument, LessonTypeQuiz:
		return true
	}

	return false
}

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Lesson carries no completion or lock flag: both are derived from the
// CompletionSet on read.
type Lesson struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	DurationLabel string     `json:"duration_label"`
	Type          LessonType `json:"type"`
	Order         int        `json:"order"`
	// AssessmentID links a quiz lesson to the assessment that gates it.
	AssessmentID string `json:"assessment_id,omitempty"`
}

type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Order   int      `json:"order"`
	Lessons []Lesson `json:"lessons"`
}

// CourseStructure is immutable once loaded. Replacing a course means storing a
// whole new structure.
type CourseStructure struct {
	CourseID string   `json:"course_id"`
	Title    string   `json:"title"`
	Level    Level    `json:"level,omitempty"`
	Modules  []Module `json:"modules"`
}

// Enrollment is a learner's relationship to one course. Progress is never
// stored on it; see Tracker.Progress.
type Enrollment struct {
	UserID         uuid.UUID  `json:"user_id"`
	CourseID       string     `json:"course_id"`
	StartedAt      time.Time  `json:"started_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func (e Enrollment) IsCompleted() bool {
	return e.CompletedAt != nil
}

// NewCourseStructure returns a copy of s with modules and lessons sorted by
// their Order. Ties keep the given sequence.
func NewCourseStructure(s CourseStructure) CourseStructure {
	out := CourseStructure{
		CourseID: s.CourseID,
		Title:    s.Title,
		Level:    s.Level,
		Modules:  make([]Module, len(s.Modules)),
	}

	for i, m := range s.Modules {
		lessons := make([]Lesson, len(m.Lessons))
		copy(lessons, m.Lessons)
		sort.SliceStable(lessons, func(a, b int) bool {
			return lessons[a].Order < lessons[b].Order
		})

		m.Lessons = lessons
		out.Modules[i] = m
	}

	sort.SliceStable(out.Modules, func(a, b int) bool {
		return out.Modules[a].Order < out.Modules[b].Order
	})

	return out
}

// Lessons flattens the structure into traversal order: modules in order,
// lessons within each module in order.
func (s CourseStructure) Lessons() []Lesson {
	var out []Lesson
	for _, m := range s.Modules {
		out = append(out, m.Lessons...)
	}

	return out
}

func (s CourseStructure) TotalLessons() int {
	var total int
	for _, m := range s.Modules {
		total += len(m.Lessons)
	}

	return total
}

// Lesson looks a lesson up by id.
func (s CourseStructure) Lesson(id string) (Lesson, error) {
	for _, m := range s.Modules {
		for _, l := range m.Lessons {
			if l.ID == id {
				return l, nil
			}
		}
	}

	return Lesson{}, errors.Annotatef(ErrLessonNotFound, "lesson %q in course %q", id, s.CourseID)
}

// ModuleOf returns the module containing the lesson.
func (s CourseStructure) ModuleOf(lessonID string) (Module, error) {
	for _, m := range s.Modules {
		for _, l := range m.Lessons {
			if l.ID == lessonID {
				return m, nil
			}
		}
	}

	return Module{}, errors.Annotatef(ErrLessonNotFound, "lesson %q in course %q", lessonID, s.CourseID)
}

// Validate reports every structural problem found, as a *ValidationErrors.
func (s CourseStructure) Validate() error {
	ve := NewValidationErrors()

	if s.CourseID == "" {
		ve.Add(ErrorKeyNoCourseID)
	}

	moduleIDs := make(map[string]struct{}, len(s.Modules))
	lessonIDs := make(map[string]struct{})

	for _, m := range s.Modules {
		if _, seen := moduleIDs[m.ID]; seen {
			ve.Add(ErrorKeyDuplicateModule)
		}
		moduleIDs[m.ID] = struct{}{}

		for _, l := range m.Lessons {
			if l.ID == "" {
				ve.Add(ErrorKeyNoLessonID)
				continue
			}

			if _, seen := lessonIDs[l.ID]; seen {
				ve.Add(ErrorKeyDuplicateLesson)
			}
			lessonIDs[l.ID] = struct{}{}

			if !l.Type.IsValid() {
				ve.Add(ErrorKeyUnknownLessonType)
			}

			if l.Type == LessonTypeQuiz && l.AssessmentID == "" {
				ve.Add(ErrorKeyQuizWithoutAssessment)
			}
		}
	}

	if ve.HasErrors() {
		return ve
	}

	return nil
}
