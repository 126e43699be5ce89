package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoModuleCourse has two modules of two lessons each. The last lesson is a
// quiz gated by assessment "quiz-1".
func twoModuleCourse() CourseStructure {
	return NewCourseStructure(CourseStructure{
		CourseID: "c1",
		Title:    "Go basics",
		Level:    LevelBeginner,
		Modules: []Module{
			{
				ID:    "m2",
				Title: "Practice",
				Order: 2,
				Lessons: []Lesson{
					{ID: "l4", Title: "Check", DurationLabel: "15 min", Type: LessonTypeQuiz, Order: 2, AssessmentID: "quiz-1"},
					{ID: "l3", Title: "Reading", DurationLabel: "Leitura", Type: LessonTypeDocument, Order: 1},
				},
			},
			{
				ID:    "m1",
				Title: "Intro",
				Order: 1,
				Lessons: []Lesson{
					{ID: "l1", Title: "Welcome", DurationLabel: "5:30", Type: LessonTypeVideo, Order: 1},
					{ID: "l2", Title: "Setup", DurationLabel: "10 min", Type: LessonTypeVideo, Order: 2},
				},
			},
		},
	})
}

func TestNewCourseStructure(t *testing.T) {
	s := twoModuleCourse()

	ids := make([]string, 0, 4)
	for _, l := range s.Lessons() {
		ids = append(ids, l.ID)
	}

	assert.Equal(t, []string{"l1", "l2", "l3", "l4"}, ids)
	assert.Equal(t, 4, s.TotalLessons())
	assert.Equal(t, "m1", s.Modules[0].ID)
}

func TestCourseStructure_Lesson(t *testing.T) {
	s := twoModuleCourse()

	l, err := s.Lesson("l3")
	require.NoError(t, err)
	assert.Equal(t, LessonTypeDocument, l.Type)

	m, err := s.ModuleOf("l3")
	require.NoError(t, err)
	assert.Equal(t, "m2", m.ID)

	_, err = s.Lesson("nope")
	assert.ErrorIs(t, err, ErrLessonNotFound)
	assert.True(t, IsNotFound(err))

	_, err = s.ModuleOf("nope")
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestLessonType_IsValid(t *testing.T) {
	assert.True(t, LessonTypeVideo.IsValid())
	assert.True(t, LessonTypeQuiz.IsValid())
	assert.False(t, LessonType("slides").IsValid())
}
