package course

import (
	"strings"
)

type ErrorKey string

var (
	ErrorKeyNoCourseID            ErrorKey = "NO_COURSE_ID"
	ErrorKeyNoLessonID            ErrorKey = "NO_LESSON_ID"
	ErrorKeyDuplicateModule       ErrorKey = "DUPLICATE_MODULE"
	ErrorKeyDuplicateLesson       ErrorKey = "DUPLICATE_LESSON"
	ErrorKeyUnknownLessonType     ErrorKey = "UNKNOWN_LESSON_TYPE"
	ErrorKeyQuizWithoutAssessment ErrorKey = "QUIZ_WITHOUT_ASSESSMENT"
)

type ValidationErrors struct {
	ErrorKeys []ErrorKey `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		ErrorKeys: []ErrorKey{},
	}
}

// Add records errKey once; repeated problems of the same kind collapse.
func (ve *ValidationErrors) Add(errKey ErrorKey) {
	if ve.Has(errKey) {
		return
	}

	ve.ErrorKeys = append(ve.ErrorKeys, errKey)
}

func (ve *ValidationErrors) Has(errKey ErrorKey) bool {
	for _, k := range ve.ErrorKeys {
		if k == errKey {
			return true
		}
	}

	return false
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.ErrorKeys) > 0
}

func (ve *ValidationErrors) Error() string {
	errorStrings := make([]string, len(ve.ErrorKeys))
	for i, errKey := range ve.ErrorKeys {
		errorStrings[i] = `"` + string(errKey) + `"`
	}
	return `{"errors":[` + strings.Join(errorStrings, ",") + `]}`
}
