package course

import (
	"time"

	"github.com/google/uuid"
)

// Certificate proves a learner completed a course. At most one exists per
// learner and course.
type Certificate struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	CourseID string    `json:"course_id"`
	IssuedAt time.Time `json:"issued_at"`
}

func NewCertificate(userID uuid.UUID, courseID string, issuedAt time.Time) Certificate {
	return Certificate{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
		IssuedAt: issuedAt,
	}
}
