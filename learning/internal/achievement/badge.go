package achievement

import (
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

var (
	ErrBadgeNotFound  = errors.New("achievement: badge not found")
	ErrInvalidCatalog = errors.New("achievement: invalid badge catalog")
)

type RequirementKind string

const (
	RequirementLessonsCompleted         RequirementKind = "lessons_completed"
	RequirementCoursesCompleted         RequirementKind = "courses_completed"
	RequirementStudyMinutes             RequirementKind = "study_minutes"
	RequirementAssessmentsPassed        RequirementKind = "assessments_passed"
	RequirementAdvancedCoursesCompleted RequirementKind = "advanced_courses_completed"
)

func (k RequirementKind) IsValid() bool {
	switch k {
	case RequirementLessonsCompleted,
		RequirementCoursesCompleted,
		RequirementStudyMinutes,
		RequirementAssessmentsPassed,
		RequirementAdvancedCoursesCompleted:
		return true
	}

	return false
}

// Requirement is met once the learner's counter for Kind reaches Threshold.
type Requirement struct {
	Kind      RequirementKind `json:"kind"`
	Threshold int             `json:"threshold"`
}

// Met looks at nothing but the learner's aggregate state, so the decision for
// one badge never depends on another.
func (r Requirement) Met(s UserState) bool {
	var have int

	switch r.Kind {
	case RequirementLessonsCompleted:
		have = s.LessonsCompleted
	case RequirementCoursesCompleted:
		have = s.CoursesCompleted
	case RequirementStudyMinutes:
		have = int(s.StudyTime / time.Minute)
	case RequirementAssessmentsPassed:
		have = s.AssessmentsPassed
	case RequirementAdvancedCoursesCompleted:
		have = s.AdvancedCoursesCompleted
	default:
		return false
	}

	return have >= r.Threshold
}

type Badge struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Requirement Requirement `json:"requirement"`
}

// EarnedBadge is an entry of the append-only ledger. Once written it is never
// changed or removed.
type EarnedBadge struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	BadgeID  string    `json:"badge_id"`
	EarnedAt time.Time `json:"earned_at"`
}

// UserState is the learner aggregate badges are evaluated against.
type UserState struct {
	UserID                   uuid.UUID
	LessonsCompleted         int
	CoursesCompleted         int
	AdvancedCoursesCompleted int
	AssessmentsPassed        int
	StudyTime                time.Duration
	// Earned holds the ids of badges the learner already has.
	Earned map[string]struct{}
}

func (s UserState) HasEarned(badgeID string) bool {
	_, ok := s.Earned[badgeID]
	return ok
}

// NewEarnedSet is a convenience for building UserState.Earned.
func NewEarnedSet(badgeIDs ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(badgeIDs))
	for _, id := range badgeIDs {
		out[id] = struct{}{}
	}

	return out
}

// DefaultCatalog is the set of badges the product ships with.
func DefaultCatalog() []Badge {
	return []Badge{
		{
			ID:          "first-course",
			Name:        "First Course",
			Description: "Complete your first course",
			Icon:        "star",
			Requirement: Requirement{Kind: RequirementCoursesCompleted, Threshold: 1},
		},
		{
			ID:          "dedicated",
			Name:        "Dedicated",
			Description: "Complete 5 courses",
			Icon:        "award",
			Requirement: Requirement{Kind: RequirementCoursesCompleted, Threshold: 5},
		},
		{
			ID:          "marathoner",
			Name:        "Marathoner",
			Description: "Study for 50 hours",
			Icon:        "clock",
			Requirement: Requirement{Kind: RequirementStudyMinutes, Threshold: 50 * 60},
		},
		{
			ID:          "expert",
			Name:        "Expert",
			Description: "Complete an advanced course",
			Icon:        "trophy",
			Requirement: Requirement{Kind: RequirementAdvancedCoursesCompleted, Threshold: 1},
		},
	}
}

// ValidateCatalog checks badge ids are unique and every requirement is known
// and positive.
func ValidateCatalog(catalog []Badge) error {
	seen := make(map[string]struct{}, len(catalog))
	for _, b := range catalog {
		if b.ID == "" {
			return errors.Annotate(ErrInvalidCatalog, "badge without id")
		}

		if _, ok := seen[b.ID]; ok {
			return errors.Annotatef(ErrInvalidCatalog, "duplicate badge %q", b.ID)
		}
		seen[b.ID] = struct{}{}

		if !b.Requirement.Kind.IsValid() {
			return errors.Annotatef(ErrInvalidCatalog, "badge %q has unknown requirement %q", b.ID, b.Requirement.Kind)
		}

		if b.Requirement.Threshold <= 0 {
			return errors.Annotatef(ErrInvalidCatalog, "badge %q needs a positive threshold", b.ID)
		}
	}

	return nil
}
