package learning

import (
	"context"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/XaviFP/manabi/common/pagination"
	"github.com/XaviFP/manabi/learning/internal/achievement"
	"github.com/XaviFP/manabi/learning/internal/course"
)

func badgesKey(userID uuid.UUID) string {
	return "badges:" + userID.String()
}

// UserState aggregates everything badge requirements look at.
func (e *engine) UserState(ctx context.Context, userID uuid.UUID) (achievement.UserState, error) {
	reports, structures, err := e.reports(ctx, userID)
	if err != nil {
		return achievement.UserState{}, errors.Trace(err)
	}

	state := achievement.UserState{UserID: userID}
	for i, r := range reports {
		state.LessonsCompleted += r.Progress.CompletedLessons
		state.StudyTime += r.StudyTime

		if r.Enrollment.IsCompleted() {
			state.CoursesCompleted++

			if structures[i].Level == course.LevelAdvanced {
				state.AdvancedCoursesCompleted++
			}
		}
	}

	state.AssessmentsPassed, err = e.assessments.CountPassed(ctx, userID)
	if err != nil {
		return achievement.UserState{}, errors.Trace(err)
	}

	earned, err := e.achievements.EarnedBadgeIDs(ctx, userID)
	if err != nil {
		return achievement.UserState{}, errors.Trace(err)
	}
	state.Earned = achievement.NewEarnedSet(earned...)

	return state, nil
}

// EvaluateBadges appends every newly earned badge to the ledger and returns
// the ones this call added.
func (e *engine) EvaluateBadges(ctx context.Context, userID uuid.UUID) ([]achievement.EarnedBadge, error) {
	unlock := e.locks.Lock(badgesKey(userID))
	defer unlock()

	state, err := e.UserState(ctx, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	out := []achievement.EarnedBadge{}
	for _, b := range e.evaluator.Evaluate(state) {
		inserted, err := e.achievements.AppendEarned(ctx, b)
		if err != nil {
			return out, errors.Trace(err)
		}

		if !inserted {
			continue
		}

		e.logger.InfoContext(ctx, "badge earned", "user_id", userID, "badge_id", b.BadgeID)
		out = append(out, b)
	}

	return out, nil
}

// evaluateBadgesBestEffort runs EvaluateBadges after a change that already
// got persisted. A failure is only logged; the next evaluation catches up.
func (e *engine) evaluateBadgesBestEffort(ctx context.Context, userID uuid.UUID) []achievement.EarnedBadge {
	earned, err := e.EvaluateBadges(ctx, userID)
	if err != nil {
		e.logger.WarnContext(ctx, "badge evaluation failed", "user_id", userID, "error", err)
	}

	if earned == nil {
		return []achievement.EarnedBadge{}
	}

	return earned
}

func (e *engine) ListBadges(ctx context.Context, userID uuid.UUID, p pagination.Pagination) (achievement.EarnedBadgeConnection, error) {
	conn, err := e.achievements.ListEarned(ctx, userID, p)

	return conn, errors.Trace(err)
}

func (e *engine) Catalog() []achievement.Badge {
	return e.evaluator.Catalog()
}
