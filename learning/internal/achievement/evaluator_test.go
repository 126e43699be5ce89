package achievement

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilinna/clock"
)

var (
	evalNow    = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	evalUserID = uuid.MustParse("0d6b3d3e-53b1-4e65-a0b3-9a8a4d0f8f4c")
)

func badgeIDs(earned []EarnedBadge) []string {
	out := make([]string, 0, len(earned))
	for _, b := range earned {
		out = append(out, b.BadgeID)
	}

	return out
}

func TestRequirement_Met(t *testing.T) {
	s := UserState{
		LessonsCompleted:         12,
		CoursesCompleted:         2,
		AdvancedCoursesCompleted: 0,
		AssessmentsPassed:        3,
		StudyTime:                90*time.Minute + 59*time.Second,
	}

	tests := []struct {
		req  Requirement
		want bool
	}{
		{req: Requirement{Kind: RequirementLessonsCompleted, Threshold: 12}, want: true},
		{req: Requirement{Kind: RequirementLessonsCompleted, Threshold: 13}, want: false},
		{req: Requirement{Kind: RequirementCoursesCompleted, Threshold: 1}, want: true},
		{req: Requirement{Kind: RequirementStudyMinutes, Threshold: 90}, want: true},
		{req: Requirement{Kind: RequirementStudyMinutes, Threshold: 91}, want: false},
		{req: Requirement{Kind: RequirementAssessmentsPassed, Threshold: 3}, want: true},
		{req: Requirement{Kind: RequirementAdvancedCoursesCompleted, Threshold: 1}, want: false},
		{req: Requirement{Kind: "streak", Threshold: 1}, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.req.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Met(s))
		})
	}
}

func TestValidateCatalog(t *testing.T) {
	require.NoError(t, ValidateCatalog(DefaultCatalog()))

	tests := []struct {
		name    string
		catalog []Badge
	}{
		{name: "missing_id", catalog: []Badge{{Requirement: Requirement{Kind: RequirementCoursesCompleted, Threshold: 1}}}},
		{name: "duplicate", catalog: []Badge{
			{ID: "a", Requirement: Requirement{Kind: RequirementCoursesCompleted, Threshold: 1}},
			{ID: "a", Requirement: Requirement{Kind: RequirementCoursesCompleted, Threshold: 2}},
		}},
		{name: "unknown_kind", catalog: []Badge{{ID: "a", Requirement: Requirement{Kind: "streak", Threshold: 1}}}},
		{name: "zero_threshold", catalog: []Badge{{ID: "a", Requirement: Requirement{Kind: RequirementCoursesCompleted}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateCatalog(tt.catalog), ErrInvalidCatalog)

			_, err := NewEvaluator(clock.NewMock(evalNow), tt.catalog)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	evaluator, err := NewEvaluator(clock.NewMock(evalNow), DefaultCatalog())
	require.NoError(t, err)

	t.Run("first_course", func(t *testing.T) {
		before := UserState{UserID: evalUserID, LessonsCompleted: 3}
		assert.Empty(t, evaluator.Evaluate(before))

		after := UserState{UserID: evalUserID, LessonsCompleted: 4, CoursesCompleted: 1}
		earned := evaluator.Evaluate(after)
		require.Len(t, earned, 1)
		assert.Equal(t, "first-course", earned[0].BadgeID)
		assert.Equal(t, evalUserID, earned[0].UserID)
		assert.Equal(t, evalNow, earned[0].EarnedAt)
		assert.NotEqual(t, uuid.Nil, earned[0].ID)

		after.Earned = NewEarnedSet("first-course")
		assert.Empty(t, evaluator.Evaluate(after))
	})

	t.Run("several_at_once", func(t *testing.T) {
		s := UserState{
			UserID:                   evalUserID,
			CoursesCompleted:         5,
			AdvancedCoursesCompleted: 1,
			StudyTime:                50 * time.Hour,
		}

		assert.Equal(t, []string{"first-course", "dedicated", "marathoner", "expert"}, badgeIDs(evaluator.Evaluate(s)))
	})

	t.Run("order_independent", func(t *testing.T) {
		s := UserState{
			UserID:                   evalUserID,
			CoursesCompleted:         5,
			AdvancedCoursesCompleted: 1,
			StudyTime:                10 * time.Hour,
			Earned:                   NewEarnedSet("dedicated"),
		}

		want := badgeIDs(evaluator.Evaluate(s))
		sort.Strings(want)

		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 10; i++ {
			catalog := DefaultCatalog()
			rng.Shuffle(len(catalog), func(a, b int) { catalog[a], catalog[b] = catalog[b], catalog[a] })

			shuffled, err := NewEvaluator(clock.NewMock(evalNow), catalog)
			require.NoError(t, err)

			got := badgeIDs(shuffled.Evaluate(s))
			sort.Strings(got)
			assert.Equal(t, want, got)
		}

		assert.Equal(t, []string{"expert", "first-course"}, want)
	})

	t.Run("monotonic_ledger", func(t *testing.T) {
		states := []UserState{
			{UserID: evalUserID},
			{UserID: evalUserID, CoursesCompleted: 1},
			{UserID: evalUserID, CoursesCompleted: 1, StudyTime: 49 * time.Hour},
			{UserID: evalUserID, CoursesCompleted: 2, StudyTime: 51 * time.Hour},
			{UserID: evalUserID, CoursesCompleted: 5, StudyTime: 51 * time.Hour, AdvancedCoursesCompleted: 1},
		}

		ledger := NewEarnedSet()
		var sizes []int
		for _, s := range states {
			s.Earned = ledger
			for _, b := range evaluator.Evaluate(s) {
				_, dup := ledger[b.BadgeID]
				require.False(t, dup, "badge %s earned twice", b.BadgeID)
				ledger[b.BadgeID] = struct{}{}
			}
			sizes = append(sizes, len(ledger))
		}

		assert.Equal(t, []int{0, 1, 1, 2, 4}, sizes)
	})
}

func TestEvaluator_Badge(t *testing.T) {
	evaluator, err := NewEvaluator(clock.NewMock(evalNow), DefaultCatalog())
	require.NoError(t, err)

	b, err := evaluator.Badge("expert")
	require.NoError(t, err)
	assert.Equal(t, RequirementAdvancedCoursesCompleted, b.Requirement.Kind)

	_, err = evaluator.Badge("nope")
	assert.ErrorIs(t, err, ErrBadgeNotFound)

	assert.Len(t, evaluator.Catalog(), 4)
}
