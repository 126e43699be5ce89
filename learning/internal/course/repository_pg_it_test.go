//go:build integration

package course

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XaviFP/manabi/common/cache"
	"github.com/XaviFP/manabi/common/db/dbtest"
)

const migrationsURL = "file://../../migrations"

func TestPGRepository_CourseStructure(t *testing.T) {
	ctx := context.Background()
	repo := NewPGRepository(dbtest.Postgres(t, migrationsURL))

	_, err := repo.GetCourseStructure(ctx, "c1")
	assert.ErrorIs(t, err, ErrCourseNotFound)

	s := twoModuleCourse()
	require.NoError(t, repo.StoreCourseStructure(ctx, s))

	got, err := repo.GetCourseStructure(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	s.Title = "Go basics, second edition"
	require.NoError(t, repo.StoreCourseStructure(ctx, s))

	got, err = repo.GetCourseStructure(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Go basics, second edition", got.Title)

	err = repo.StoreCourseStructure(ctx, CourseStructure{})
	var ve *ValidationErrors
	assert.ErrorAs(t, err, &ve)
}

func TestPGRepository_Progress(t *testing.T) {
	ctx := context.Background()
	repo := NewPGRepository(dbtest.Postgres(t, migrationsURL))
	require.NoError(t, repo.StoreCourseStructure(ctx, twoModuleCourse()))

	userID := uuid.New()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.GetEnrollment(ctx, userID, "c1")
	assert.ErrorIs(t, err, ErrNotEnrolled)

	e := Enrollment{UserID: userID, CourseID: "c1", StartedAt: start, LastAccessedAt: start}
	require.NoError(t, repo.StoreEnrollment(ctx, e))

	first := CompletionRecord{LessonID: "l1", CompletedAt: start.Add(time.Minute)}
	require.NoError(t, repo.AppendCompletion(ctx, userID, "c1", first))
	require.NoError(t, repo.AppendCompletion(ctx, userID, "c1", CompletionRecord{LessonID: "l1", CompletedAt: start.Add(time.Hour)}))
	require.NoError(t, repo.AppendCompletion(ctx, userID, "c1", CompletionRecord{LessonID: "l2", CompletedAt: start.Add(2 * time.Minute)}))

	records, err := repo.GetCompletions(ctx, userID, "c1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "l1", records[0].LessonID)
	assert.True(t, first.CompletedAt.Equal(records[0].CompletedAt))

	completedAt := start.Add(time.Hour)
	e.LastAccessedAt = completedAt
	e.CompletedAt = &completedAt
	require.NoError(t, repo.StoreEnrollment(ctx, e))

	later := start.Add(48 * time.Hour)
	e.CompletedAt = &later
	require.NoError(t, repo.StoreEnrollment(ctx, e))

	got, err := repo.GetEnrollment(ctx, userID, "c1")
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completedAt.Equal(*got.CompletedAt))

	all, err := repo.GetEnrollments(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPGRepository_ForeignKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewPGRepository(dbtest.Postgres(t, migrationsURL))
	require.NoError(t, repo.StoreCourseStructure(ctx, twoModuleCourse()))

	userID := uuid.New()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	err := repo.StoreEnrollment(ctx, Enrollment{UserID: userID, CourseID: "missing", StartedAt: now, LastAccessedAt: now})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	err = repo.AppendCompletion(ctx, userID, "c1", CompletionRecord{LessonID: "l1", CompletedAt: now})
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestPGRepository_Certificate(t *testing.T) {
	ctx := context.Background()
	repo := NewPGRepository(dbtest.Postgres(t, migrationsURL))

	userID := uuid.New()
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.GetCertificate(ctx, userID, "c1")
	assert.ErrorIs(t, err, ErrCertificateNotFound)

	first := NewCertificate(userID, "c1", issued)
	require.NoError(t, repo.StoreCertificate(ctx, first))
	require.NoError(t, repo.StoreCertificate(ctx, NewCertificate(userID, "c1", issued.Add(time.Hour))))

	got, err := repo.GetCertificate(ctx, userID, "c1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestRedisRepository_Live(t *testing.T) {
	ctx := context.Background()
	pg := NewPGRepository(dbtest.Postgres(t, migrationsURL))
	repo := NewRedisRepository(cache.NewCache(dbtest.Redis(t)), pg, time.Minute)

	s := twoModuleCourse()
	require.NoError(t, repo.StoreCourseStructure(ctx, s))

	got, err := repo.GetCourseStructure(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	// Served from the cache now.
	got, err = repo.GetCourseStructure(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, s, got)
}
