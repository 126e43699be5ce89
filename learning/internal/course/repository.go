package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	cachelib "github.com/XaviFP/manabi/common/cache"
	"github.com/XaviFP/manabi/common/db"
)

// Repository is the persistence contract of the course package. Completions
// and certificates are append-only.
type Repository interface {
	GetCourseStructure(ctx context.Context, courseID string) (CourseStructure, error)
	StoreCourseStructure(ctx context.Context, s CourseStructure) error

	GetEnrollment(ctx context.Context, userID uuid.UUID, courseID string) (Enrollment, error)
	GetEnrollments(ctx context.Context, userID uuid.UUID) ([]Enrollment, error)
	StoreEnrollment(ctx context.Context, e Enrollment) error

	GetCompletions(ctx context.Context, userID uuid.UUID, courseID string) ([]CompletionRecord, error)
	AppendCompletion(ctx context.Context, userID uuid.UUID, courseID string, r CompletionRecord) error

	GetCertificate(ctx context.Context, userID uuid.UUID, courseID string) (Certificate, error)
	// StoreCertificate keeps the first certificate stored for a learner and
	// course and ignores later ones.
	StoreCertificate(ctx context.Context, c Certificate) error
}

type redisRepository struct {
	cache cachelib.Cache
	db    Repository
	ttl   time.Duration
}

// NewRedisRepository wraps pg with a read-through cache of course
// structures. Everything else goes straight to pg.
func NewRedisRepository(cache cachelib.Cache, pg Repository, ttl time.Duration) Repository {
	return &redisRepository{
		cache: cache,
		db:    pg,
		ttl:   ttl,
	}
}

func (r *redisRepository) structureKey(courseID string) string {
	return fmt.Sprintf("course_structure:%s", courseID)
}

func (r *redisRepository) GetCourseStructure(ctx context.Context, courseID string) (CourseStructure, error) {
	key := r.structureKey(courseID)

	var s CourseStructure
	err := cachelib.GetJSON(ctx, r.cache, key, &s)
	if err == nil {
		return s, nil
	}

	if !errors.Is(err, cachelib.ErrNoValueForKey) {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	s, err = r.db.GetCourseStructure(ctx, courseID)
	if err != nil {
		return CourseStructure{}, errors.Trace(err)
	}

	if err := cachelib.SetJSON(ctx, r.cache, key, s, r.ttl); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}

	return s, nil
}

// StoreCourseStructure replaces the structure and invalidates its cache entry.
func (r *redisRepository) StoreCourseStructure(ctx context.Context, s CourseStructure) error {
	if err := r.db.StoreCourseStructure(ctx, s); err != nil {
		return errors.Trace(err)
	}

	if err := r.cache.Delete(ctx, r.structureKey(s.CourseID)); err != nil {
		slog.WarnContext(ctx, "cache delete failed", "course_id", s.CourseID, "error", err)
	}

	return nil
}

func (r *redisRepository) GetEnrollment(ctx context.Context, userID uuid.UUID, courseID string) (Enrollment, error) {
	return r.db.GetEnrollment(ctx, userID, courseID)
}

func (r *redisRepository) GetEnrollments(ctx context.Context, userID uuid.UUID) ([]Enrollment, error) {
	return r.db.GetEnrollments(ctx, userID)
}

func (r *redisRepository) StoreEnrollment(ctx context.Context, e Enrollment) error {
	return r.db.StoreEnrollment(ctx, e)
}

func (r *redisRepository) GetCompletions(ctx context.Context, userID uuid.UUID, courseID string) ([]CompletionRecord, error) {
	return r.db.GetCompletions(ctx, userID, courseID)
}

func (r *redisRepository) AppendCompletion(ctx context.Context, userID uuid.UUID, courseID string, rec CompletionRecord) error {
	return r.db.AppendCompletion(ctx, userID, courseID, rec)
}

func (r *redisRepository) GetCertificate(ctx context.Context, userID uuid.UUID, courseID string) (Certificate, error) {
	return r.db.GetCertificate(ctx, userID, courseID)
}

func (r *redisRepository) StoreCertificate(ctx context.Context, c Certificate) error {
	return r.db.StoreCertificate(ctx, c)
}

type pgRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) GetCourseStructure(ctx context.Context, courseID string) (CourseStructure, error) {
	var (
		s       CourseStructure
		modules []byte
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT course_id, title, level, modules FROM course_structures WHERE course_id = $1`,
		courseID,
	).Scan(&s.CourseID, &s.Title, &s.Level, &modules)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CourseStructure{}, errors.Annotatef(ErrCourseNotFound, "course %q", courseID)
		}

		return CourseStructure{}, errors.Trace(err)
	}

	if err := json.Unmarshal(modules, &s.Modules); err != nil {
		return CourseStructure{}, errors.Annotatef(err, "decoding modules of course %q", courseID)
	}

	return NewCourseStructure(s), nil
}

func (r *pgRepository) StoreCourseStructure(ctx context.Context, s CourseStructure) error {
	if err := s.Validate(); err != nil {
		return err
	}

	modules, err := json.Marshal(NewCourseStructure(s).Modules)
	if err != nil {
		return errors.Trace(err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO course_structures (course_id, title, level, modules, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (course_id) DO UPDATE SET title = $2, level = $3, modules = $4, updated_at = $5`,
		s.CourseID, s.Title, s.Level, modules, time.Now(),
	)

	return errors.Trace(err)
}

func (r *pgRepository) GetEnrollment(ctx context.Context, userID uuid.UUID, courseID string) (Enrollment, error) {
	var e Enrollment
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, course_id, started_at, last_accessed_at, completed_at
		 FROM enrollments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&e.UserID, &e.CourseID, &e.StartedAt, &e.LastAccessedAt, &e.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Enrollment{}, errors.Annotatef(ErrNotEnrolled, "user %s course %q", userID, courseID)
		}

		return Enrollment{}, errors.Trace(err)
	}

	return e, nil
}

func (r *pgRepository) GetEnrollments(ctx context.Context, userID uuid.UUID) ([]Enrollment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, course_id, started_at, last_accessed_at, completed_at
		 FROM enrollments WHERE user_id = $1
		 ORDER BY started_at, course_id`,
		userID,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()

	var out []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.UserID, &e.CourseID, &e.StartedAt, &e.LastAccessedAt, &e.CompletedAt); err != nil {
			return nil, errors.Trace(err)
		}

		out = append(out, e)
	}

	return out, errors.Trace(rows.Err())
}

// StoreEnrollment upserts e. A stored completed_at is never overwritten.
func (r *pgRepository) StoreEnrollment(ctx context.Context, e Enrollment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO enrollments (user_id, course_id, started_at, last_accessed_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, course_id) DO UPDATE SET
		   last_accessed_at = GREATEST(enrollments.last_accessed_at, $4),
		   completed_at = COALESCE(enrollments.completed_at, $5)`,
		e.UserID, e.CourseID, e.StartedAt, e.LastAccessedAt, e.CompletedAt,
	)
	if db.IsConstraintError(err, "enrollments_course_fkey") {
		return errors.Annotatef(ErrCourseNotFound, "course %q", e.CourseID)
	}

	return errors.Trace(err)
}

func (r *pgRepository) GetCompletions(ctx context.Context, userID uuid.UUID, courseID string) ([]CompletionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lesson_id, completed_at FROM lesson_completions
		 WHERE user_id = $1 AND course_id = $2
		 ORDER BY completed_at, lesson_id`,
		userID, courseID,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()

	var out []CompletionRecord
	for rows.Next() {
		var rec CompletionRecord
		if err := rows.Scan(&rec.LessonID, &rec.CompletedAt); err != nil {
			return nil, errors.Trace(err)
		}

		out = append(out, rec)
	}

	return out, errors.Trace(rows.Err())
}

func (r *pgRepository) AppendCompletion(ctx context.Context, userID uuid.UUID, courseID string, rec CompletionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lesson_completions (user_id, course_id, lesson_id, completed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, course_id, lesson_id) DO NOTHING`,
		userID, courseID, rec.LessonID, rec.CompletedAt,
	)
	if db.IsConstraintError(err, "lesson_completions_enrollment_fkey") {
		return errors.Annotatef(ErrNotEnrolled, "user %s course %q", userID, courseID)
	}

	return errors.Trace(err)
}

func (r *pgRepository) GetCertificate(ctx context.Context, userID uuid.UUID, courseID string) (Certificate, error) {
	var c Certificate
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, course_id, issued_at FROM certificates
		 WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&c.ID, &c.UserID, &c.CourseID, &c.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Certificate{}, errors.Annotatef(ErrCertificateNotFound, "user %s course %q", userID, courseID)
		}

		return Certificate{}, errors.Trace(err)
	}

	return c, nil
}

func (r *pgRepository) StoreCertificate(ctx context.Context, c Certificate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO certificates (id, user_id, course_id, issued_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		c.ID, c.UserID, c.CourseID, c.IssuedAt,
	)

	return errors.Trace(err)
}
