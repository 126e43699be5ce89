package assessment

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

// Record is a stored session snapshot together with its owner. CourseID and
// LessonID are set when the attempt gates a quiz lesson.
type Record struct {
	UserID    uuid.UUID
	CourseID  string
	LessonID  string
	Snapshot  Snapshot
	Passed    bool
	UpdatedAt time.Time
}

type Repository interface {
	GetDefinition(ctx context.Context, id string) (Definition, error)
	StoreDefinition(ctx context.Context, d Definition) error

	GetSession(ctx context.Context, id uuid.UUID) (Record, error)
	// StoreSession upserts the latest snapshot of a session.
	StoreSession(ctx context.Context, r Record) error
	// CountPassed returns how many distinct assessments the user has passed.
	CountPassed(ctx context.Context, userID uuid.UUID) (int, error)
}

type redisRepository struct {
	cache cachelib.Cache
	db    Repository
	ttl   time.Duration
}

// NewRedisRepository caches definitions in front of pg. Sessions change on
// every answer and are not cached.
func NewRedisRepository(cache cachelib.Cache, pg Repository, ttl time.Duration) Repository {
	return &redisRepository{cache: cache, db: pg, ttl: ttl}
}

func (r *redisRepository) definitionKey(id string) string {
	return fmt.Sprintf("assessment_definition:%s", id)
}

func (r *redisRepository) GetDefinition(ctx context.Context, id string) (Definition, error) {
	key := r.definitionKey(id)

	var d Definition
	err := cachelib.GetJSON(ctx, r.cache, key, &d)
	if err == nil {
		return d, nil
	}

	if !errors.Is(err, cachelib.ErrNoValueForKey) {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	d, err = r.db.GetDefinition(ctx, id)
	if err != nil {
		return Definition{}, errors.Trace(err)
	}

	if err := cachelib.SetJSON(ctx, r.cache, key, d, r.ttl); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}

	return d, nil
}

func (r *redisRepository) StoreDefinition(ctx context.Context, d Definition) error {
	if err := r.db.StoreDefinition(ctx, d); err != nil {
		return errors.Trace(err)
	}

	if err := r.cache.Delete(ctx, r.definitionKey(d.ID)); err != nil {
		slog.WarnContext(ctx, "cache delete failed", "definition_id", d.ID, "error", err)
	}

	return nil
}

func (r *redisRepository) GetSession(ctx context.Context, id uuid.UUID) (Record, error) {
	return r.db.GetSession(ctx, id)
}

func (r *redisRepository) StoreSession(ctx context.Context, rec Record) error {
	return r.db.StoreSession(ctx, rec)
}

func (r *redisRepository) CountPassed(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.db.CountPassed(ctx, userID)
}

type pgRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) GetDefinition(ctx context.Context, id string) (Definition, error) {
	var (
		d         Definition
		questions []byte
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, kind, time_limit_seconds, passing_score, questions
		 FROM assessment_definitions WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Title, &d.Kind, &d.TimeLimitSeconds, &d.PassingScore, &questions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Definition{}, errors.Annotatef(ErrDefinitionNotFound, "assessment %q", id)
		}

		return Definition{}, errors.Trace(err)
	}

	if err := json.Unmarshal(questions, &d.Questions); err != nil {
		return Definition{}, errors.Annotatef(err, "decoding questions of assessment %q", id)
	}

	return d, nil
}

func (r *pgRepository) StoreDefinition(ctx context.Context, d Definition) error {
	if err := d.Validate(); err != nil {
		return errors.Trace(err)
	}

	questions, err := json.Marshal(d.Questions)
	if err != nil {
		return errors.Trace(err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO assessment_definitions (id, title, kind, time_limit_seconds, passing_score, questions, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   title = $2, kind = $3, time_limit_seconds = $4, passing_score = $5, questions = $6, updated_at = $7`,
		d.ID, d.Title, d.Kind, d.TimeLimitSeconds, d.PassingScore, questions, time.Now(),
	)

	return errors.Trace(err)
}

func (r *pgRepository) GetSession(ctx context.Context, id uuid.UUID) (Record, error) {
	var (
		rec      Record
		snapshot []byte
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, course_id, lesson_id, passed, snapshot, updated_at
		 FROM assessment_sessions WHERE id = $1`,
		id,
	).Scan(&rec.UserID, &rec.CourseID, &rec.LessonID, &rec.Passed, &snapshot, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, errors.Annotatef(ErrSessionNotFound, "session %s", id)
		}

		return Record{}, errors.Trace(err)
	}

	if err := json.Unmarshal(snapshot, &rec.Snapshot); err != nil {
		return Record{}, errors.Annotatef(err, "decoding session %s", id)
	}

	return rec, nil
}

func (r *pgRepository) StoreSession(ctx context.Context, rec Record) error {
	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return errors.Trace(err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO assessment_sessions
		   (id, user_id, definition_id, course_id, lesson_id, status, passed, snapshot, started_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET status = $6, passed = $7, snapshot = $8, updated_at = $10`,
		rec.Snapshot.ID, rec.UserID, rec.Snapshot.DefinitionID, rec.CourseID, rec.LessonID,
		rec.Snapshot.Status, rec.Passed, snapshot, rec.Snapshot.StartedAt, rec.UpdatedAt,
	)
	if db.IsConstraintError(err, "assessment_sessions_definition_fkey") {
		return errors.Annotatef(ErrDefinitionNotFound, "definition %q", rec.Snapshot.DefinitionID)
	}

	return errors.Trace(err)
}

func (r *pgRepository) CountPassed(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT definition_id) FROM assessment_sessions WHERE user_id = $1 AND passed`,
		userID,
	).Scan(&n)

	return n, errors.Trace(err)
}
