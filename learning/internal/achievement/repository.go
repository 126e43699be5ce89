package achievement

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/XaviFP/manabi/common/db"
	"github.com/XaviFP/manabi/common/pagination"
)

type EarnedBadgeConnection = pagination.Connection[EarnedBadge]

// EarnedBadgeCursor positions a page in the ledger of one learner.
type EarnedBadgeCursor struct {
	EarnedAt time.Time `json:"earned_at"`
	ID       uuid.UUID `json:"id"`
}

// Repository stores the earned badge ledger. Entries are only ever added.
type Repository interface {
	// AppendEarned stores b unless the learner already holds that badge, in
	// which case it reports false.
	AppendEarned(ctx context.Context, b EarnedBadge) (bool, error)
	EarnedBadgeIDs(ctx context.Context, userID uuid.UUID) ([]string, error)
	ListEarned(ctx context.Context, userID uuid.UUID, p pagination.Pagination) (EarnedBadgeConnection, error)
}

type pgRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) AppendEarned(ctx context.Context, b EarnedBadge) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO earned_badges (id, user_id, badge_id, earned_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, badge_id) DO NOTHING`,
		b.ID, b.UserID, b.BadgeID, b.EarnedAt,
	)
	if err != nil {
		return false, errors.Trace(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Trace(err)
	}

	return n == 1, nil
}

func (r *pgRepository) EarnedBadgeIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT badge_id FROM earned_badges WHERE user_id = $1 ORDER BY earned_at, id`,
		userID,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Trace(err)
		}

		out = append(out, id)
	}

	return out, errors.Trace(rows.Err())
}

// ListEarned pages through the ledger oldest first.
func (r *pgRepository) ListEarned(ctx context.Context, userID uuid.UUID, p pagination.Pagination) (EarnedBadgeConnection, error) {
	if err := p.Validate(); err != nil {
		return EarnedBadgeConnection{}, errors.Trace(err)
	}

	var arger db.Argumenter

	whereClauses := []string{fmt.Sprintf("user_id = %s", arger.Add(userID))}

	if !p.Cursor().IsEmpty() {
		var cursor EarnedBadgeCursor
		if err := pagination.FromCursor(p.Cursor(), &cursor); err != nil {
			return EarnedBadgeConnection{}, errors.Annotate(pagination.ErrInvalidPagination, err.Error())
		}

		whereClauses = append(whereClauses, fmt.Sprintf(
			"(earned_at, id) %s (%s, %s)",
			p.Comparator(), arger.Add(cursor.EarnedAt), arger.Add(cursor.ID),
		))
	}

	query := fmt.Sprintf(
		`SELECT id, user_id, badge_id, earned_at
		 FROM earned_badges
		 WHERE %s
		 ORDER BY earned_at %s, id %s
		 LIMIT %s`,
		strings.Join(whereClauses, " AND "),
		p.OrderBy(), p.OrderBy(),
		arger.Add(p.Limit()+1),
	)

	rows, err := r.db.QueryContext(ctx, query, arger.Values()...)
	if err != nil {
		return EarnedBadgeConnection{}, errors.Trace(err)
	}
	defer rows.Close()

	var edges []pagination.Edge[EarnedBadge]
	for rows.Next() {
		var b EarnedBadge
		if err := rows.Scan(&b.ID, &b.UserID, &b.BadgeID, &b.EarnedAt); err != nil {
			return EarnedBadgeConnection{}, errors.Trace(err)
		}

		cursor, err := pagination.ToCursor(EarnedBadgeCursor{EarnedAt: b.EarnedAt, ID: b.ID})
		if err != nil {
			return EarnedBadgeConnection{}, errors.Trace(err)
		}

		edges = append(edges, pagination.Edge[EarnedBadge]{Node: b, Cursor: cursor})
	}

	if err := rows.Err(); err != nil {
		return EarnedBadgeConnection{}, errors.Trace(err)
	}

	return pagination.NewConnection(p, edges), nil
}
