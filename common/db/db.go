package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/XaviFP/manabi/common/config"
)

func DSN(c config.DBConfig) string {
	return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable", c.User, c.Password, c.Name, c.Host, c.Port)
}

func InitDB(c config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(c))
	if err != nil {
		return nil, errors.Trace(err)
	}

	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Annotate(err, "db: ping")
	}

	return db, nil
}

func pqError(err error) (*pq.Error, bool) {
	if err == nil {
		return nil, false
	}

	// juju/errors wraps with Unwrap, pkg/errors with Cause; try both.
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr, true
	}

	pgErr, ok := pkgerrors.Cause(err).(*pq.Error)

	return pgErr, ok
}

func IsConstraintError(err error, constraintName string) bool {
	pgErr, ok := pqError(err)
	if !ok {
		return false
	}

	return pgErr.Constraint == constraintName
}

type Argumenter struct {
	values []any
}

func (a *Argumenter) Add(v any) string {
	a.values = append(a.values, v)

	return fmt.Sprintf("$%d", len(a.values))
}

func (a *Argumenter) Values() []any {
	return a.values
}
