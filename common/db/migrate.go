package db

import (
	"database/sql"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/juju/errors"
)

// Migrate applies every pending migration found at sourceURL, for example
// "file://learning/migrations". With down set it rolls everything back instead.
func Migrate(database *sql.DB, sourceURL string, down bool) error {
	driver, err := postgres.WithInstance(database, &postgres.Config{})
	if err != nil {
		return errors.Trace(err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return errors.Annotatef(err, "loading migrations from %s", sourceURL)
	}

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Trace(err)
	}

	return nil
}
