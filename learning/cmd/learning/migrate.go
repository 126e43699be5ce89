package main

import (
	"log/slog"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/XaviFP/manabi/common/config"
	"github.com/XaviFP/manabi/common/db"
	"github.com/XaviFP/manabi/common/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.Setup("learning-migrate")

		source, _ := cmd.Flags().GetString("migrations")
		down, _ := cmd.Flags().GetBool("down")

		database, err := db.InitDB(config.LoadDBConfig())
		if err != nil {
			return errors.Annotate(err, "connecting to database")
		}
		defer database.Close()

		if err := db.Migrate(database, source, down); err != nil {
			return errors.Trace(err)
		}

		logger.Info("migrations applied", slog.String("source", source), slog.Bool("down", down))

		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("down", false, "roll every migration back instead")
}
