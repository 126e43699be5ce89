package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/XaviFP/manabi/common/config"
)

var rootCmd = &cobra.Command{
	Use:   "learning",
	Short: "Course progression, assessments and achievements service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")

		return config.LoadEnvFile(envFile)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file seeding the environment; variables already set win")
	rootCmd.PersistentFlags().String("migrations", "file://learning/migrations", "migration source URL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
