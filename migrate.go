package main

import (
	"bulletnotes/config/database"
	"bulletnotes/internal/note/model"
	"bulletnotes/internal/note/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Create or update the notes table, search index and trigger",
	PreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		db := connect(cmd.Context())
		defer database.Close()

		return repository.Migrate(cmd.Context(), db, model.DefaultSearchIndex)
	},
}
