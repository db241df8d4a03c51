package cli

import (
	"fmt"

	"github.com/isdelr/taskmanager/internal/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("failed to apply database migrations: %w", err)
			}
			version, err := database.Version(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			log.Info().Str("database", cfg.DatabasePath).Int64("version", version).Msg("Database is up to date")
			return nil
		},
	}
}
