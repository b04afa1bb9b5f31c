package db

import (
	"context"
	"database/sql"

	"github.com/kashguard/go-mpc-treasury/internal/config"
	"github.com/kashguard/go-mpc-treasury/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			db, err := sql.Open("postgres", cfg.Database.ConnectionString())
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open database")
			}
			defer db.Close()

			applied, err := storage.MigrateDatabase(context.Background(), db)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to migrate database")
			}

			log.Info().Int("applied", applied).Msg("Database migrated")
		},
	}
}
