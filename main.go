package main

import (
	"github.com/kashguard/go-mpc-treasury/cmd/db"
	"github.com/kashguard/go-mpc-treasury/cmd/env"
	"github.com/kashguard/go-mpc-treasury/cmd/server"
	"github.com/kashguard/go-mpc-treasury/cmd/token"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "treasury",
		Short: "MPC treasury signing coordinator",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print command help")
			}
		},
	}

	rootCmd.AddCommand(
		server.New(),
		db.New(),
		token.New(),
		env.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
