// Package command holds small helpers for assembling the cobra CLI.
package command

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewSubcommandGroup groups subcommands under a parent command that only
// prints its usage when invoked bare.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print command help")
			}
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}
