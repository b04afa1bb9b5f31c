package env

import (
	"encoding/json"
	"fmt"

	"github.com/kashguard/go-mpc-treasury/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// New prints the fully resolved server configuration. Intended for local
// debugging of environment overrides; the output includes secrets.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the resolved server configuration",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to render config")
			}

			fmt.Println(string(out))
		},
	}
}
