package token

import (
	"fmt"

	"github.com/kashguard/go-mpc-treasury/internal/auth"
	"github.com/kashguard/go-mpc-treasury/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// New mints a member token for local development. The token is printed to
// stdout so it can be piped straight into curl or the SDK.
func New() *cobra.Command {
	var member string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development member token",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenExpiry)

			token, err := jwtManager.Generate(member)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to generate token")
			}

			fmt.Println(token)
		},
	}

	cmd.Flags().StringVarP(&member, "member", "m", "", "Member address to mint a token for")
	_ = cmd.MarkFlagRequired("member")

	return cmd
}
