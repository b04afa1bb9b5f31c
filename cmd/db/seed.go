package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/kashguard/go-mpc-treasury/internal/auth"
	"github.com/kashguard/go-mpc-treasury/internal/config"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/storage"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

// Hardhat development accounts, usable against any local EVM chain.
var devMembers = []string{
	"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
	"0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
	"0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc",
}

func newSeed() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert a development treasury and print member tokens",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			db, err := sql.Open("postgres", cfg.Database.ConnectionString())
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open database")
			}
			defer db.Close()

			if err := seed(context.Background(), cfg, db); err != nil {
				log.Fatal().Err(err).Msg("Failed to seed database")
			}
		},
	}
}

func seed(ctx context.Context, cfg config.Server, db *sql.DB) error {
	// The seeded wallet key is freshly generated; it does not correspond to
	// any real signing-network wallet, which is fine for API development.
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return err
	}

	id := uuid.NewString()
	capability := treasury.NewSigningCapability("cap_"+uuid.NewString(), "dw_"+uuid.NewString())

	t, err := treasury.NewTreasury(id, capability, priv.PubKey().SerializeCompressed(), oracle.CurveSecp256k1, devMembers, 2, "enc_dev_1", time.Now().UTC())
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := t.Fund(treasury.FeeTokenProtocol, 10_000_000_000, now); err != nil {
		return err
	}
	if err := t.Fund(treasury.FeeTokenGas, 10_000_000_000, now); err != nil {
		return err
	}

	store := storage.NewPostgresStore(db)
	if err := store.CreateTreasury(ctx, t); err != nil {
		return err
	}

	log.Info().Str("treasury_id", t.ID).Int("members", len(t.Members)).Int("threshold", t.Threshold).Msg("Seeded development treasury")

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenExpiry)
	for _, member := range t.Members {
		token, err := jwtManager.Generate(member)
		if err != nil {
			return err
		}
		log.Info().Str("member", member).Str("token", token).Msg("Development member token")
	}

	return nil
}
