package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"sort"

	// Registers the postgres driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/util"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresStore is the durable home of treasury aggregates. The aggregate
// root is one JSONB row; sign requests live in their own table so the root
// row stays small and requests stay queryable. Every update runs in a single
// transaction guarded by an optimistic version check.
type PostgresStore struct {
	db *sql.DB
}

var _ treasury.Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store on an existing connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateTreasury(ctx context.Context, t *treasury.Treasury) error {
	payload, err := marshalRoot(t)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO treasuries (id, payload, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, payload, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert treasury")
	}

	if err := upsertRequests(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit treasury insert")
	}

	return nil
}

func (s *PostgresStore) GetTreasury(ctx context.Context, id string) (*treasury.Treasury, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM treasuries WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(treasury.ErrTreasuryNotFound, "treasury %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load treasury")
	}

	t := &treasury.Treasury{}
	if err := json.Unmarshal(payload, t); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal treasury")
	}
	t.Requests = map[uint64]*treasury.SignRequest{}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM sign_requests WHERE treasury_id = $1`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sign requests")
	}
	defer rows.Close()

	for rows.Next() {
		var reqPayload []byte
		if err := rows.Scan(&reqPayload); err != nil {
			return nil, errors.Wrap(err, "failed to scan sign request")
		}
		req := &treasury.SignRequest{}
		if err := json.Unmarshal(reqPayload, req); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal sign request")
		}
		t.Requests[req.ID] = req
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate sign requests")
	}

	return t, nil
}

func (s *PostgresStore) UpdateTreasury(ctx context.Context, t *treasury.Treasury) error {
	payload, err := marshalRoot(t)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE treasuries SET payload = $2, version = version + 1, updated_at = $3 WHERE id = $1 AND version = $4`,
		t.ID, payload, t.UpdatedAt, t.Version,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update treasury")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM treasuries WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
			return errors.Wrap(err, "failed to check treasury existence")
		}
		if !exists {
			return errors.Wrapf(treasury.ErrTreasuryNotFound, "treasury %s", t.ID)
		}
		return errors.Wrapf(treasury.ErrVersionConflict, "treasury %s at version %d", t.ID, t.Version)
	}

	if err := upsertRequests(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit treasury update")
	}

	t.Version++

	return nil
}

func (s *PostgresStore) ListTreasuries(ctx context.Context, limit int, offset int) ([]*treasury.Treasury, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM treasuries ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list treasuries")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan treasury id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate treasuries")
	}

	out := make([]*treasury.Treasury, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetTreasury(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, nil
}

// marshalRoot serializes the aggregate without its request ledger; requests
// are stored in their own table.
func marshalRoot(t *treasury.Treasury) ([]byte, error) {
	root := *t
	root.Requests = nil

	payload, err := json.Marshal(&root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal treasury")
	}
	return payload, nil
}

func upsertRequests(ctx context.Context, tx *sql.Tx, t *treasury.Treasury) error {
	for _, req := range t.Requests {
		payload, err := json.Marshal(req)
		if err != nil {
			return errors.Wrap(err, "failed to marshal sign request")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO sign_requests (treasury_id, request_id, payload, state, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (treasury_id, request_id)
			 DO UPDATE SET payload = EXCLUDED.payload, state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
			t.ID, int64(req.ID), payload, string(req.State), req.CreatedAt, req.UpdatedAt,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to upsert sign request %d", req.ID)
		}
	}

	return nil
}

// MigrateDatabase applies all embedded migrations that have not run yet, in
// filename order, each in its own transaction.
func MigrateDatabase(ctx context.Context, db *sql.DB) (int, error) {
	log := util.LogFromContext(ctx)

	_, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`,
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to ensure schema_migrations table")
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return 0, errors.Wrap(err, "failed to read embedded migrations")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		var exists bool
		if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, name).Scan(&exists); err != nil {
			return applied, errors.Wrap(err, "failed to check migration state")
		}
		if exists {
			continue
		}

		stmt, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return applied, errors.Wrapf(err, "failed to read migration %s", name)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, errors.Wrap(err, "failed to begin migration transaction")
		}
		if _, err := tx.ExecContext(ctx, string(stmt)); err != nil {
			_ = tx.Rollback()
			return applied, errors.Wrapf(err, "failed to apply migration %s", name)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback()
			return applied, errors.Wrapf(err, "failed to record migration %s", name)
		}
		if err := tx.Commit(); err != nil {
			return applied, errors.Wrapf(err, "failed to commit migration %s", name)
		}

		log.Info().Str("migration", name).Msg("Applied migration")
		applied++
	}

	return applied, nil
}
