package state

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock's pool
// satisfies it too, which keeps the store unit-testable without a server.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path store operations.
var preparedStatements = map[string]string{
	"upsert_lead_state": `INSERT INTO lead_states (lead_id, status, follow_up_count, last_contact, next_action)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (lead_id) DO UPDATE SET
			status = EXCLUDED.status,
			follow_up_count = lead_states.follow_up_count + 1,
			last_contact = EXCLUDED.last_contact,
			next_action = EXCLUDED.next_action
		RETURNING lead_id, status, follow_up_count, last_contact, next_action`,
	"get_lead_state": `SELECT lead_id, status, follow_up_count, last_contact, next_action FROM lead_states WHERE lead_id = $1`,
	"insert_failure": `INSERT INTO lead_failures (id, lead_id, error, created_at) VALUES ($1, $2, $3, $4)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lead_states (
	lead_id         TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	follow_up_count INTEGER NOT NULL DEFAULT 1,
	last_contact    TIMESTAMPTZ NOT NULL DEFAULT now(),
	next_action     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS lead_failures (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id    TEXT NOT NULL,
	error      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lead_states_status ON lead_states(status);
CREATE INDEX IF NOT EXISTS idx_lead_failures_lead_id ON lead_failures(lead_id);
CREATE INDEX IF NOT EXISTS idx_lead_failures_created_at ON lead_failures(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]model.LeadState, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lead_id, status, follow_up_count, last_contact, next_action
		 FROM lead_states ORDER BY lead_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load states")
	}
	defer rows.Close()

	var states []model.LeadState
	for rows.Next() {
		var st model.LeadState
		if err := rows.Scan(&st.LeadID, &st.Status, &st.FollowUpCount, &st.LastContact, &st.NextAction); err != nil {
			return nil, eris.Wrap(err, "postgres: scan state")
		}
		states = append(states, st)
	}
	return states, eris.Wrap(rows.Err(), "postgres: load states iterate")
}

func (s *PostgresStore) Upsert(ctx context.Context, leadID string, status model.LeadStatus, nextAction string) (model.LeadState, error) {
	var st model.LeadState
	err := s.pool.QueryRow(ctx,
		`INSERT INTO lead_states (lead_id, status, follow_up_count, last_contact, next_action)
		 VALUES ($1, $2, 1, $3, $4)
		 ON CONFLICT (lead_id) DO UPDATE SET
			status = EXCLUDED.status,
			follow_up_count = lead_states.follow_up_count + 1,
			last_contact = EXCLUDED.last_contact,
			next_action = EXCLUDED.next_action
		 RETURNING lead_id, status, follow_up_count, last_contact, next_action`,
		leadID, string(status), time.Now().UTC(), nextAction,
	).Scan(&st.LeadID, &st.Status, &st.FollowUpCount, &st.LastContact, &st.NextAction)
	if err != nil {
		return model.LeadState{}, eris.Wrapf(err, "postgres: upsert %s", leadID)
	}
	return st, nil
}

func (s *PostgresStore) RecordFailure(ctx context.Context, leadID string, procErr error) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lead_failures (id, lead_id, error, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), leadID, procErr.Error(), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: record failure for %s", leadID)
}

func (s *PostgresStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, error, created_at FROM lead_failures ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list failures")
	}
	defer rows.Close()

	var recs []model.FailureRecord
	for rows.Next() {
		var rec model.FailureRecord
		if err := rows.Scan(&rec.ID, &rec.LeadID, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan failure")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list failures iterate")
}
