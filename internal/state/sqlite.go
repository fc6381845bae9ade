package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lead_states (
	lead_id         TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	follow_up_count INTEGER NOT NULL DEFAULT 1,
	last_contact    DATETIME NOT NULL,
	next_action     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS lead_failures (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL,
	error      TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lead_states_status ON lead_states(status);
CREATE INDEX IF NOT EXISTS idx_lead_failures_lead_id ON lead_failures(lead_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]model.LeadState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead_id, status, follow_up_count, last_contact, next_action
		 FROM lead_states ORDER BY lead_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load states")
	}
	defer rows.Close()

	var states []model.LeadState
	for rows.Next() {
		var st model.LeadState
		if err := rows.Scan(&st.LeadID, &st.Status, &st.FollowUpCount, &st.LastContact, &st.NextAction); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan state")
		}
		states = append(states, st)
	}
	return states, eris.Wrap(rows.Err(), "sqlite: load states iterate")
}

func (s *SQLiteStore) Upsert(ctx context.Context, leadID string, status model.LeadStatus, nextAction string) (model.LeadState, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lead_states (lead_id, status, follow_up_count, last_contact, next_action)
		 VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT(lead_id) DO UPDATE SET
			status = excluded.status,
			follow_up_count = lead_states.follow_up_count + 1,
			last_contact = excluded.last_contact,
			next_action = excluded.next_action`,
		leadID, string(status), now, nextAction,
	)
	if err != nil {
		return model.LeadState{}, eris.Wrapf(err, "sqlite: upsert %s", leadID)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT lead_id, status, follow_up_count, last_contact, next_action
		 FROM lead_states WHERE lead_id = ?`,
		leadID,
	)
	var st model.LeadState
	if err := row.Scan(&st.LeadID, &st.Status, &st.FollowUpCount, &st.LastContact, &st.NextAction); err != nil {
		return model.LeadState{}, eris.Wrapf(err, "sqlite: read back %s", leadID)
	}
	return st, nil
}

func (s *SQLiteStore) RecordFailure(ctx context.Context, leadID string, procErr error) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lead_failures (id, lead_id, error, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), leadID, procErr.Error(), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: record failure for %s", leadID)
}

func (s *SQLiteStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, error, created_at FROM lead_failures ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list failures")
	}
	defer rows.Close()

	var recs []model.FailureRecord
	for rows.Next() {
		var rec model.FailureRecord
		if err := rows.Scan(&rec.ID, &rec.LeadID, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan failure")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list failures iterate")
}
