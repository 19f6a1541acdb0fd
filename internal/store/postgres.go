package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/MannanGupta05/buildplanwizard/internal/db"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_run": `INSERT INTO runs (id, source, building_id, location, verdict, rules_passed, rules_total, report, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"get_run":    `SELECT id, source, building_id, location, verdict, rules_passed, rules_total, report, created_at FROM runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg, preparedStatements)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source       TEXT NOT NULL,
	building_id  TEXT NOT NULL,
	location     TEXT NOT NULL DEFAULT '',
	verdict      TEXT NOT NULL,
	rules_passed INTEGER NOT NULL,
	rules_total  INTEGER NOT NULL,
	report       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_building_id ON runs(building_id);
CREATE INDEX IF NOT EXISTS idx_runs_verdict ON runs(verdict);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)

	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx, preparedStatements["insert_run"],
		run.ID, run.Source, run.BuildingID, run.Location, string(run.Verdict),
		run.RulesPassed, run.RulesTotal, reportJSON, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.ID)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, preparedStatements["get_run"], id)
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, building_id, location, verdict, rules_passed, rules_total, report, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.BuildingID != "" {
		args = append(args, filter.BuildingID)
		query += fmt.Sprintf(` AND building_id = $%d`, len(args))
	}
	if filter.Verdict != "" {
		args = append(args, string(filter.Verdict))
		query += fmt.Sprintf(` AND verdict = $%d`, len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(` AND source = $%d`, len(args))
	}
	args = append(args, limitOf(filter))
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var verdict string
	var reportJSON []byte

	if err := row.Scan(&r.ID, &r.Source, &r.BuildingID, &r.Location, &verdict,
		&r.RulesPassed, &r.RulesTotal, &reportJSON, &r.CreatedAt); err != nil {
		return nil, err
	}

	r.Verdict = model.Verdict(verdict)
	if err := json.Unmarshal(reportJSON, &r.Report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	return &r, nil
}
