package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
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
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	building_id  TEXT NOT NULL,
	location     TEXT NOT NULL DEFAULT '',
	verdict      TEXT NOT NULL,
	rules_passed INTEGER NOT NULL,
	rules_total  INTEGER NOT NULL,
	report       TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_building_id ON runs(building_id);
CREATE INDEX IF NOT EXISTS idx_runs_verdict ON runs(verdict);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)

	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, building_id, location, verdict, rules_passed, rules_total, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.BuildingID, run.Location, string(run.Verdict),
		run.RulesPassed, run.RulesTotal, string(reportJSON), run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, building_id, location, verdict, rules_passed, rules_total, report, created_at
		 FROM runs WHERE id = ?`,
		id,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", id)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, building_id, location, verdict, rules_passed, rules_total, report, created_at
		FROM runs WHERE 1=1`
	var args []any

	if filter.BuildingID != "" {
		query += ` AND building_id = ?`
		args = append(args, filter.BuildingID)
	}
	if filter.Verdict != "" {
		query += ` AND verdict = ?`
		args = append(args, string(filter.Verdict))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limitOf(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func prepareRun(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var verdict, reportJSON string

	err := row.Scan(&r.ID, &r.Source, &r.BuildingID, &r.Location, &verdict,
		&r.RulesPassed, &r.RulesTotal, &reportJSON, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.Verdict = model.Verdict(verdict)
	if err := json.Unmarshal([]byte(reportJSON), &r.Report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	return &r, nil
}
