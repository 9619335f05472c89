// Package store persists pipeline runs and their output tables in SQLite
// so that the query API can serve them without recomputing.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/conso-energie/pkg/conso"
	"github.com/hazyhaar/conso-energie/pkg/sector"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// ErrNoRun is returned when the store holds no run yet.
var ErrNoRun = errors.New("no run stored")

// Run describes one stored pipeline run.
type Run struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	Years     []int  `json:"years"`
	Failures  int    `json:"failures"`
}

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

var schema = []string{`CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	years       TEXT NOT NULL,
	failures    INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS consumption (
	run_id       TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	dataset      TEXT NOT NULL,
	level        TEXT NOT NULL,
	zone         TEXT NOT NULL,
	year         INTEGER NOT NULL,
	per_resident REAL NOT NULL,
	PRIMARY KEY (run_id, dataset, level, zone, year)
)`,
	`CREATE TABLE IF NOT EXISTS sectors (
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	level       TEXT NOT NULL,
	zone        TEXT NOT NULL,
	year        INTEGER NOT NULL,
	tertiaire   REAL NOT NULL,
	industrie   REAL NOT NULL,
	agriculture REAL NOT NULL,
	inconnu     REAL NOT NULL,
	PRIMARY KEY (run_id, level, zone, year)
)`,
}

// Open opens (or creates) the results database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	for _, ddl := range schema {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes a run and its six tables in a single transaction.
func (s *Store) SaveRun(ctx context.Context, runID string, res *conso.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, years, failures) VALUES (?, ?, ?, ?)`,
		runID, time.Now().Unix(), joinYears(res.Years), len(res.Failures),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	consStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO consumption (run_id, dataset, level, zone, year, per_resident) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare consumption: %w", err)
	}
	defer consStmt.Close()

	for _, ds := range conso.Datasets {
		for _, lvl := range conso.Levels {
			for _, row := range res.Tables.Consumption(ds, lvl) {
				if _, err := consStmt.ExecContext(ctx, runID, ds.String(), lvl.String(), string(row.Zone), row.Year, row.PerResident); err != nil {
					return fmt.Errorf("insert %s %s/%d: %w", conso.ConsumptionTable(ds, lvl), row.Zone, row.Year, err)
				}
			}
		}
	}

	secStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sectors (run_id, level, zone, year, tertiaire, industrie, agriculture, inconnu) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sectors: %w", err)
	}
	defer secStmt.Close()

	for _, lvl := range conso.Levels {
		for _, row := range res.Tables.Sectors(lvl) {
			v := row.Sectors
			if _, err := secStmt.ExecContext(ctx, runID, lvl.String(), string(row.Zone), row.Year,
				v.Get(sector.Tertiaire), v.Get(sector.Industrie), v.Get(sector.Agriculture), v.Get(sector.Inconnu),
			); err != nil {
				return fmt.Errorf("insert %s %s/%d: %w", conso.SectorTable(lvl), row.Zone, row.Year, err)
			}
		}
	}

	return tx.Commit()
}

// LatestRun returns the most recent run, or ErrNoRun.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	var (
		r     Run
		years string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, created_at, years, failures FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&r.ID, &r.CreatedAt, &years, &r.Failures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	r.Years, err = splitYears(years)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", r.ID, err)
	}
	return &r, nil
}

// GetRun returns the run with the given ID, or ErrNoRun.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		r     Run
		years string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, created_at, years, failures FROM runs WHERE run_id = ?`, runID,
	).Scan(&r.ID, &r.CreatedAt, &years, &r.Failures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNoRun)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	r.Years, err = splitYears(years)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", r.ID, err)
	}
	return &r, nil
}

// Filter narrows a table query. Zero fields match everything.
type Filter struct {
	Year int
	Zone zone.Code
}

func (f Filter) where(args []any) (string, []any) {
	var b strings.Builder
	if f.Year != 0 {
		b.WriteString(" AND year = ?")
		args = append(args, f.Year)
	}
	if !f.Zone.IsZero() {
		b.WriteString(" AND zone = ?")
		args = append(args, string(f.Zone))
	}
	return b.String(), args
}

// Consumption returns the per-resident rows of a run for a dataset and level,
// ordered by year then zone.
func (s *Store) Consumption(ctx context.Context, runID string, ds conso.Dataset, level zone.Kind, f Filter) ([]conso.MetricRow, error) {
	cond, args := f.where([]any{runID, ds.String(), level.String()})
	rows, err := s.db.QueryContext(ctx,
		`SELECT zone, year, per_resident FROM consumption
		WHERE run_id = ? AND dataset = ? AND level = ?`+cond+`
		ORDER BY year, rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("query consumption: %w", err)
	}
	defer rows.Close()

	out := []conso.MetricRow{}
	for rows.Next() {
		var (
			r    conso.MetricRow
			code string
		)
		if err := rows.Scan(&code, &r.Year, &r.PerResident); err != nil {
			return nil, fmt.Errorf("scan consumption: %w", err)
		}
		r.Zone = zone.Code(code)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Sectors returns the sector rows of a run at a level, ordered by year then zone.
func (s *Store) Sectors(ctx context.Context, runID string, level zone.Kind, f Filter) ([]conso.SectorRow, error) {
	cond, args := f.where([]any{runID, level.String()})
	rows, err := s.db.QueryContext(ctx,
		`SELECT zone, year, tertiaire, industrie, agriculture, inconnu FROM sectors
		WHERE run_id = ? AND level = ?`+cond+`
		ORDER BY year, rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("query sectors: %w", err)
	}
	defer rows.Close()

	out := []conso.SectorRow{}
	for rows.Next() {
		var (
			r    conso.SectorRow
			code string
		)
		if err := rows.Scan(&code, &r.Year,
			&r.Sectors[sector.Tertiaire], &r.Sectors[sector.Industrie],
			&r.Sectors[sector.Agriculture], &r.Sectors[sector.Inconnu],
		); err != nil {
			return nil, fmt.Errorf("scan sectors: %w", err)
		}
		r.Zone = zone.Code(code)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes every run but the keep most recent ones.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE run_id NOT IN (
			SELECT run_id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
