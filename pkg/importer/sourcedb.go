package importer

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Source is a row of the sources table.
type Source struct {
	AdapterID      string
	Dataset        string
	Description    string
	SourceURL      string
	License        string
	LocalPath      *string
	FetchedAt      *int64
	LastCheck      *int64
	LastStatus     *int
	LastError      *string
	// RemoteModified is the Last-Modified time the source advertised at the last check.
	RemoteModified *int64
	UpdatedAt      int64
}

// Stale reports whether the source published data newer than the local copy.
func (s Source) Stale() bool {
	return s.RemoteModified != nil && s.FetchedAt != nil && *s.RemoteModified > *s.FetchedAt
}

// SourceDB keeps the source URL of every dataset, its last download and
// its last availability check in SQLite.
type SourceDB struct {
	db *sql.DB
}

// OpenSourceDB opens (or creates) the SQLite database at path and ensures the
// sources table exists.
func OpenSourceDB(path string) (*SourceDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS sources (
		adapter_id   TEXT PRIMARY KEY,
		dataset      TEXT NOT NULL,
		description  TEXT NOT NULL,
		source_url   TEXT NOT NULL,
		license      TEXT NOT NULL DEFAULT '',
		local_path   TEXT,
		fetched_at   INTEGER,
		last_check   INTEGER,
		last_status  INTEGER,
		last_error   TEXT,
		remote_modified INTEGER,
		updated_at   INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sources table: %w", err)
	}

	return &SourceDB{db: db}, nil
}

// Close closes the database.
func (s *SourceDB) Close() error {
	return s.db.Close()
}

// Seed inserts a row per adapter. Existing rows are kept so that URL
// overrides survive.
func (s *SourceDB) Seed(adapters []Adapter) error {
	const q = `INSERT OR IGNORE INTO sources
		(adapter_id, dataset, description, source_url, license, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, a := range adapters {
		if _, err := s.db.Exec(q, a.ID(), a.Dataset(), a.Description(), a.DefaultURL(), a.License(), now); err != nil {
			return fmt.Errorf("seed %s: %w", a.ID(), err)
		}
	}
	return nil
}

// GetURL returns the current source URL for a given adapter ID.
func (s *SourceDB) GetURL(adapterID string) (string, error) {
	var url string
	err := s.db.QueryRow(`SELECT source_url FROM sources WHERE adapter_id = ?`, adapterID).Scan(&url)
	if err != nil {
		return "", fmt.Errorf("get url for %s: %w", adapterID, err)
	}
	return url, nil
}

// SetURL updates the source URL for a given adapter and records the change timestamp.
func (s *SourceDB) SetURL(adapterID, url string) error {
	res, err := s.db.Exec(
		`UPDATE sources SET source_url = ?, updated_at = ? WHERE adapter_id = ?`,
		url, time.Now().Unix(), adapterID,
	)
	if err != nil {
		return fmt.Errorf("set url for %s: %w", adapterID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("adapter %s not found in sources", adapterID)
	}
	return nil
}

// RecordFetch stores where a source was last downloaded to.
func (s *SourceDB) RecordFetch(adapterID, localPath string) error {
	_, err := s.db.Exec(
		`UPDATE sources SET local_path = ?, fetched_at = ? WHERE adapter_id = ?`,
		localPath, time.Now().Unix(), adapterID,
	)
	if err != nil {
		return fmt.Errorf("record fetch for %s: %w", adapterID, err)
	}
	return nil
}

// LocalPath returns the last downloaded file of the source feeding dataset,
// or "" if it was never fetched.
func (s *SourceDB) LocalPath(dataset string) (string, error) {
	var p sql.NullString
	err := s.db.QueryRow(
		`SELECT local_path FROM sources WHERE dataset = ? ORDER BY fetched_at DESC LIMIT 1`, dataset,
	).Scan(&p)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("local path for %s: %w", dataset, err)
	}
	return p.String, nil
}

// CheckResult is the outcome of one availability check.
type CheckResult struct {
	Status   int       // 0 on network error
	Modified time.Time // Last-Modified, zero when not sent
	Err      error
}

// UpdateCheck persists the result of an availability check. A check without
// Last-Modified keeps the previously known remote time.
func (s *SourceDB) UpdateCheck(adapterID string, r CheckResult) error {
	var errPtr *string
	if r.Err != nil {
		msg := r.Err.Error()
		errPtr = &msg
	}
	var modified *int64
	if !r.Modified.IsZero() {
		m := r.Modified.Unix()
		modified = &m
	}
	_, err := s.db.Exec(
		`UPDATE sources SET last_check = ?, last_status = ?, last_error = ?,
			remote_modified = COALESCE(?, remote_modified)
		WHERE adapter_id = ?`,
		time.Now().Unix(), r.Status, errPtr, modified, adapterID,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", adapterID, err)
	}
	return nil
}

// ListSources returns all sources ordered by adapter_id.
func (s *SourceDB) ListSources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT adapter_id, dataset, description, source_url, license,
		local_path, fetched_at, last_check, last_status, last_error, remote_modified, updated_at
		FROM sources ORDER BY adapter_id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.AdapterID, &src.Dataset, &src.Description, &src.SourceURL,
			&src.License, &src.LocalPath, &src.FetchedAt, &src.LastCheck, &src.LastStatus,
			&src.LastError, &src.RemoteModified, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}
