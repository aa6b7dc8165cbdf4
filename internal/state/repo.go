package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Path     string
	Checksum string
	Size     int64
	SyncedAt time.Time
}

// RunRow represents one completed sync pass.
type RunRow struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Uploaded   int
	Deleted    int
	Failed     int
}

// UpsertFile inserts or replaces the record of a synchronized file.
func (db *DB) UpsertFile(f FileRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO files (path, checksum, size, synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum  = excluded.checksum,
			size      = excluded.size,
			synced_at = excluded.synced_at
	`, f.Path, f.Checksum, f.Size, f.SyncedAt)
	if err != nil {
		return fmt.Errorf("state: upsert file: %w", err)
	}
	return nil
}

// DeleteFile removes the record of a file.
func (db *DB) DeleteFile(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("state: delete file: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every recorded file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("state: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// RecordRun appends a row describing a completed sync pass.
func (db *DB) RecordRun(r RunRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO runs (started_at, finished_at, scanned, uploaded, deleted, failed)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.StartedAt, r.FinishedAt, r.Scanned, r.Uploaded, r.Deleted, r.Failed)
	if err != nil {
		return fmt.Errorf("state: record run: %w", err)
	}
	return nil
}

// LastRun returns the most recent sync pass, or nil if none is recorded.
func (db *DB) LastRun() (*RunRow, error) {
	var r RunRow
	err := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, scanned, uploaded, deleted, failed
		FROM runs ORDER BY id DESC LIMIT 1
	`).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Scanned, &r.Uploaded, &r.Deleted, &r.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: last run: %w", err)
	}
	return &r, nil
}
