// Package store provides a SQLite-backed cache of per-session statistics so
// repeated report and analysis passes skip re-parsing unchanged session logs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/lunarfall/swevals/internal/stats"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_tracker (
	file_path  TEXT PRIMARY KEY,
	mtime_ns   INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_stats (
	session_id TEXT PRIMARY KEY,
	file_path  TEXT NOT NULL,
	stats_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_stats_file ON session_stats(file_path);
`

// Cache is the statistics cache database.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a session log.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// Fresh reports whether the tracked entry for filePath still matches the
// given mtime and size. A missing entry is stale.
func (c *Cache) Fresh(filePath string, mtimeNs, sizeBytes int64) (bool, error) {
	var fi FileInfo
	err := c.db.QueryRow(
		"SELECT mtime_ns, size_bytes FROM file_tracker WHERE file_path = ?",
		filePath,
	).Scan(&fi.MtimeNs, &fi.SizeBytes)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.MtimeNs == mtimeNs && fi.SizeBytes == sizeBytes, nil
}

// SaveStats replaces the cached statistics for one session log and updates
// its file tracking entry.
func (c *Cache) SaveStats(filePath string, mtimeNs, sizeBytes int64, all []stats.Statistics) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM session_stats WHERE file_path = ?", filePath); err != nil {
		return err
	}
	for _, s := range all {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshaling stats for %s: %w", s.SessionID, err)
		}
		_, err = tx.Exec(
			"INSERT OR REPLACE INTO session_stats (session_id, file_path, stats_json) VALUES (?, ?, ?)",
			s.SessionID, filePath, string(data),
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes) VALUES (?, ?, ?)",
		filePath, mtimeNs, sizeBytes,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadStats reads the cached statistics for one session log.
func (c *Cache) LoadStats(filePath string) ([]stats.Statistics, error) {
	rows, err := c.db.Query(
		"SELECT stats_json FROM session_stats WHERE file_path = ? ORDER BY session_id",
		filePath,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var all []stats.Statistics
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var s stats.Statistics
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("parsing cached stats: %w", err)
		}
		all = append(all, s)
	}
	return all, rows.Err()
}

// DeleteFile drops the tracking entry and cached statistics for one log.
func (c *Cache) DeleteFile(filePath string) error {
	if _, err := c.db.Exec("DELETE FROM session_stats WHERE file_path = ?", filePath); err != nil {
		return err
	}
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}
