package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists entries to a sqlite database so lookups survive
// restarts. Writes go through a single-connection handle; reads use a
// separate read-only handle.
type SQLiteStore struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// OpenSQLite opens (and if needed creates) the cache database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	writeDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &SQLiteStore{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS cache (
			category      TEXT NOT NULL,
			key           TEXT NOT NULL,
			payload       BLOB NOT NULL,
			created_at    DATETIME NOT NULL,
			expires_at    DATETIME NOT NULL,
			access_count  INTEGER NOT NULL DEFAULT 0,
			last_accessed DATETIME,
			PRIMARY KEY (category, key)
		);
		CREATE INDEX IF NOT EXISTS idx_cache_category_expires ON cache(category, expires_at);
	`)
	if err != nil {
		return fmt.Errorf("initializing cache schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(category, key string) (*Entry, bool, error) {
	row := s.readDB.QueryRow(`
		SELECT payload, created_at, expires_at, access_count, last_accessed
		FROM cache WHERE category = ? AND key = ?
	`, category, key)

	entry := &Entry{Category: category, Key: key}
	var lastAccessed sql.NullTime
	err := row.Scan(&entry.Payload, &entry.CreatedAt, &entry.ExpiresAt, &entry.AccessCount, &lastAccessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cache entry: %w", err)
	}
	if lastAccessed.Valid {
		entry.LastAccessedAt = lastAccessed.Time
	}
	return entry, true, nil
}

func (s *SQLiteStore) Put(entry *Entry) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO cache (category, key, payload, created_at, expires_at, access_count, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			access_count = excluded.access_count,
			last_accessed = excluded.last_accessed
	`, entry.Category, entry.Key, entry.Payload, entry.CreatedAt, entry.ExpiresAt, entry.AccessCount, nullTime(entry.LastAccessedAt))
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(category, key string) error {
	if _, err := s.writeDB.Exec(`DELETE FROM cache WHERE category = ? AND key = ?`, category, key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Touch(category, key string, at time.Time) error {
	_, err := s.writeDB.Exec(`
		UPDATE cache SET access_count = access_count + 1, last_accessed = ?
		WHERE category = ? AND key = ?
	`, at, category, key)
	if err != nil {
		return fmt.Errorf("updating cache access metadata: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Entries() ([]*Entry, error) {
	rows, err := s.readDB.Query(`
		SELECT category, key, payload, created_at, expires_at, access_count, last_accessed
		FROM cache
	`)
	if err != nil {
		return nil, fmt.Errorf("scanning cache: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		var lastAccessed sql.NullTime
		if err := rows.Scan(&entry.Category, &entry.Key, &entry.Payload, &entry.CreatedAt, &entry.ExpiresAt, &entry.AccessCount, &lastAccessed); err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}
		if lastAccessed.Valid {
			entry.LastAccessedAt = lastAccessed.Time
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) PurgeExpired(now time.Time) (int, error) {
	res, err := s.writeDB.Exec(`DELETE FROM cache WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("purging expired cache entries: %w", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(purged), nil
}

func (s *SQLiteStore) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
