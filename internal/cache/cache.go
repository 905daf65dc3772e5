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

const (
	keyDisplayName = "display_name"
	keyLastSync    = "last_sync"
)

// Cache is the local SQLite store: persisted feedback/news windows, the
// prompted display name and sync bookkeeping.
type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS windows (
			name       TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	return errors.Join(errs...)
}

// SaveWindow stores the encoded contents of a bounded window.
func (c *Cache) SaveWindow(name string, data []byte) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO windows (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, name, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving window %s: %w", name, err)
	}
	return nil
}

// LoadWindow returns nil, nil for a window that was never saved.
func (c *Cache) LoadWindow(name string) ([]byte, error) {
	var data string
	err := c.readDB.QueryRow("SELECT data FROM windows WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading window %s: %w", name, err)
	}
	return []byte(data), nil
}

// Windows lists the saved windows.
func (c *Cache) Windows() ([]WindowInfo, error) {
	rows, err := c.readDB.Query("SELECT name, length(data), updated_at FROM windows ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	defer rows.Close()

	var out []WindowInfo
	for rows.Next() {
		var w WindowInfo
		if err := rows.Scan(&w.Name, &w.Bytes, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning window: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DisplayName returns the name the user typed the first time feedback had
// no host identity. Empty means none was saved.
func (c *Cache) DisplayName() (string, error) {
	v, err := c.getMeta(keyDisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (c *Cache) SetDisplayName(name string) error {
	return c.setMeta(keyDisplayName, name)
}

// SetLastSync records the time of the last successful panel refresh.
func (c *Cache) SetLastSync() error {
	return c.setMeta(keyLastSync, time.Now().Format(time.RFC3339))
}

func (c *Cache) LastSync() (time.Time, error) {
	v, err := c.getMeta(keyLastSync)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

// NeedsRefresh reports whether the panels were last synced longer than
// interval ago, or never.
func (c *Cache) NeedsRefresh(interval time.Duration) bool {
	t, err := c.LastSync()
	if err != nil {
		return true
	}
	return time.Since(t) > interval
}

// Clear drops every saved window and all metadata.
func (c *Cache) Clear() error {
	_, err := c.writeDB.Exec("DELETE FROM windows; DELETE FROM meta;")
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Stats returns the number of saved windows and the database file size.
func (c *Cache) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := c.readDB.QueryRow("SELECT COUNT(*) FROM windows").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting windows: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	return count, info.Size(), nil
}

func (c *Cache) getMeta(key string) (string, error) {
	var value string
	err := c.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	return value, err
}

func (c *Cache) setMeta(key, value string) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}
