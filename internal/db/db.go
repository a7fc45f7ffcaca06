package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"eve-chainmap/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// DefaultPath prefers the working directory so the DB is stable across
// go run / go build, falling back to the executable directory.
func DefaultPath() string {
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "chainmap.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "chainmap.db")
}

// Open opens (or creates) the SQLite database, runs migrations and seeds
// the universe tables on first use. ":memory:" gives a private database.
func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath()
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	if err := d.seed(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("seed db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS wh_types (
				name      TEXT PRIMARY KEY,
				dest      TEXT NOT NULL,
				lifetime  INTEGER NOT NULL,
				jump_mass INTEGER NOT NULL,
				max_mass  INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS systems (
				id       INTEGER PRIMARY KEY,
				name     TEXT NOT NULL UNIQUE,
				security REAL NOT NULL,
				region   TEXT NOT NULL,
				class    TEXT NOT NULL,
				effect   TEXT NOT NULL DEFAULT '',
				static1  TEXT REFERENCES wh_types(name),
				static2  TEXT REFERENCES wh_types(name)
			);
			CREATE INDEX IF NOT EXISTS idx_systems_name ON systems(name COLLATE NOCASE);

			CREATE TABLE IF NOT EXISTS stargates (
				from_id INTEGER NOT NULL REFERENCES systems(id),
				to_id   INTEGER NOT NULL REFERENCES systems(id),
				PRIMARY KEY (from_id, to_id)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS action_log (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp TEXT NOT NULL,
				username  TEXT NOT NULL,
				message   TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_action_log_ts ON action_log(timestamp);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (action log)")
	}

	return nil
}

// SqlDB returns the underlying *sql.DB.
func (d *DB) SqlDB() *sql.DB {
	return d.sql
}
