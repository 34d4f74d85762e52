package storage

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// ensureSchema creates the tables of a new database and refuses files
// written by a newer schema.
func (db *DB) ensureSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,
			// expires_at is a unix timestamp; 0 never expires
			`CREATE TABLE IF NOT EXISTS cache_entries (
				key TEXT PRIMARY KEY,
				value BLOB NOT NULL,
				compressed INTEGER NOT NULL DEFAULT 0,
				expires_at INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to create cache schema: %w", err)
			}
		}

		version, err := schemaVersionOf(tx)
		if err != nil {
			return err
		}
		switch {
		case version == 0:
			_, err = tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion)
			return err
		case version > schemaVersion:
			return fmt.Errorf("cache database schema v%d is newer than supported v%d", version, schemaVersion)
		}
		return nil
	})
}

// schemaVersionOf returns the stored version, 0 when none was recorded.
func schemaVersionOf(tx *sql.Tx) (int, error) {
	var version int
	err := tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}
