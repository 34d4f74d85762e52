package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"starterkit/internal/logging"
)

// DefaultDir is the per-project state directory.
const DefaultDir = ".starterkit"

// DefaultFile is the cache database file inside DefaultDir.
const DefaultFile = "cache.db"

// DB is the SQLite file backing CacheStore.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
}

// DefaultPath returns <root>/.starterkit/cache.db.
func DefaultPath(root string) string {
	return filepath.Join(root, DefaultDir, DefaultFile)
}

// Open opens or creates the database at path and ensures its schema.
// Web workers may share the file, so it runs in WAL mode with a busy
// timeout.
func Open(path string, logger *logging.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db := &DB{conn: conn, logger: logger}
	if err := db.ensureSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Debug("Opened cache database", map[string]interface{}{"path": path})
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithTx runs fn in a transaction, rolling back when it fails.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to roll back transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}
	return tx.Commit()
}
