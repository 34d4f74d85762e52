package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"starterkit/internal/cache"
	"starterkit/internal/logging"
)

// DefaultCompressThreshold is the value size above which entries are
// zstd-compressed.
const DefaultCompressThreshold = 4096

// CacheStore is a persistent taggable cache.Store on SQLite. Processes that
// open the same file share entries, which gives warm starts across workers.
type CacheStore struct {
	db        *DB
	logger    *logging.Logger
	threshold int
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	now       func() time.Time
}

// NewCacheStore wraps db. Values larger than threshold bytes are compressed;
// a threshold <= 0 uses DefaultCompressThreshold.
func NewCacheStore(db *DB, threshold int, logger *logging.Logger) (*CacheStore, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &CacheStore{
		db:        db,
		logger:    logger,
		threshold: threshold,
		encoder:   enc,
		decoder:   dec,
		now:       time.Now,
	}, nil
}

// Close releases the codec resources. The DB is owned by the caller.
func (s *CacheStore) Close() error {
	s.decoder.Close()
	return s.encoder.Close()
}

// Get implements cache.Store.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value      []byte
		compressed int
		expiresAt  int64
	)
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT value, compressed, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &compressed, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if expiresAt > 0 && s.now().Unix() >= expiresAt {
		if _, err := s.Forget(ctx, key); err != nil {
			s.logger.Debug("Failed to drop expired entry", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false, nil
	}

	if compressed != 0 {
		value, err = s.decoder.DecodeAll(value, nil)
		if err != nil {
			return nil, false, fmt.Errorf("failed to decompress cache entry: %w", err)
		}
	}
	return value, true, nil
}

// Put implements cache.Store.
func (s *CacheStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	var expiresAt int64
	if ttl > cache.Forever {
		expiresAt = now.Add(ttl).Unix()
	}

	compressed := 0
	if len(value) > s.threshold {
		value = s.encoder.EncodeAll(value, make([]byte, 0, len(value)/2))
		compressed = 1
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, compressed, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			compressed = excluded.compressed,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`, key, value, compressed, expiresAt, now.Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Forget implements cache.Store.
func (s *CacheStore) Forget(ctx context.Context, key string) (bool, error) {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete cache entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Tags implements cache.TaggableStore.
func (s *CacheStore) Tags(names ...string) cache.TaggedStore {
	return cache.NewTagSet(s, names...)
}

// Prune deletes expired entries and returns how many were removed.
func (s *CacheStore) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at > 0 AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarizes the table.
type Stats struct {
	Entries    int64 `json:"entries"`
	Compressed int64 `json:"compressed"`
	Bytes      int64 `json:"bytes"`
}

// Stats returns entry counts and stored size.
func (s *CacheStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(compressed), 0), COALESCE(SUM(LENGTH(value)), 0)
		FROM cache_entries
	`).Scan(&st.Entries, &st.Compressed, &st.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return st, nil
}
