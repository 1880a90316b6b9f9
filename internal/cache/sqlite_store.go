package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/video"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore persists cache entries in a single sqlite database so they
// survive process restarts.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

type SQLiteOption func(*SQLiteStore)

// WithClock overrides the time source, used by tests to probe TTL edges.
func WithClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

func NewSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (*Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT payload_json, created_at, expires_at
		 FROM transcript_cache
		 WHERE cache_key = ? AND expires_at > ?`,
		key.String(),
		s.now().UTC(),
	)

	var payloadJSON string
	entry := Entry{Key: key}
	if err := row.Scan(&payloadJSON, &entry.CreatedAt, &entry.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, noteerr.Wrap(err, noteerr.KindStorageUnavailable, "read cache entry")
	}
	if err := json.Unmarshal([]byte(payloadJSON), &entry.Transcript); err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindStorageUnavailable, "decode cache payload")
	}
	return &entry, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, transcript video.Transcript) (*Entry, error) {
	payload, err := json.Marshal(transcript)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindStorageUnavailable, "encode cache payload")
	}

	createdAt := s.now().UTC()
	entry := &Entry{
		Key:        key,
		Transcript: transcript,
		CreatedAt:  createdAt,
		ExpiresAt:  createdAt.Add(TTL),
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO transcript_cache (
			cache_key, video_id, language, mode, payload_json, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			video_id=excluded.video_id,
			language=excluded.language,
			mode=excluded.mode,
			payload_json=excluded.payload_json,
			created_at=excluded.created_at,
			expires_at=excluded.expires_at`,
		key.String(),
		key.VideoID,
		key.Language,
		string(key.Mode),
		string(payload),
		entry.CreatedAt,
		entry.ExpiresAt,
	)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindStorageUnavailable, "write cache entry")
	}
	return entry, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(payload_json)), 0)
		 FROM transcript_cache`,
	)
	if err := row.Scan(&stats.EntryCount, &stats.TotalSizeBytes); err != nil {
		return Stats{}, noteerr.Wrap(err, noteerr.KindStorageUnavailable, "read cache stats")
	}

	// MIN() strips the column decltype, so fetch the oldest row directly
	// to keep time.Time scanning.
	var oldest time.Time
	err := s.db.QueryRowContext(
		ctx,
		`SELECT created_at FROM transcript_cache ORDER BY created_at ASC LIMIT 1`,
	).Scan(&oldest)
	switch err {
	case nil:
		stats.OldestEntryAge = s.now().UTC().Sub(oldest)
	case sql.ErrNoRows:
	default:
		return Stats{}, noteerr.Wrap(err, noteerr.KindStorageUnavailable, "read cache stats")
	}
	return stats, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, filter *ClearFilter) (int64, error) {
	query := `DELETE FROM transcript_cache`
	var conds []string
	var args []any

	if filter != nil {
		if filter.VideoID != "" {
			conds = append(conds, "video_id = ?")
			args = append(args, filter.VideoID)
		}
		if filter.Mode != "" {
			conds = append(conds, "mode = ?")
			args = append(args, string(filter.Mode))
		}
		if filter.ExpiredOnly {
			conds = append(conds, "expires_at <= ?")
			args = append(args, s.now().UTC())
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, noteerr.Wrap(err, noteerr.KindStorageUnavailable, "clear cache")
	}
	return res.RowsAffected()
}

// DeleteExpired removes entries past their TTL. Used by the scheduled sweep.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	return s.Clear(ctx, &ClearFilter{ExpiredOnly: true})
}
