package asr

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"shortreel/internal/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Cache persists transcripts in sqlite so re-rendering the same narration
// skips transcription.
type Cache struct {
	db   *sql.DB
	path string
}

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	cache := &Cache{db: db, path: path}
	if err := cache.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) applyMigrations(ctx context.Context) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
	}
	return tx.Commit()
}

// Get returns the cached words for key. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (words []Word, ok bool, err error) {
	var count int
	err = c.db.QueryRowContext(ctx, "SELECT word_count FROM transcripts WHERE cache_key = ?", key).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup transcript: %w", err)
	}
	rows, err := c.db.QueryContext(ctx,
		"SELECT text, start_seconds, end_seconds FROM transcript_words WHERE cache_key = ? ORDER BY position", key)
	if err != nil {
		return nil, false, fmt.Errorf("load transcript words: %w", err)
	}
	defer rows.Close()
	words = make([]Word, 0, count)
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.Text, &w.Start, &w.End); err != nil {
			return nil, false, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate words: %w", err)
	}
	return words, true, nil
}

// Put replaces the cached transcript for key.
func (c *Cache) Put(ctx context.Context, key, backend, audioPath string, words []Word) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM transcripts WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO transcripts (cache_key, backend, audio_path, word_count, created_at) VALUES (?, ?, ?, ?, ?)",
		key, backend, audioPath, len(words), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO transcript_words (cache_key, position, text, start_seconds, end_seconds) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare word insert: %w", err)
	}
	defer stmt.Close()
	for i, w := range words {
		if _, err := stmt.ExecContext(ctx, key, i, w.Text, w.Start, w.End); err != nil {
			return fmt.Errorf("insert word %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// CacheIdentifier is implemented by backends whose output depends on more
// than Name, such as decoder settings or an input transcript.
type CacheIdentifier interface {
	CacheIdentity() (string, error)
}

// Cached memoizes another backend's transcripts.
type Cached struct {
	inner  Backend
	cache  *Cache
	logger *slog.Logger
}

// NewCached wraps inner with the sqlite cache.
func NewCached(inner Backend, cache *Cache, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, cache: cache, logger: logging.NewComponentLogger(logger, "asr-cache")}
}

func (c *Cached) Name() string { return c.inner.Name() }

// Words serves a cached transcript when the audio content and backend
// identity match a previous run; otherwise it transcribes, stores, and returns the result.
// Cache failures are logged and bypassed.
func (c *Cached) Words(ctx context.Context, audioPath string) (iter.Seq2[Word, error], error) {
	identity := c.inner.Name()
	if ident, ok := c.inner.(CacheIdentifier); ok {
		id, err := ident.CacheIdentity()
		if err != nil {
			c.logger.Debug("asr cache bypassed", logging.Error(err))
			return c.inner.Words(ctx, audioPath)
		}
		identity = id
	}
	key, err := CacheKey(audioPath, identity)
	if err != nil {
		return c.inner.Words(ctx, audioPath)
	}
	if words, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Debug("asr cache lookup failed", logging.Error(err))
	} else if ok {
		c.logger.Info("asr cache hit",
			logging.String("audio", audioPath),
			logging.Int("words", len(words)),
			logging.String(logging.FieldEventType, "asr_cache_hit"),
		)
		return FromSlice(words), nil
	}

	seq, err := c.inner.Words(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	words, err := Collect(seq)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, key, c.inner.Name(), audioPath, words); err != nil {
		logging.WarnWithContext(c.logger, "asr cache store failed", "asr_cache_store_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next render transcribes again"),
			logging.String(logging.FieldErrorHint, "check cache_dir permissions"),
		)
	}
	return FromSlice(words), nil
}

// CacheKey hashes the audio content together with the backend identity.
func CacheKey(audioPath, backend string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	h.Write([]byte{0})
	h.Write([]byte(backend))
	return hex.EncodeToString(h.Sum(nil)), nil
}
