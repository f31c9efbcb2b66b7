// Package cache provides an LRU-evicting SQLite cache for model
// completions, keyed by a hash of the full request. Identical edit
// requests during development then cost nothing.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/redpen-ai/redpen/internal/llm"
)

// CacheStats summarizes cache occupancy.
type CacheStats struct {
	Entries    int64
	TotalBytes int64
}

// CompletionCache is an LRU-evicting SQLite-backed cache for completions.
type CompletionCache struct {
	db    *sql.DB
	maxMB int
}

// NewCompletionCache opens (or creates) a completion cache at dbPath.
// maxMB sets the maximum size in megabytes before LRU eviction triggers.
func NewCompletionCache(dbPath string, maxMB int) (*CompletionCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS completion_cache (
			request_hash TEXT NOT NULL,
			model        TEXT NOT NULL,
			content      TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			accessed_at  INTEGER NOT NULL,
			PRIMARY KEY (request_hash, model)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_completion_accessed ON completion_cache(accessed_at)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &CompletionCache{db: db, maxMB: maxMB}, nil
}

// RequestHash returns the SHA-256 hex digest of everything that shapes a
// completion: system prompt, messages, and sampling parameters. Model is
// kept out of the hash because it is a separate key column.
func RequestHash(req *llm.CompletionRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "system:%s\n", req.SystemPrompt)
	for _, m := range req.Messages {
		fmt.Fprintf(h, "%s:%s\n", m.Role, m.Content)
	}
	fmt.Fprintf(h, "temp:%g max:%d", req.Temperature, req.MaxTokens)
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached completion. Returns ("", false, nil) on miss.
func (c *CompletionCache) Get(requestHash, model string) (string, bool, error) {
	row := c.db.QueryRow(
		`SELECT content FROM completion_cache WHERE request_hash = ? AND model = ?`,
		requestHash, model,
	)

	var content string
	if err := row.Scan(&content); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get completion: %w", err)
	}

	// Update LRU timestamp
	_, _ = c.db.Exec(
		`UPDATE completion_cache SET accessed_at = ? WHERE request_hash = ? AND model = ?`,
		time.Now().UnixNano(), requestHash, model,
	)

	return content, true, nil
}

// Put stores a completion, then evicts if over size limit.
func (c *CompletionCache) Put(requestHash, model, content string) error {
	now := time.Now().UnixNano()

	_, err := c.db.Exec(
		`INSERT INTO completion_cache(request_hash, model, content, created_at, accessed_at)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(request_hash, model) DO UPDATE SET content=excluded.content, accessed_at=excluded.accessed_at`,
		requestHash, model, content, now, now,
	)
	if err != nil {
		return fmt.Errorf("put completion: %w", err)
	}

	return c.evictIfNeeded()
}

// Stats returns current cache statistics.
func (c *CompletionCache) Stats() (*CacheStats, error) {
	row := c.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(LENGTH(content)), 0) FROM completion_cache`)
	var stats CacheStats
	if err := row.Scan(&stats.Entries, &stats.TotalBytes); err != nil {
		return nil, fmt.Errorf("completion cache stats: %w", err)
	}
	return &stats, nil
}

// Clear removes all cached entries.
func (c *CompletionCache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM completion_cache`); err != nil {
		return fmt.Errorf("clear completion cache: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *CompletionCache) Close() error {
	return c.db.Close()
}

func (c *CompletionCache) evictIfNeeded() error {
	maxBytes := int64(c.maxMB) * 1024 * 1024

	row := c.db.QueryRow(`SELECT COALESCE(SUM(LENGTH(content) + 100), 0) FROM completion_cache`)
	var totalBytes int64
	if err := row.Scan(&totalBytes); err != nil {
		return fmt.Errorf("evict size check: %w", err)
	}

	if totalBytes <= maxBytes {
		return nil
	}

	rows, err := c.db.Query(
		`SELECT request_hash, model, LENGTH(content) + 100 FROM completion_cache ORDER BY accessed_at ASC`,
	)
	if err != nil {
		return fmt.Errorf("evict query: %w", err)
	}
	defer rows.Close()

	type entry struct {
		hash  string
		model string
		size  int64
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.hash, &e.model, &e.size); err != nil {
			return fmt.Errorf("evict scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("evict rows: %w", err)
	}

	for _, e := range entries {
		if totalBytes <= maxBytes {
			break
		}
		if _, err := c.db.Exec(
			`DELETE FROM completion_cache WHERE request_hash = ? AND model = ?`,
			e.hash, e.model,
		); err != nil {
			return fmt.Errorf("evict delete: %w", err)
		}
		totalBytes -= e.size
	}

	return nil
}

// CachedProvider wraps a Provider with the completion cache. Cache
// failures degrade to a live call; they never fail the request.
type CachedProvider struct {
	inner  llm.Provider
	cache  *CompletionCache
	logger *slog.Logger
}

// NewCachedProvider wraps inner with cache.
func NewCachedProvider(inner llm.Provider, cache *CompletionCache, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{inner: inner, cache: cache, logger: logger}
}

// Name identifies the underlying provider.
func (p *CachedProvider) Name() string { return p.inner.Name() }

// DefaultModel returns the underlying provider's default model.
func (p *CachedProvider) DefaultModel() string { return p.inner.DefaultModel() }

// Complete serves from the cache when possible, otherwise calls through
// and stores the response.
func (p *CachedProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.inner.DefaultModel()
	}
	hash := RequestHash(req)

	content, hit, err := p.cache.Get(hash, model)
	if err != nil {
		p.logger.Warn("cache lookup failed", "error", err)
	} else if hit {
		p.logger.Debug("cache hit", "model", model)
		return &llm.CompletionResponse{Content: content, Model: model}, nil
	}

	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Put(hash, model, resp.Content); err != nil {
		p.logger.Warn("cache store failed", "error", err)
	}
	return resp, nil
}
