// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides an on-disk HTTP response cache for provider
// requests. It wraps an http.RoundTripper: successful GET responses are
// stored in a SQLite database and replayed until their TTL expires, so
// repeated resolution runs over the same reference list do not re-spend
// provider rate budget. Non-GET requests pass through untouched.
package cache

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// maxCachedBody bounds the size of a single stored response body.
const maxCachedBody = 20 << 20

// Transport is a caching http.RoundTripper backed by SQLite.
type Transport struct {
	db   *sql.DB
	ttl  time.Duration
	base http.RoundTripper
	now  func() time.Time
}

// Open opens or creates the cache database at cfg.Path and returns a
// transport wrapping base. A nil base means http.DefaultTransport. Rows
// expired past the TTL are pruned on open.
func Open(cfg types.CacheConfig, base http.RoundTripper) (*Transport, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	t := &Transport{db: db, ttl: cfg.TTL, base: base, now: time.Now}
	if t.ttl <= 0 {
		t.ttl = types.DefaultCacheTTL
	}
	if t.base == nil {
		t.base = http.DefaultTransport
	}

	if err := t.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	// Expired rows from earlier runs are dead weight; clear them on open.
	if _, err := t.Prune(); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

// Close releases the database connection.
func (t *Transport) Close() error {
	return t.db.Close()
}

func (t *Transport) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS responses (
			url TEXT PRIMARY KEY,
			status INTEGER NOT NULL,
			content_type TEXT,
			body BLOB NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_fetched_at ON responses(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := t.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RoundTrip serves fresh cached responses for GET requests and stores new
// 200 responses. Cache failures fall back to the live request: a broken
// cache degrades to a slower client, not a broken one.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.base.RoundTrip(req)
	}
	key := req.URL.String()

	if resp := t.lookup(req, key); resp != nil {
		return resp, nil
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCachedBody+1))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) <= maxCachedBody {
		t.store(key, resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

// lookup returns a synthesized response for a fresh cache row, or nil.
func (t *Transport) lookup(req *http.Request, key string) *http.Response {
	var (
		status      int
		contentType string
		body        []byte
		fetchedAt   string
	)
	err := t.db.QueryRow(
		`SELECT status, content_type, body, fetched_at FROM responses WHERE url = ?`, key,
	).Scan(&status, &contentType, &body, &fetchedAt)
	if err != nil {
		return nil
	}

	fetched, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil || t.now().Sub(fetched) > t.ttl {
		return nil
	}

	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	header.Set("X-Cache", "HIT")
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

func (t *Transport) store(key string, status int, contentType string, body []byte) {
	// Best effort: a write failure only costs a future cache hit.
	t.db.Exec(
		`INSERT OR REPLACE INTO responses (url, status, content_type, body, fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, status, contentType, body, t.now().UTC().Format(time.RFC3339),
	)
}

// Prune deletes rows older than the TTL and returns the number removed.
func (t *Transport) Prune() (int64, error) {
	cutoff := t.now().Add(-t.ttl).UTC().Format(time.RFC3339)
	res, err := t.db.Exec(`DELETE FROM responses WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}
