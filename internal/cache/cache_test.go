// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/citation-engine/pkg/types"
)

func openTestCache(t *testing.T, ttl time.Duration) *Transport {
	t.Helper()
	tr, err := Open(types.CacheConfig{
		Path: filepath.Join(t.TempDir(), "cache.db"),
		TTL:  ttl,
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestRoundTripCachesGET(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	}))
	defer ts.Close()

	tr := openTestCache(t, time.Hour)
	client := &http.Client{Transport: tr}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(ts.URL + "/works?filter=doi:10.1/x")
		if err != nil {
			t.Fatalf("GET %d: %v", i, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != `{"ok":true}` {
			t.Errorf("body = %q", body)
		}
		if i == 1 && resp.Header.Get("X-Cache") != "HIT" {
			t.Errorf("second response not served from cache")
		}
	}
	if hits != 1 {
		t.Errorf("upstream hits = %d, want 1", hits)
	}
}

func TestRoundTripExpiry(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		io.WriteString(w, "data")
	}))
	defer ts.Close()

	tr := openTestCache(t, time.Hour)
	client := &http.Client{Transport: tr}

	if _, err := client.Get(ts.URL); err != nil {
		t.Fatalf("first GET: %v", err)
	}

	// Jump past the TTL.
	tr.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	resp, err := client.Get(ts.URL)
	if err != nil {
		t.Fatalf("second GET: %v", err)
	}
	resp.Body.Close()
	if hits != 2 {
		t.Errorf("upstream hits = %d, want refetch after expiry", hits)
	}
}

func TestRoundTripSkipsNonGET(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		io.WriteString(w, "posted")
	}))
	defer ts.Close()

	tr := openTestCache(t, time.Hour)
	client := &http.Client{Transport: tr}

	for i := 0; i < 2; i++ {
		resp, err := client.Post(ts.URL, "application/json", strings.NewReader(`{}`))
		if err != nil {
			t.Fatalf("POST %d: %v", i, err)
		}
		resp.Body.Close()
	}
	if hits != 2 {
		t.Errorf("upstream hits = %d, POST must never be cached", hits)
	}
}

func TestRoundTripSkipsErrorStatus(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	tr := openTestCache(t, time.Hour)
	client := &http.Client{Transport: tr}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(ts.URL)
		if err != nil {
			t.Fatalf("GET %d: %v", i, err)
		}
		resp.Body.Close()
	}
	if hits != 2 {
		t.Errorf("upstream hits = %d, error responses must not be cached", hits)
	}
}

func TestOpenPrunesExpiredRows(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data")
	}))
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "cache.db")
	cfg := types.CacheConfig{Path: path, TTL: time.Hour}

	tr, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	client := &http.Client{Transport: tr}
	if _, err := client.Get(ts.URL); err != nil {
		t.Fatalf("GET: %v", err)
	}
	// Backdate the row past the TTL before reopening.
	tr.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tr.store(ts.URL, http.StatusOK, "text/plain", []byte("stale"))
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tr, err = Open(cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tr.Close()

	var count int
	if err := tr.db.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("rows after reopen = %d, want expired row pruned", count)
	}
}

func TestPrune(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data")
	}))
	defer ts.Close()

	tr := openTestCache(t, time.Hour)
	client := &http.Client{Transport: tr}
	if _, err := client.Get(ts.URL); err != nil {
		t.Fatalf("GET: %v", err)
	}

	tr.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	removed, err := tr.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}
