// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package s2 is a rate-limited client for the Semantic Scholar Graph API.
// Implements: prd003-providers (R1.1-R1.4, R3.1-R3.4).
//
// Semantic Scholar's unauthenticated pool allows about one request per
// second; the client keeps at most one request in flight and spaces
// consecutive requests by a configurable minimum interval.
package s2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/provider"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Name identifies this provider in errors and statistics.
const Name = "semanticscholar"

// DefaultBaseURL is the Semantic Scholar Graph API base URL.
const DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

const (
	candidateFields = "title,abstract,venue,year,externalIds,journal"
	recordFields    = candidateFields + ",publicationTypes,isOpenAccess,openAccessPdf,authors"
	nestedFields    = "title,abstract,venue,year,externalIds,journal,publicationTypes,isOpenAccess,openAccessPdf,authors"
	abstractFields  = "title,abstract,externalIds"
)

// Client queries the Semantic Scholar Graph API.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	mu          sync.Mutex // one request in flight at a time
	baseURL     string
	apiKey      string
	userAgent   string
	batchSize   int
	searchLimit int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithLimiter injects a shared rate limiter. All clients talking to
// Semantic Scholar in one process should share a single limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewLimiter builds the rate limiter for cfg, with defaults applied. Use it
// to construct the single limiter shared by every client in the process.
func NewLimiter(cfg types.SemanticScholarConfig) *rate.Limiter {
	interval := cfg.MinInterval
	if interval <= 0 {
		interval = types.DefaultS2Interval
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// NewClient builds a Semantic Scholar client from cfg. Zero config values
// fall back to the package defaults.
func NewClient(cfg types.SemanticScholarConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = types.DefaultTimeout
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     NewLimiter(cfg),
		baseURL:     DefaultBaseURL,
		apiKey:      cfg.APIKey,
		userAgent:   cfg.UserAgent,
		batchSize:   cfg.BatchSize,
		searchLimit: cfg.SearchLimit,
	}
	if c.userAgent == "" {
		c.userAgent = types.DefaultUserAgent
	}
	if c.batchSize <= 0 {
		c.batchSize = types.DefaultS2Batch
	}
	if c.searchLimit <= 0 {
		c.searchLimit = types.DefaultS2SearchLimit
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BatchSize returns the id count the client accepts per batch call.
func (c *Client) BatchSize() int { return c.batchSize }

// Supports reports whether the API can look works up by the given kind.
// OpenAlex IDs have no Semantic Scholar lookup form.
func (c *Client) Supports(kind types.IDKind) bool {
	return IDRef(kind, "x") != ""
}

// LookupBatch fetches candidates for the given normalized identifier values
// of one kind via the paper batch endpoint. Missing papers and records
// without a title are dropped. values must not exceed BatchSize.
func (c *Client) LookupBatch(ctx context.Context, kind types.IDKind, values []string) ([]types.Candidate, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if ref := IDRef(kind, v); ref != "" {
			ids = append(ids, ref)
		}
	}
	if len(ids) == 0 {
		return nil, provider.New(provider.KindBadRequest, Name, "lookup",
			fmt.Errorf("identifier kind %q has no lookup form", kind))
	}

	papers, err := c.paperBatch(ctx, "lookup", ids, candidateFields)
	if err != nil {
		return nil, err
	}

	out := make([]types.Candidate, 0, len(papers))
	for _, p := range papers {
		cand := p.toCandidate()
		if cand.Title == "" {
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

// SearchTitle runs a free-text title search and returns candidates in the
// provider's relevance order. The caller applies exact normalized-title
// matching; no ranking happens here.
func (c *Client) SearchTitle(ctx context.Context, query string) ([]types.Candidate, error) {
	if query == "" {
		return nil, nil
	}
	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", c.searchLimit)},
		"fields": {candidateFields},
	}

	body, err := c.do(ctx, "title-search", http.MethodGet, "/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, provider.New(provider.KindBadRequest, Name, "title-search", err)
	}

	out := make([]types.Candidate, 0, len(sr.Data))
	for _, p := range sr.Data {
		cand := p.toCandidate()
		if cand.Title == "" {
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

// FetchRecords batch-fetches full paper records, optionally with their
// reference and citation lists, for the citation pipeline. ids are prefixed
// lookup refs (see IDRef) and must not exceed BatchSize. Missing papers and
// untitled nested records are dropped.
func (c *Client) FetchRecords(ctx context.Context, ids []string, withLinks bool) ([]PaperRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	fields := recordFields
	if withLinks {
		fields += nestedSelection("references") + nestedSelection("citations")
	}

	papers, err := c.paperBatch(ctx, "fetch-records", ids, fields)
	if err != nil {
		return nil, err
	}

	out := make([]PaperRecord, 0, len(papers))
	for _, p := range papers {
		rec := PaperRecord{Citation: p.toCitation()}
		if rec.Citation.Title == "" {
			continue
		}
		for _, r := range p.References {
			if cit := r.toCitation(); cit.Title != "" {
				rec.References = append(rec.References, cit)
			}
		}
		for _, ct := range p.Citations {
			if cit := ct.toCitation(); cit.Title != "" {
				rec.Citations = append(rec.Citations, cit)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// FetchAbstracts batch-fetches abstracts for the enrichment pass. ids are
// prefixed lookup refs. Records without an abstract are dropped.
func (c *Client) FetchAbstracts(ctx context.Context, ids []string) ([]types.Citation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	papers, err := c.paperBatch(ctx, "fetch-abstracts", ids, abstractFields)
	if err != nil {
		return nil, err
	}

	out := make([]types.Citation, 0, len(papers))
	for _, p := range papers {
		if p.Abstract == "" {
			continue
		}
		out = append(out, p.toCitation())
	}
	return out, nil
}

// paperBatch posts ids to the batch endpoint. The response is aligned with
// the request and contains null entries for misses; those are dropped here.
func (c *Client) paperBatch(ctx context.Context, op string, ids []string, fields string) ([]paper, error) {
	payload, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, provider.New(provider.KindBadRequest, Name, op, err)
	}

	params := url.Values{"fields": {fields}}
	body, err := c.do(ctx, op, http.MethodPost, "/paper/batch?"+params.Encode(), payload)
	if err != nil {
		return nil, err
	}

	var raw []*paper
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, provider.New(provider.KindBadRequest, Name, op, err)
	}

	out := make([]paper, 0, len(raw))
	for _, p := range raw {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// do executes one serialized, rate-limited request.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, provider.Classify(Name, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, provider.New(provider.KindBadRequest, Name, op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	return httputil.Do(c.httpClient, req, Name, op, 0)
}

// nestedSelection expands the nested field list for a link direction
// ("references" or "citations").
func nestedSelection(direction string) string {
	var b strings.Builder
	for _, f := range strings.Split(nestedFields, ",") {
		b.WriteString("," + direction + "." + f)
	}
	return b.String()
}
