// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex is a rate-limited client for the OpenAlex Works API.
// Implements: prd003-providers (R1.1-R1.4, R2.1-R2.3).
//
// OpenAlex allows roughly ten requests per second; the client spaces its
// requests through a shared limiter injected at construction so that the
// resolution and citation pipelines honor one process-wide budget.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/normalize"
	"github.com/pdiddy/citation-engine/internal/provider"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Name identifies this provider in errors and statistics.
const Name = "openalex"

// DefaultBaseURL is the OpenAlex Works endpoint.
const DefaultBaseURL = "https://api.openalex.org/works"

const citingPageSize = 200

// filterKeys maps identifier kinds to OpenAlex filter attributes.
var filterKeys = map[types.IDKind]string{
	types.KindDOI:      "doi",
	types.KindPMID:     "pmid",
	types.KindPMCID:    "pmcid",
	types.KindOpenAlex: "openalex",
	types.KindMag:      "mag",
}

// Client queries the OpenAlex Works API.
type Client struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	baseURL        string
	mailto         string
	userAgent      string
	batchSize      int
	maxCitingPages int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (timeout included).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the works endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithLimiter injects a shared rate limiter. All clients talking to OpenAlex
// in one process should share a single limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewLimiter builds the rate limiter for cfg, with defaults applied. Use it
// to construct the single limiter shared by every client in the process.
func NewLimiter(cfg types.OpenAlexConfig) *rate.Limiter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = types.DefaultOpenAlexRate
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = types.DefaultOpenAlexBurst
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// NewClient builds an OpenAlex client from cfg. Zero config values fall back
// to the package defaults.
func NewClient(cfg types.OpenAlexConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = types.DefaultTimeout
	}
	c := &Client{
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        NewLimiter(cfg),
		baseURL:        DefaultBaseURL,
		mailto:         cfg.Mailto,
		userAgent:      cfg.UserAgent,
		batchSize:      cfg.BatchSize,
		maxCitingPages: cfg.MaxCitingPages,
	}
	if c.userAgent == "" {
		c.userAgent = types.DefaultUserAgent
	}
	if c.batchSize <= 0 {
		c.batchSize = types.DefaultOpenAlexBatch
	}
	if c.maxCitingPages <= 0 {
		c.maxCitingPages = types.DefaultMaxCitingPages
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BatchSize returns the identifier count the client accepts per lookup call.
func (c *Client) BatchSize() int { return c.batchSize }

// LookupBatch fetches works matching any of the given identifier values of
// one kind, in a single OR-filter request. Records without a usable title
// are dropped. values must already be normalized and must not exceed
// BatchSize.
func (c *Client) LookupBatch(ctx context.Context, kind types.IDKind, values []string) ([]types.Candidate, error) {
	if len(values) == 0 {
		return nil, nil
	}
	key, ok := filterKeys[kind]
	if !ok {
		return nil, provider.New(provider.KindBadRequest, Name, "lookup",
			fmt.Errorf("unsupported identifier kind %q", kind))
	}

	params := url.Values{
		"filter":   {key + ":" + strings.Join(values, "|")},
		"per-page": {fmt.Sprintf("%d", len(values))},
	}
	wr, err := c.get(ctx, "lookup", params)
	if err != nil {
		return nil, err
	}
	return candidates(wr.Results), nil
}

// SearchTitles runs one composite title search OR-joining all titles. The
// caller matches each input's normalized title against the returned
// candidates; OpenAlex's own ranking is not trusted for exact resolution.
func (c *Client) SearchTitles(ctx context.Context, titles []string) ([]types.Candidate, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	cleaned := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = sanitizeFilterValue(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	params := url.Values{
		"filter":   {"title.search:" + strings.Join(cleaned, "|")},
		"per-page": {"100"},
	}
	wr, err := c.get(ctx, "title-search", params)
	if err != nil {
		return nil, err
	}
	return candidates(wr.Results), nil
}

// WorksByIDs fetches full records for the given OpenAlex work IDs in one
// OR-filter request, returned as citations. ids must not exceed BatchSize.
func (c *Client) WorksByIDs(ctx context.Context, ids []string) ([]types.Citation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	upper := make([]string, len(ids))
	for i, id := range ids {
		upper[i] = strings.ToUpper(normalize.OpenAlexID(id))
	}

	params := url.Values{
		"filter":   {"openalex:" + strings.Join(upper, "|")},
		"per-page": {fmt.Sprintf("%d", len(upper))},
	}
	wr, err := c.get(ctx, "works-by-ids", params)
	if err != nil {
		return nil, err
	}
	return citations(wr.Results), nil
}

// WorkRecords fetches full records for the given OpenAlex work IDs together
// with the IDs of the works they reference. ids must not exceed BatchSize.
func (c *Client) WorkRecords(ctx context.Context, ids []string) ([]WorkRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	upper := make([]string, len(ids))
	for i, id := range ids {
		upper[i] = strings.ToUpper(normalize.OpenAlexID(id))
	}

	params := url.Values{
		"filter":   {"openalex:" + strings.Join(upper, "|")},
		"per-page": {fmt.Sprintf("%d", len(upper))},
	}
	wr, err := c.get(ctx, "work-records", params)
	if err != nil {
		return nil, err
	}

	out := make([]WorkRecord, 0, len(wr.Results))
	for _, w := range wr.Results {
		rec := WorkRecord{Citation: w.toCitation()}
		if rec.Citation.Title == "" {
			continue
		}
		for _, ref := range w.ReferencedWorks {
			if id := normalize.OpenAlexID(ref); id != "" {
				rec.ReferencedWorks = append(rec.ReferencedWorks, id)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// CitingWorks pages through works citing the given OpenAlex ID. Pagination
// stops at a short page or after MaxCitingPages pages, whichever comes
// first; the ceiling guards against runaway pagination.
func (c *Client) CitingWorks(ctx context.Context, openAlexID string) ([]types.Citation, error) {
	id := strings.ToUpper(normalize.OpenAlexID(openAlexID))
	if id == "" {
		return nil, nil
	}

	var out []types.Citation
	for page := 1; page <= c.maxCitingPages; page++ {
		params := url.Values{
			"filter":   {"cites:" + id},
			"per-page": {fmt.Sprintf("%d", citingPageSize)},
			"page":     {fmt.Sprintf("%d", page)},
		}
		wr, err := c.get(ctx, "citing-works", params)
		if err != nil {
			return out, err
		}
		out = append(out, citations(wr.Results)...)
		if len(wr.Results) < citingPageSize {
			break
		}
	}
	return out, nil
}

// get performs one rate-limited request against the works endpoint.
func (c *Client) get(ctx context.Context, op string, params url.Values) (*worksResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, provider.Classify(Name, op, err)
	}

	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, provider.New(provider.KindBadRequest, Name, op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	body, err := httputil.Do(c.httpClient, req, Name, op, 0)
	if err != nil {
		return nil, err
	}

	var wr worksResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, provider.New(provider.KindBadRequest, Name, op, err)
	}
	return &wr, nil
}

// candidates converts works, dropping records without a title: a record that
// cannot be matched or displayed is noise.
func candidates(works []work) []types.Candidate {
	out := make([]types.Candidate, 0, len(works))
	for _, w := range works {
		cand := w.toCandidate()
		if cand.Title == "" {
			continue
		}
		out = append(out, cand)
	}
	return out
}

func citations(works []work) []types.Citation {
	out := make([]types.Citation, 0, len(works))
	for _, w := range works {
		cit := w.toCitation()
		if cit.Title == "" {
			continue
		}
		out = append(out, cit)
	}
	return out
}

// sanitizeFilterValue strips characters with filter-syntax meaning from a
// free-text value embedded in an OR-filter.
func sanitizeFilterValue(s string) string {
	s = strings.NewReplacer("|", " ", ",", " ", ":", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
