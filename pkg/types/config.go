// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by the provider clients.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citation-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OpenAlexConfig holds settings for the OpenAlex client.
type OpenAlexConfig struct {
	HTTPConfig `yaml:",inline"`

	// Mailto is the contact email sent for polite-pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`

	// RequestsPerSecond caps the outbound request rate (default 8).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the limiter burst size, i.e. how many requests may be
	// scheduled back to back (default 4).
	Burst int `json:"burst" yaml:"burst"`

	// BatchSize is the number of identifiers combined into one filter
	// lookup (default 50, the OpenAlex OR-filter ceiling).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxCitingPages bounds pagination of a citing-works search to guard
	// against runaway pagination (default 10 pages of 200).
	MaxCitingPages int `json:"max_citing_pages" yaml:"max_citing_pages"`
}

// SemanticScholarConfig holds settings for the Semantic Scholar client.
type SemanticScholarConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MinInterval is the minimum spacing between requests. Requests are
	// additionally serialized: at most one is in flight (default 1.1s,
	// just under the unauthenticated 1 req/s policy).
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// BatchSize is the number of ids per paper-batch call (default 100,
	// comfortably below the per-paper citation list ceiling).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// SearchLimit is the result cap for title searches (default 10).
	SearchLimit int `json:"search_limit" yaml:"search_limit"`
}

// ResolveConfig holds settings for the resolution engine.
type ResolveConfig struct {
	// TitleBatchSize is the number of titles joined into one composite
	// OpenAlex search during title-only resolution (default 10).
	TitleBatchSize int `json:"title_batch_size" yaml:"title_batch_size"`
}

// CacheConfig holds settings for the optional on-disk response cache.
type CacheConfig struct {
	// Path is the SQLite database file. Empty disables the cache.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// TTL is how long a cached response stays fresh (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default ":8642").
	Addr string `json:"addr" yaml:"addr"`

	// MaxSeeds bounds the number of seeds accepted per resolution request
	// (default 100).
	MaxSeeds int `json:"max_seeds" yaml:"max_seeds"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	OpenAlex        OpenAlexConfig        `json:"openalex" yaml:"openalex"`
	SemanticScholar SemanticScholarConfig `json:"semanticscholar" yaml:"semanticscholar"`
	Resolve         ResolveConfig         `json:"resolve" yaml:"resolve"`
	Cache           CacheConfig           `json:"cache" yaml:"cache"`
	Server          ServerConfig          `json:"server" yaml:"server"`
}

// Defaults used when a config value is zero.
const (
	DefaultTimeout            = 30 * time.Second
	DefaultUserAgent          = "citation-engine/0.1"
	DefaultOpenAlexRate       = 8.0
	DefaultOpenAlexBurst      = 4
	DefaultOpenAlexBatch      = 50
	DefaultMaxCitingPages     = 10
	DefaultS2Interval         = 1100 * time.Millisecond
	DefaultS2Batch            = 100
	DefaultS2SearchLimit      = 10
	DefaultTitleBatch         = 10
	DefaultCacheTTL           = 24 * time.Hour
	DefaultServerAddr         = ":8642"
	DefaultMaxSeedsPerResolve = 100
)
