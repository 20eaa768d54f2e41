// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-engine/internal/cache"
	"github.com/pdiddy/citation-engine/internal/citations"
	"github.com/pdiddy/citation-engine/internal/openalex"
	"github.com/pdiddy/citation-engine/internal/resolve"
	"github.com/pdiddy/citation-engine/internal/s2"
	"github.com/pdiddy/citation-engine/internal/secrets"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// engineConfig assembles the engine configuration from the config file and
// environment, with secrets as fallback for credentials.
func engineConfig(cmd *cobra.Command) types.EngineConfig {
	var cfg types.EngineConfig

	cfg.OpenAlex.Timeout = viper.GetDuration("openalex.timeout")
	cfg.OpenAlex.UserAgent = viper.GetString("openalex.user_agent")
	cfg.OpenAlex.Mailto = viper.GetString("openalex.mailto")
	cfg.OpenAlex.RequestsPerSecond = viper.GetFloat64("openalex.requests_per_second")
	cfg.OpenAlex.Burst = viper.GetInt("openalex.burst")
	cfg.OpenAlex.BatchSize = viper.GetInt("openalex.batch_size")
	cfg.OpenAlex.MaxCitingPages = viper.GetInt("openalex.max_citing_pages")

	cfg.SemanticScholar.Timeout = viper.GetDuration("semanticscholar.timeout")
	cfg.SemanticScholar.UserAgent = viper.GetString("semanticscholar.user_agent")
	cfg.SemanticScholar.APIKey = viper.GetString("semanticscholar.api_key")
	cfg.SemanticScholar.MinInterval = viper.GetDuration("semanticscholar.min_interval")
	cfg.SemanticScholar.BatchSize = viper.GetInt("semanticscholar.batch_size")
	cfg.SemanticScholar.SearchLimit = viper.GetInt("semanticscholar.search_limit")

	cfg.Resolve.TitleBatchSize = viper.GetInt("resolve.title_batch_size")

	cfg.Cache.Path = viper.GetString("cache.path")
	cfg.Cache.TTL = viper.GetDuration("cache.ttl")

	cfg.Server.Addr = viper.GetString("server.addr")
	cfg.Server.MaxSeeds = viper.GetInt("server.max_seeds")

	if cachePath, _ := cmd.Root().PersistentFlags().GetString("cache"); cachePath != "" {
		cfg.Cache.Path = cachePath
	}
	if cfg.OpenAlex.Mailto == "" {
		cfg.OpenAlex.Mailto = loadedSecrets[secrets.KeyOpenAlexMailto]
	}
	if cfg.SemanticScholar.APIKey == "" {
		cfg.SemanticScholar.APIKey = loadedSecrets[secrets.KeySemanticScholar]
	}
	return cfg
}

// engines bundles the provider clients and the two pipelines.
type engines struct {
	cfg        types.EngineConfig
	resolver   *resolve.Engine
	aggregator *citations.Engine
	close      func() error
}

// buildEngines constructs the clients, sharing one cached HTTP transport
// when a cache path is configured.
func buildEngines(cmd *cobra.Command) (*engines, error) {
	cfg := engineConfig(cmd)

	// One limiter per provider for the whole process: the resolver and the
	// aggregator share the clients, and the clients share these.
	oaOpts := []openalex.Option{openalex.WithLimiter(openalex.NewLimiter(cfg.OpenAlex))}
	s2Opts := []s2.Option{s2.WithLimiter(s2.NewLimiter(cfg.SemanticScholar))}
	closer := func() error { return nil }

	if cfg.Cache.Path != "" {
		ct, err := cache.Open(cfg.Cache, nil)
		if err != nil {
			return nil, err
		}
		closer = ct.Close

		timeout := cfg.OpenAlex.Timeout
		if timeout == 0 {
			timeout = types.DefaultTimeout
		}
		hc := &http.Client{Transport: ct, Timeout: timeout}
		oaOpts = append(oaOpts, openalex.WithHTTPClient(hc))
		s2Opts = append(s2Opts, s2.WithHTTPClient(hc))
	}

	graph := openalex.NewClient(cfg.OpenAlex, oaOpts...)
	scholar := s2.NewClient(cfg.SemanticScholar, s2Opts...)

	return &engines{
		cfg:        cfg,
		resolver:   resolve.NewEngine(graph, scholar, cfg.Resolve),
		aggregator: citations.NewEngine(graph, scholar),
		close:      closer,
	}, nil
}
