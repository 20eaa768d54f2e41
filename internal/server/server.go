// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the resolution and citation engines over HTTP.
// Implements: prd001-resolution (R6); prd002-citation-search (R6).
//
// The handlers validate wire shape only; provider failures degrade inside
// the engines and surface as warnings in the server log, never as HTTP
// errors.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/citation-engine/internal/ris"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Resolver resolves seed references.
type Resolver interface {
	Resolve(ctx context.Context, seeds []types.SeedReference, w io.Writer) types.ResolutionResult
}

// Aggregator aggregates citations for resolved seeds.
type Aggregator interface {
	Aggregate(ctx context.Context, seeds []types.CitationSeed, opts types.CitationOptions, w io.Writer) types.CitationResult
}

// Server is the HTTP front end.
type Server struct {
	resolver   Resolver
	aggregator Aggregator
	maxSeeds   int
	logw       io.Writer
	mux        *http.ServeMux
}

// New builds a server over the two engines. Engine warnings go to logw.
func New(resolver Resolver, aggregator Aggregator, cfg types.ServerConfig, logw io.Writer) *Server {
	maxSeeds := cfg.MaxSeeds
	if maxSeeds <= 0 {
		maxSeeds = types.DefaultMaxSeedsPerResolve
	}
	if logw == nil {
		logw = io.Discard
	}
	s := &Server{
		resolver:   resolver,
		aggregator: aggregator,
		maxSeeds:   maxSeeds,
		logw:       logw,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/resolve", s.handleResolve)
	s.mux.HandleFunc("/api/citations", s.handleCitations)
	s.mux.HandleFunc("/api/export", s.handleExport)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
}

type resolveRequest struct {
	References []types.SeedReference `json:"references"`
}

type citationsRequest struct {
	Seeds     []types.CitationSeed `json:"seeds"`
	Provider  types.Provider       `json:"provider,omitempty"`
	Direction types.Direction      `json:"direction,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.References) == 0 {
		writeError(w, http.StatusBadRequest, "no references to resolve")
		return
	}
	if len(req.References) > s.maxSeeds {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("too many references: %d exceeds the limit of %d", len(req.References), s.maxSeeds))
		return
	}

	res := s.resolver.Resolve(r.Context(), req.References, s.logw)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCitations(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := s.decodeCitations(w, r)
	if !ok {
		return
	}
	res := s.aggregator.Aggregate(r.Context(), req.Seeds, opts, s.logw)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := s.decodeCitations(w, r)
	if !ok {
		return
	}
	res := s.aggregator.Aggregate(r.Context(), req.Seeds, opts, s.logw)

	w.Header().Set("Content-Type", "application/x-research-info-systems")
	w.Header().Set("Content-Disposition", `attachment; filename="citations.ris"`)
	if err := ris.Write(w, res.Combined); err != nil {
		fmt.Fprintf(s.logw, "warning: writing RIS export: %v\n", err)
	}
}

// decodeCitations parses and validates a citations-shaped request. On
// failure it has already written the error response.
func (s *Server) decodeCitations(w http.ResponseWriter, r *http.Request) (citationsRequest, types.CitationOptions, bool) {
	var req citationsRequest
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return req, types.CitationOptions{}, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return req, types.CitationOptions{}, false
	}
	if req.Provider != "" && !req.Provider.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown provider %q", req.Provider))
		return req, types.CitationOptions{}, false
	}
	if req.Direction != "" && !req.Direction.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown direction %q", req.Direction))
		return req, types.CitationOptions{}, false
	}
	if len(req.Seeds) == 0 {
		writeError(w, http.StatusBadRequest, "no seeds to search")
		return req, types.CitationOptions{}, false
	}
	usable := false
	for _, seed := range req.Seeds {
		if seed.HasHandle() {
			usable = true
			break
		}
	}
	if !usable {
		writeError(w, http.StatusBadRequest, "no seed carries an identifier or title")
		return req, types.CitationOptions{}, false
	}
	return req, types.CitationOptions{Provider: req.Provider, Direction: req.Direction}, true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
