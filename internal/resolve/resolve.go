// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve validates seed references against the metadata providers.
// Implements: prd001-resolution (R1-R5).
//
// Seeds are grouped by their highest-priority identifier, looked up in
// batches against OpenAlex, enriched with MAG ids from Semantic Scholar,
// and cascaded through Semantic Scholar lookup and exact-match title search
// for anything still unresolved. A provider failure never aborts the run:
// the affected inputs stay unresolved and processing continues.
package resolve

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/citation-engine/internal/normalize"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// GraphClient is the slice of the OpenAlex client the engine depends on.
type GraphClient interface {
	BatchSize() int
	LookupBatch(ctx context.Context, kind types.IDKind, values []string) ([]types.Candidate, error)
	SearchTitles(ctx context.Context, titles []string) ([]types.Candidate, error)
}

// ScholarClient is the slice of the Semantic Scholar client the engine
// depends on.
type ScholarClient interface {
	BatchSize() int
	Supports(kind types.IDKind) bool
	LookupBatch(ctx context.Context, kind types.IDKind, values []string) ([]types.Candidate, error)
	SearchTitle(ctx context.Context, query string) ([]types.Candidate, error)
}

// Engine resolves seed references.
type Engine struct {
	graph      GraphClient
	scholar    ScholarClient
	titleBatch int
}

// NewEngine builds a resolution engine over the two provider clients.
func NewEngine(graph GraphClient, scholar ScholarClient, cfg types.ResolveConfig) *Engine {
	tb := cfg.TitleBatchSize
	if tb <= 0 {
		tb = types.DefaultTitleBatch
	}
	return &Engine{graph: graph, scholar: scholar, titleBatch: tb}
}

// pending is one seed queued for lookup, with its normalized handles.
type pending struct {
	seed      types.SeedReference
	value     string // normalized identifier value for the seed's queue kind
	normTitle string
}

// session is the mutable state of one resolution run. It is owned by a
// single Resolve call; the engine itself stays re-entrant.
type session struct {
	queues    map[types.IDKind][]*pending
	titleOnly []*pending
	outcomes  map[string]*types.ResolutionOutcome
	dedup     map[string]int

	foundByID    int
	foundByTitle int
}

// strategy attempts to resolve a batch of pendings for one identifier kind
// and returns the inputs it could not resolve. The engine runs strategies
// in a fixed cascade order.
type strategy func(ctx context.Context, s *session, kind types.IDKind, batch []*pending, w io.Writer) []*pending

// Resolve resolves every seed and returns one outcome per input, in input
// order, plus grouping-level duplicate counts. The response is always
// structurally complete: provider failures reduce coverage, they do not
// surface as errors.
func (e *Engine) Resolve(ctx context.Context, seeds []types.SeedReference, w io.Writer) types.ResolutionResult {
	s := e.group(seeds)

	cascade := []strategy{e.graphLookup, e.scholarLookup, e.scholarTitleFallback}
	for _, kind := range types.IdentifierPriority {
		for _, batch := range chunks(s.queues[kind], e.graph.BatchSize()) {
			unresolved := batch
			for _, step := range cascade {
				if len(unresolved) == 0 {
					break
				}
				unresolved = step(ctx, s, kind, unresolved, w)
			}
		}
	}

	titleCascade := []strategy{e.graphTitleSearch, e.scholarTitleFallback}
	for _, batch := range chunks(s.titleOnly, e.titleBatch) {
		unresolved := batch
		for _, step := range titleCascade {
			if len(unresolved) == 0 {
				break
			}
			unresolved = step(ctx, s, "", unresolved, w)
		}
	}

	return s.extract(seeds)
}

// group assigns each seed to the queue of its first present identifier,
// counting duplicates of already-queued normalized values. Duplicates are
// not queued again; they keep their bare not-found placeholder. Seeds with
// no identifier but a title go to the title-only queue.
func (e *Engine) group(seeds []types.SeedReference) *session {
	s := &session{
		queues:   make(map[types.IDKind][]*pending),
		outcomes: make(map[string]*types.ResolutionOutcome, len(seeds)),
		dedup:    make(map[string]int),
	}
	seen := make(map[types.IDKind]map[string]bool)

	for _, seed := range seeds {
		s.outcomes[seed.ID] = &types.ResolutionOutcome{ID: seed.ID}

		p := &pending{seed: seed, normTitle: normalize.Title(seed.Title)}

		queued := false
		for _, kind := range types.IdentifierPriority {
			value := normalize.ByKind(string(kind), seed.Identifier(kind))
			if value == "" {
				continue
			}
			if seen[kind] == nil {
				seen[kind] = make(map[string]bool)
			}
			if seen[kind][value] {
				s.dedup[string(kind)]++
			} else {
				seen[kind][value] = true
				p.value = value
				s.queues[kind] = append(s.queues[kind], p)
			}
			queued = true
			break
		}
		if !queued && p.normTitle != "" {
			s.titleOnly = append(s.titleOnly, p)
		}
	}
	return s
}

// graphLookup resolves a batch against OpenAlex by identifier, then enriches
// the matches with MAG ids from Semantic Scholar.
func (e *Engine) graphLookup(ctx context.Context, s *session, kind types.IDKind, batch []*pending, w io.Writer) []*pending {
	values := make([]string, len(batch))
	for i, p := range batch {
		values[i] = p.value
	}

	cands, err := e.graph.LookupBatch(ctx, kind, values)
	if err != nil {
		fmt.Fprintf(w, "warning: openalex %s lookup failed: %v\n", kind, err)
		return batch
	}

	byValue := indexByKind(cands, kind)

	var matched []*types.Candidate
	var matchedPending []*pending
	var unresolved []*pending
	for _, p := range batch {
		cand, ok := byValue[p.value]
		if !ok {
			unresolved = append(unresolved, p)
			continue
		}
		matched = append(matched, cand)
		matchedPending = append(matchedPending, p)
	}

	e.enrichMagIDs(ctx, matched, w)

	for i, p := range matchedPending {
		s.found(p, *matched[i], false)
	}
	return unresolved
}

// scholarLookup resolves a batch against Semantic Scholar by the same
// identifier kind. Kinds the API cannot look up pass through untouched.
func (e *Engine) scholarLookup(ctx context.Context, s *session, kind types.IDKind, batch []*pending, w io.Writer) []*pending {
	if !e.scholar.Supports(kind) {
		return batch
	}

	var unresolved []*pending
	for _, sub := range chunks(batch, e.scholar.BatchSize()) {
		values := make([]string, len(sub))
		for i, p := range sub {
			values[i] = p.value
		}
		cands, err := e.scholar.LookupBatch(ctx, kind, values)
		if err != nil {
			fmt.Fprintf(w, "warning: semanticscholar %s lookup failed: %v\n", kind, err)
			unresolved = append(unresolved, sub...)
			continue
		}
		byValue := indexByKind(cands, kind)
		for _, p := range sub {
			if cand, ok := byValue[p.value]; ok {
				s.found(p, *cand, false)
			} else {
				unresolved = append(unresolved, p)
			}
		}
	}
	return unresolved
}

// scholarTitleFallback runs one free-text title search per input against
// Semantic Scholar and accepts only an exact normalized-title match, first
// match wins. Inputs without a title pass through.
func (e *Engine) scholarTitleFallback(ctx context.Context, s *session, _ types.IDKind, batch []*pending, w io.Writer) []*pending {
	var unresolved []*pending
	for _, p := range batch {
		if p.normTitle == "" {
			unresolved = append(unresolved, p)
			continue
		}
		cands, err := e.scholar.SearchTitle(ctx, strings.TrimSpace(p.seed.Title))
		if err != nil {
			fmt.Fprintf(w, "warning: semanticscholar title search failed for %q: %v\n", p.seed.ID, err)
			unresolved = append(unresolved, p)
			continue
		}
		if cand := firstExactTitle(cands, p.normTitle); cand != nil {
			s.found(p, *cand, true)
		} else {
			unresolved = append(unresolved, p)
		}
	}
	return unresolved
}

// graphTitleSearch resolves title-only seeds through one composite OpenAlex
// search per batch, matching each input's own normalized title exactly
// against the batch's candidate list.
func (e *Engine) graphTitleSearch(ctx context.Context, s *session, _ types.IDKind, batch []*pending, w io.Writer) []*pending {
	titles := make([]string, len(batch))
	for i, p := range batch {
		titles[i] = strings.TrimSpace(p.seed.Title)
	}

	cands, err := e.graph.SearchTitles(ctx, titles)
	if err != nil {
		fmt.Fprintf(w, "warning: openalex title search failed: %v\n", err)
		return batch
	}

	var matched []*types.Candidate
	var matchedPending []*pending
	var unresolved []*pending
	for _, p := range batch {
		cand := firstExactTitle(cands, p.normTitle)
		if cand == nil {
			unresolved = append(unresolved, p)
			continue
		}
		matched = append(matched, cand)
		matchedPending = append(matchedPending, p)
	}

	e.enrichMagIDs(ctx, matched, w)

	for i, p := range matchedPending {
		s.found(p, *matched[i], true)
	}
	return unresolved
}

// enrichMagIDs fills missing MAG ids on OpenAlex candidates from Semantic
// Scholar, trying the candidates' identifier kinds in priority order until
// each is enriched or every kind is exhausted.
func (e *Engine) enrichMagIDs(ctx context.Context, cands []*types.Candidate, w io.Writer) {
	remaining := make([]*types.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.MagID == "" {
			remaining = append(remaining, c)
		}
	}

	for _, kind := range types.IdentifierPriority {
		if len(remaining) == 0 {
			return
		}
		if !e.scholar.Supports(kind) {
			continue
		}

		var values []string
		var pendingCands []*types.Candidate
		var next []*types.Candidate
		for _, c := range remaining {
			if v := candidateField(*c, kind); v != "" {
				values = append(values, v)
				pendingCands = append(pendingCands, c)
			} else {
				next = append(next, c)
			}
		}
		if len(values) == 0 {
			continue
		}

		for start := 0; start < len(values); start += e.scholar.BatchSize() {
			end := min(start+e.scholar.BatchSize(), len(values))
			got, err := e.scholar.LookupBatch(ctx, kind, values[start:end])
			if err != nil {
				fmt.Fprintf(w, "warning: semanticscholar %s enrichment failed: %v\n", kind, err)
				next = append(next, pendingCands[start:end]...)
				continue
			}
			byValue := indexByKind(got, kind)
			for _, c := range pendingCands[start:end] {
				if hit, ok := byValue[candidateField(*c, kind)]; ok && hit.MagID != "" {
					c.MagID = hit.MagID
					c.S2PaperID = hit.S2PaperID
				} else {
					next = append(next, c)
				}
			}
		}

		// Candidates enriched this round drop out; the rest try the next kind.
		remaining = next
	}
}

// found records a resolved outcome for p.
func (s *session) found(p *pending, cand types.Candidate, byTitle bool) {
	out := s.outcomes[p.seed.ID]
	out.Found = true
	out.SearchedByTitle = byTitle
	out.Data = &types.ResolvedData{
		Title:      cand.Title,
		DOI:        cand.DOI,
		Journal:    cand.Journal,
		OpenAlexID: cand.OpenAlexID,
		MagID:      cand.MagID,
		Year:       cand.Year,
	}
	if byTitle {
		s.foundByTitle++
	} else {
		s.foundByID++
	}
}

// extract assembles the final result in input order.
func (s *session) extract(seeds []types.SeedReference) types.ResolutionResult {
	res := types.ResolutionResult{
		Results:           make([]types.ResolutionOutcome, 0, len(seeds)),
		Deduplication:     s.dedup,
		FoundByIdentifier: s.foundByID,
		FoundByTitle:      s.foundByTitle,
	}
	for _, seed := range seeds {
		out := s.outcomes[seed.ID]
		res.Results = append(res.Results, *out)
		if !out.Found {
			res.NotFound++
		}
	}
	return res
}

// indexByKind maps candidates by their normalized value of the given kind.
// Candidates missing that field are skipped.
func indexByKind(cands []types.Candidate, kind types.IDKind) map[string]*types.Candidate {
	byValue := make(map[string]*types.Candidate, len(cands))
	for i := range cands {
		if v := candidateField(cands[i], kind); v != "" {
			if _, dup := byValue[v]; !dup {
				byValue[v] = &cands[i]
			}
		}
	}
	return byValue
}

func candidateField(c types.Candidate, kind types.IDKind) string {
	switch kind {
	case types.KindDOI:
		return c.DOI
	case types.KindPMID:
		return c.PMID
	case types.KindPMCID:
		return c.PMCID
	case types.KindOpenAlex:
		return c.OpenAlexID
	case types.KindMag:
		return c.MagID
	}
	return ""
}

// firstExactTitle returns the first candidate whose normalized title equals
// normTitle, or nil. No fuzzy matching: a single differing character is a
// miss.
func firstExactTitle(cands []types.Candidate, normTitle string) *types.Candidate {
	if normTitle == "" {
		return nil
	}
	for i := range cands {
		if normalize.Title(cands[i].Title) == normTitle {
			return &cands[i]
		}
	}
	return nil
}

func chunks(items []*pending, size int) [][]*pending {
	if size <= 0 {
		size = 1
	}
	var out [][]*pending
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
