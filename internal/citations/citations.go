// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citations aggregates backward and forward citations for a set of
// resolved seed references.
// Implements: prd002-citation-search (R1-R5).
//
// Both providers are harvested concurrently but merged in a fixed order,
// OpenAlex first, so output ordering and merge results are deterministic.
// Records are joined under a hierarchical identity key; a record found by
// both providers becomes one entry with gaps filled from the second source.
package citations

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/citation-engine/internal/normalize"
	"github.com/pdiddy/citation-engine/internal/openalex"
	"github.com/pdiddy/citation-engine/internal/s2"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// GraphClient is the slice of the OpenAlex client the engine depends on.
type GraphClient interface {
	BatchSize() int
	LookupBatch(ctx context.Context, kind types.IDKind, values []string) ([]types.Candidate, error)
	WorkRecords(ctx context.Context, ids []string) ([]openalex.WorkRecord, error)
	WorksByIDs(ctx context.Context, ids []string) ([]types.Citation, error)
	CitingWorks(ctx context.Context, openAlexID string) ([]types.Citation, error)
}

// ScholarClient is the slice of the Semantic Scholar client the engine
// depends on.
type ScholarClient interface {
	BatchSize() int
	FetchRecords(ctx context.Context, ids []string, withLinks bool) ([]s2.PaperRecord, error)
	FetchAbstracts(ctx context.Context, ids []string) ([]types.Citation, error)
}

// Engine aggregates citations across the two providers.
type Engine struct {
	graph   GraphClient
	scholar ScholarClient
}

// NewEngine builds a citation engine over the two provider clients.
func NewEngine(graph GraphClient, scholar ScholarClient) *Engine {
	return &Engine{graph: graph, scholar: scholar}
}

// harvest is one provider's raw contribution, gathered off the main
// goroutine. Warnings are buffered so they can be flushed in provider order
// after both harvests finish. The Semantic Scholar harvest additionally
// keeps a DOI-keyed abstract map so a record's abstract can backfill the
// same work harvested without one in the other direction.
type harvest struct {
	backward  []types.Citation
	forward   []types.Citation
	abstracts map[string]string
	warnings  []string
}

func (h *harvest) warnf(format string, args ...any) {
	h.warnings = append(h.warnings, fmt.Sprintf(format, args...))
}

func (h *harvest) noteAbstracts(cits []types.Citation) {
	for _, c := range cits {
		doi := normalize.DOI(c.DOI)
		if doi == "" || c.Abstract == "" {
			continue
		}
		if h.abstracts == nil {
			h.abstracts = make(map[string]string)
		}
		if _, ok := h.abstracts[doi]; !ok {
			h.abstracts[doi] = c.Abstract
		}
	}
}

// Aggregate collects citations for the seeds per opts. Empty provider or
// direction means both. Provider failures degrade the result, they never
// abort it: whatever was harvested is merged and returned.
func (e *Engine) Aggregate(ctx context.Context, seeds []types.CitationSeed, opts types.CitationOptions, w io.Writer) types.CitationResult {
	res := types.CitationResult{
		Backward: []types.Citation{},
		Forward:  []types.Citation{},
		Combined: []types.Citation{},
	}
	if len(seeds) == 0 {
		return res
	}

	prov := opts.Provider
	if prov == "" {
		prov = types.ProviderBoth
	}
	dir := opts.Direction
	if dir == "" {
		dir = types.DirectionBoth
	}

	useGraph := prov == types.ProviderOpenAlex || prov == types.ProviderBoth
	useScholar := prov == types.ProviderSemanticScholar || prov == types.ProviderBoth

	var graphH, scholarH harvest
	var wg sync.WaitGroup
	if useGraph {
		wg.Add(1)
		go func() {
			defer wg.Done()
			graphH = e.harvestGraph(ctx, seeds, dir)
		}()
	}
	if useScholar {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scholarH = e.harvestScholar(ctx, seeds, dir)
		}()
	}
	wg.Wait()

	for _, msg := range graphH.warnings {
		fmt.Fprintln(w, msg)
	}
	for _, msg := range scholarH.warnings {
		fmt.Fprintln(w, msg)
	}

	backward, bOverlap := mergeProviders(graphH.backward, scholarH.backward)
	forward, fOverlap := mergeProviders(graphH.forward, scholarH.forward)

	// The identity merge only joins records within one direction. A work
	// harvested without an abstract in one direction may still have shown
	// up with one in an S2 record of the other direction; the side map
	// carries it across.
	fillAbstracts(scholarH.abstracts, backward)
	fillAbstracts(scholarH.abstracts, forward)

	// With only OpenAlex harvested there is no second provider to fill
	// abstracts during the merge, so run a dedicated enrichment pass.
	if useGraph && !useScholar {
		msgs := e.enrichAbstracts(ctx, backward, forward)
		for _, msg := range msgs {
			fmt.Fprintln(w, msg)
		}
	}

	combined, dirOverlap := combine(backward, forward)

	res.Backward = backward
	res.Forward = forward
	res.Combined = combined
	res.Dedup = types.CitationDedup{
		BackwardProviderOverlap: bOverlap,
		ForwardProviderOverlap:  fOverlap,
		DirectionOverlap:        dirOverlap,
	}
	res.Stats = types.CitationStats{
		BackwardTotal:    len(backward),
		ForwardTotal:     len(forward),
		OpenAlexBackward: len(graphH.backward),
		OpenAlexForward:  len(graphH.forward),
		S2Backward:       len(scholarH.backward),
		S2Forward:        len(scholarH.forward),
	}
	return res
}

// harvestGraph collects the OpenAlex side: seed works' reference lists for
// the backward direction and cites: queries for the forward direction.
func (e *Engine) harvestGraph(ctx context.Context, seeds []types.CitationSeed, dir types.Direction) harvest {
	var h harvest
	ids := e.graphSeedIDs(ctx, seeds, &h)
	if len(ids) == 0 {
		return h
	}

	if dir.Backward() {
		var refIDs []string
		seen := make(map[string]bool)
		for _, chunk := range chunkStrings(ids, e.graph.BatchSize()) {
			recs, err := e.graph.WorkRecords(ctx, chunk)
			if err != nil {
				h.warnf("warning: openalex seed fetch failed: %v", err)
				continue
			}
			for _, rec := range recs {
				for _, ref := range rec.ReferencedWorks {
					if !seen[ref] {
						seen[ref] = true
						refIDs = append(refIDs, ref)
					}
				}
			}
		}
		for _, chunk := range chunkStrings(refIDs, e.graph.BatchSize()) {
			cits, err := e.graph.WorksByIDs(ctx, chunk)
			if err != nil {
				h.warnf("warning: openalex reference fetch failed: %v", err)
				continue
			}
			h.backward = append(h.backward, cits...)
		}
	}

	if dir.Forward() {
		for _, id := range ids {
			cits, err := e.graph.CitingWorks(ctx, id)
			if err != nil {
				h.warnf("warning: openalex citing works failed for %s: %v", id, err)
			}
			// CitingWorks returns the pages fetched before a failure.
			h.forward = append(h.forward, cits...)
		}
	}
	return h
}

// graphSeedIDs maps the seeds to OpenAlex work IDs, looking up seeds that
// carry only other identifiers. Seeds with no usable handle are skipped.
func (e *Engine) graphSeedIDs(ctx context.Context, seeds []types.CitationSeed, h *harvest) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	lookupKinds := []types.IDKind{types.KindDOI, types.KindPMID, types.KindMag}
	byKind := make(map[types.IDKind][]string)
	for _, seed := range seeds {
		if id := normalize.OpenAlexID(seed.OpenAlexID); id != "" {
			add(id)
			continue
		}
		for _, kind := range lookupKinds {
			if v := normalize.ByKind(string(kind), seedIdentifier(seed, kind)); v != "" {
				byKind[kind] = append(byKind[kind], v)
				break
			}
		}
	}

	for _, kind := range lookupKinds {
		for _, chunk := range chunkStrings(byKind[kind], e.graph.BatchSize()) {
			cands, err := e.graph.LookupBatch(ctx, kind, chunk)
			if err != nil {
				h.warnf("warning: openalex seed %s lookup failed: %v", kind, err)
				continue
			}
			for _, cand := range cands {
				add(cand.OpenAlexID)
			}
		}
	}
	return ids
}

// harvestScholar collects the Semantic Scholar side in one batched record
// fetch carrying the nested reference and citation lists.
func (e *Engine) harvestScholar(ctx context.Context, seeds []types.CitationSeed, dir types.Direction) harvest {
	var h harvest

	var ids []string
	seen := make(map[string]bool)
	for _, seed := range seeds {
		ref := scholarSeedRef(seed)
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		ids = append(ids, ref)
	}

	for _, chunk := range chunkStrings(ids, e.scholar.BatchSize()) {
		recs, err := e.scholar.FetchRecords(ctx, chunk, true)
		if err != nil {
			h.warnf("warning: semanticscholar record fetch failed: %v", err)
			continue
		}
		for _, rec := range recs {
			// Both nested lists feed the abstract map even when only one
			// direction was requested.
			h.noteAbstracts(rec.References)
			h.noteAbstracts(rec.Citations)
			if dir.Backward() {
				h.backward = append(h.backward, rec.References...)
			}
			if dir.Forward() {
				h.forward = append(h.forward, rec.Citations...)
			}
		}
	}
	return h
}

func seedIdentifier(seed types.CitationSeed, kind types.IDKind) string {
	switch kind {
	case types.KindDOI:
		return seed.DOI
	case types.KindPMID:
		return seed.PMID
	case types.KindMag:
		return seed.MagID
	case types.KindOpenAlex:
		return seed.OpenAlexID
	}
	return ""
}

// scholarSeedRef picks the seed's best Semantic Scholar lookup ref: the
// native MAG id first, then DOI, then PMID.
func scholarSeedRef(seed types.CitationSeed) string {
	if v := normalize.MagID(seed.MagID); v != "" {
		return s2.IDRef(types.KindMag, v)
	}
	if v := normalize.DOI(seed.DOI); v != "" {
		return s2.IDRef(types.KindDOI, v)
	}
	if v := normalize.PMID(seed.PMID); v != "" {
		return s2.IDRef(types.KindPMID, v)
	}
	return ""
}

// enrichAbstracts fills missing abstracts on the merged lists from Semantic
// Scholar, addressing records by MAG id where present, DOI otherwise.
func (e *Engine) enrichAbstracts(ctx context.Context, lists ...[]types.Citation) []string {
	var needy []*types.Citation
	var ids []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for i := range list {
			c := &list[i]
			if c.Abstract != "" {
				continue
			}
			ref := s2.IDRef(types.KindMag, c.MagID)
			if ref == "" {
				ref = s2.IDRef(types.KindDOI, c.DOI)
			}
			if ref == "" {
				continue
			}
			needy = append(needy, c)
			if !seen[ref] {
				seen[ref] = true
				ids = append(ids, ref)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var warnings []string
	abstracts := make(map[string]string)
	for _, chunk := range chunkStrings(ids, e.scholar.BatchSize()) {
		cits, err := e.scholar.FetchAbstracts(ctx, chunk)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("warning: abstract enrichment failed: %v", err))
			continue
		}
		for _, cit := range cits {
			if cit.MagID != "" {
				abstracts["mag:"+cit.MagID] = cit.Abstract
			}
			if cit.DOI != "" {
				abstracts["doi:"+cit.DOI] = cit.Abstract
			}
		}
	}

	for _, c := range needy {
		if abs, ok := abstracts["mag:"+c.MagID]; ok && c.MagID != "" {
			c.Abstract = abs
		} else if abs, ok := abstracts["doi:"+c.DOI]; ok && c.DOI != "" {
			c.Abstract = abs
		}
	}
	return warnings
}

// fillAbstracts backfills missing abstracts by DOI from the side map built
// during the Semantic Scholar harvest.
func fillAbstracts(abstracts map[string]string, list []types.Citation) {
	if len(abstracts) == 0 {
		return
	}
	for i := range list {
		if list[i].Abstract != "" {
			continue
		}
		doi := normalize.DOI(list[i].DOI)
		if doi == "" {
			continue
		}
		if abs, ok := abstracts[doi]; ok {
			list[i].Abstract = abs
		}
	}
}

// identityKey returns the citation's hierarchical identity key. Title is
// always present on harvested citations, so the key is never empty.
func identityKey(c types.Citation) string {
	return normalize.Key(c.DOI, c.OpenAlexID, c.MagID, c.PMID, c.Title)
}

// mergeProviders joins one direction's harvests under the identity key,
// OpenAlex entries first. overlap counts records found by both providers;
// duplicates within a single provider's harvest are merged silently.
func mergeProviders(graph, scholar []types.Citation) ([]types.Citation, int) {
	list := []types.Citation{}
	index := make(map[string]int)

	for _, c := range graph {
		key := identityKey(c)
		if i, ok := index[key]; ok {
			mergeInto(&list[i], c, false)
			continue
		}
		index[key] = len(list)
		list = append(list, c)
	}

	graphKeys := make(map[string]bool, len(index))
	for key := range index {
		graphKeys[key] = true
	}

	overlap := 0
	for _, c := range scholar {
		key := identityKey(c)
		if i, ok := index[key]; ok {
			mergeInto(&list[i], c, true)
			if graphKeys[key] {
				overlap++
			}
			continue
		}
		index[key] = len(list)
		list = append(list, c)
	}
	return list, overlap
}

// combine unions the two direction lists under the identity key, backward
// entries first, and counts keys present in both directions. Entries are
// carried over as-is: the direction lists are already merged and enriched,
// so a collision only increments the overlap count.
func combine(backward, forward []types.Citation) ([]types.Citation, int) {
	list := []types.Citation{}
	index := make(map[string]bool)

	for _, c := range backward {
		key := identityKey(c)
		if index[key] {
			continue
		}
		index[key] = true
		list = append(list, c)
	}

	overlap := 0
	for _, c := range forward {
		key := identityKey(c)
		if index[key] {
			overlap++
			continue
		}
		index[key] = true
		list = append(list, c)
	}
	return list, overlap
}

// mergeInto fills empty fields of dst from src. Semantic Scholar's abstract
// replaces a reconstructed one when fromScholar is set; everything else is
// first writer wins.
func mergeInto(dst *types.Citation, src types.Citation, fromScholar bool) {
	if dst.OpenAlexID == "" {
		dst.OpenAlexID = src.OpenAlexID
	}
	if dst.MagID == "" {
		dst.MagID = src.MagID
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.PMID == "" {
		dst.PMID = src.PMID
	}
	if fromScholar && src.Abstract != "" {
		dst.Abstract = src.Abstract
	} else if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.Journal == "" {
		dst.Journal = src.Journal
	}
	if dst.Pages == "" {
		dst.Pages = src.Pages
	}
	if dst.Volume == "" {
		dst.Volume = src.Volume
	}
	if dst.Issue == "" {
		dst.Issue = src.Issue
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if !dst.IsOpenAccess && src.IsOpenAccess {
		dst.IsOpenAccess = true
	}
	if dst.OpenAccessURL == "" {
		dst.OpenAccessURL = src.OpenAccessURL
	}
}

func chunkStrings(items []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var out [][]string
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
