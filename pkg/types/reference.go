// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citation-engine
// pipelines. Implements: prd001-resolution (SeedReference, ResolutionOutcome,
// R1.1-R1.3, R4.1-R4.3); prd002-citation-search (CitationSeed, Citation,
// CitationResult).
package types

// IDKind names an identifier type handled by the resolution pipeline.
type IDKind string

const (
	KindDOI      IDKind = "doi"
	KindPMID     IDKind = "pmid"
	KindPMCID    IDKind = "pmcid"
	KindOpenAlex IDKind = "openalex"
	KindMag      IDKind = "mag"
)

// IdentifierPriority is the order in which a seed's identifiers are
// considered: the first present one decides the seed's lookup queue.
var IdentifierPriority = []IDKind{KindDOI, KindPMID, KindPMCID, KindOpenAlex, KindMag}

// SeedReference is one caller-supplied reference to resolve. The ID is
// caller-assigned and must be unique within a request; every other field is
// optional. A seed with neither a title nor an identifier resolves to
// not-found rather than erroring.
type SeedReference struct {
	// ID is the caller's opaque identifier for this seed.
	ID string `json:"id" yaml:"id"`

	// Title is the reference title as supplied by the caller.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// DOI is the raw DOI string (URL forms and prefixes are tolerated).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the raw PubMed identifier.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// PMCID is the raw PubMed Central identifier.
	PMCID string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`

	// OpenAlexID is the raw OpenAlex work identifier (e.g. "W2741809807").
	OpenAlexID string `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`

	// MagID is the raw Microsoft Academic Graph identifier.
	MagID string `json:"mag_id,omitempty" yaml:"mag_id,omitempty"`
}

// Identifier returns the seed's raw value for the given kind.
func (s SeedReference) Identifier(kind IDKind) string {
	switch kind {
	case KindDOI:
		return s.DOI
	case KindPMID:
		return s.PMID
	case KindPMCID:
		return s.PMCID
	case KindOpenAlex:
		return s.OpenAlexID
	case KindMag:
		return s.MagID
	}
	return ""
}

// ResolvedData is the canonical metadata attached to a found outcome.
type ResolvedData struct {
	// Title is the canonical title from the resolving provider.
	Title string `json:"title" yaml:"title"`

	// DOI is the normalized DOI, if known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Journal is the publication venue name, if known.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// OpenAlexID is the normalized OpenAlex work ID, if known.
	OpenAlexID string `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`

	// MagID is the normalized MAG ID, if known.
	MagID string `json:"mag_id,omitempty" yaml:"mag_id,omitempty"`

	// Year is the publication year, or 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`
}

// ResolutionOutcome is the result of resolving one SeedReference. Data is
// non-nil exactly when Found is true.
type ResolutionOutcome struct {
	// ID echoes the seed's ID.
	ID string `json:"id" yaml:"id"`

	// Found reports whether any provider returned a match.
	Found bool `json:"found" yaml:"found"`

	// SearchedByTitle is true when resolution fell through to free-text
	// title search.
	SearchedByTitle bool `json:"searched_by_title" yaml:"searched_by_title"`

	// Data holds the canonical metadata for found outcomes, nil otherwise.
	Data *ResolvedData `json:"data" yaml:"data"`
}

// ResolutionResult is the full response of a resolution run.
type ResolutionResult struct {
	// Results holds one outcome per input seed, in input order.
	Results []ResolutionOutcome `json:"results" yaml:"results"`

	// Deduplication counts, per identifier type, how many seeds were
	// recognized as duplicates of an already-queued value during grouping.
	// Types with a zero count are omitted.
	Deduplication map[string]int `json:"deduplication" yaml:"deduplication"`

	// FoundByIdentifier counts outcomes resolved through an identifier lookup.
	FoundByIdentifier int `json:"found_by_identifier" yaml:"found_by_identifier"`

	// FoundByTitle counts outcomes resolved through title search.
	FoundByTitle int `json:"found_by_title" yaml:"found_by_title"`

	// NotFound counts outcomes no provider could resolve.
	NotFound int `json:"not_found" yaml:"not_found"`
}

// Candidate is a provider's metadata record for one work, normalized into a
// common shape inside the provider clients. Candidates only live between a
// client call and its immediate consumer; identifier fields are already
// normalized when a Candidate is built.
type Candidate struct {
	Title      string
	Year       int
	Journal    string
	DOI        string
	PMID       string
	PMCID      string
	OpenAlexID string
	MagID      string
	// S2PaperID is Semantic Scholar's own paper identifier, when the
	// candidate came from (or was enriched by) Semantic Scholar.
	S2PaperID string
	Abstract  string
}
