// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Provider selects which metadata providers a citation search queries.
type Provider string

const (
	ProviderOpenAlex        Provider = "openalex"
	ProviderSemanticScholar Provider = "semanticscholar"
	ProviderBoth            Provider = "both"
)

// Valid reports whether p is a recognized provider choice.
func (p Provider) Valid() bool {
	return p == ProviderOpenAlex || p == ProviderSemanticScholar || p == ProviderBoth
}

// Direction selects which citation directions a search expands.
type Direction string

const (
	DirectionBackward Direction = "backward"
	DirectionForward  Direction = "forward"
	DirectionBoth     Direction = "both"
)

// Valid reports whether d is a recognized direction choice.
func (d Direction) Valid() bool {
	return d == DirectionBackward || d == DirectionForward || d == DirectionBoth
}

// Backward reports whether backward citations are requested.
func (d Direction) Backward() bool { return d == DirectionBackward || d == DirectionBoth }

// Forward reports whether forward citations are requested.
func (d Direction) Forward() bool { return d == DirectionForward || d == DirectionBoth }

// CitationOptions configures one citation search.
type CitationOptions struct {
	Provider  Provider  `json:"provider" yaml:"provider"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// CitationSeed is one resolved reference driving the citation search.
// Derived 1:1 from found ResolutionOutcomes.
type CitationSeed struct {
	ID         string `json:"id" yaml:"id"`
	OpenAlexID string `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`
	MagID      string `json:"mag_id,omitempty" yaml:"mag_id,omitempty"`
	DOI        string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID       string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
}

// HasHandle reports whether the seed carries anything a provider could
// search by.
func (s CitationSeed) HasHandle() bool {
	return s.OpenAlexID != "" || s.MagID != "" || s.DOI != "" || s.PMID != "" || s.Title != ""
}

// SeedFromOutcome derives a citation seed from a resolution outcome. The
// second return value is false for outcomes that were not resolved, which
// carry nothing to search by.
func SeedFromOutcome(o ResolutionOutcome) (CitationSeed, bool) {
	if !o.Found || o.Data == nil {
		return CitationSeed{}, false
	}
	return CitationSeed{
		ID:         o.ID,
		OpenAlexID: o.Data.OpenAlexID,
		MagID:      o.Data.MagID,
		DOI:        o.Data.DOI,
		Title:      o.Data.Title,
	}, true
}

// Citation is the unit of aggregated output. Title is always present;
// provider clients drop records without one. A Citation is mutated only to
// merge in data from a second provider, never after aggregation completes.
type Citation struct {
	OpenAlexID string `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`
	MagID      string `json:"mag_id,omitempty" yaml:"mag_id,omitempty"`
	DOI        string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID       string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	Title    string   `json:"title" yaml:"title"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`
	Journal  string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Pages    string   `json:"pages,omitempty" yaml:"pages,omitempty"`
	Volume   string   `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue    string   `json:"issue,omitempty" yaml:"issue,omitempty"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`

	IsOpenAccess  bool   `json:"is_open_access,omitempty" yaml:"is_open_access,omitempty"`
	OpenAccessURL string `json:"open_access_url,omitempty" yaml:"open_access_url,omitempty"`
}

// CitationDedup counts merge events observed while aggregating.
type CitationDedup struct {
	// BackwardProviderOverlap counts backward citations found by both
	// providers and merged into one record.
	BackwardProviderOverlap int `json:"backward_provider_overlap" yaml:"backward_provider_overlap"`

	// ForwardProviderOverlap is the same count for the forward direction.
	ForwardProviderOverlap int `json:"forward_provider_overlap" yaml:"forward_provider_overlap"`

	// DirectionOverlap counts identity keys present in both backward and
	// forward sets.
	DirectionOverlap int `json:"direction_overlap" yaml:"direction_overlap"`
}

// CitationStats holds per-direction and per-provider counts.
type CitationStats struct {
	BackwardTotal int `json:"backward_total" yaml:"backward_total"`
	ForwardTotal  int `json:"forward_total" yaml:"forward_total"`

	OpenAlexBackward int `json:"openalex_backward" yaml:"openalex_backward"`
	OpenAlexForward  int `json:"openalex_forward" yaml:"openalex_forward"`
	S2Backward       int `json:"semanticscholar_backward" yaml:"semanticscholar_backward"`
	S2Forward        int `json:"semanticscholar_forward" yaml:"semanticscholar_forward"`
}

// CitationResult is the aggregated output of a citation search. Combined is
// the union of Backward and Forward under the identity key: a citation
// appearing in both directions is one combined entry.
type CitationResult struct {
	Backward []Citation    `json:"backward" yaml:"backward"`
	Forward  []Citation    `json:"forward" yaml:"forward"`
	Combined []Citation    `json:"combined" yaml:"combined"`
	Dedup    CitationDedup `json:"deduplication" yaml:"deduplication"`
	Stats    CitationStats `json:"statistics" yaml:"statistics"`
}
