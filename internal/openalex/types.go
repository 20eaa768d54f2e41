// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"sort"
	"strings"

	"github.com/pdiddy/citation-engine/internal/normalize"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// WorkRecord pairs a fetched work with the normalized OpenAlex IDs of the
// works it references.
type WorkRecord struct {
	Citation        types.Citation
	ReferencedWorks []string
}

// OpenAlex API JSON structures.
type worksResponse struct {
	Meta    worksMeta `json:"meta"`
	Results []work    `json:"results"`
}

type worksMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	Type                  string           `json:"type"`
	IDs                   workIDs          `json:"ids"`
	PrimaryLocation       *location        `json:"primary_location"`
	Biblio                biblio           `json:"biblio"`
	Authorships           []authorship     `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	ReferencedWorks       []string         `json:"referenced_works"`
	OpenAccess            openAccess       `json:"open_access"`
}

type workIDs struct {
	OpenAlex string `json:"openalex"`
	DOI      string `json:"doi"`
	MAG      string `json:"mag"`
	PMID     string `json:"pmid"`
	PMCID    string `json:"pmcid"`
}

type location struct {
	Source *locationSource `json:"source"`
}

type locationSource struct {
	DisplayName string `json:"display_name"`
}

type biblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

type authorship struct {
	Author author `json:"author"`
}

type author struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// title prefers the title field and falls back to display_name.
func (w work) title() string {
	if w.Title != "" {
		return w.Title
	}
	return w.DisplayName
}

func (w work) journal() string {
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		return w.PrimaryLocation.Source.DisplayName
	}
	return ""
}

func (w work) pages() string {
	if w.Biblio.FirstPage == "" {
		return ""
	}
	if w.Biblio.LastPage == "" || w.Biblio.LastPage == w.Biblio.FirstPage {
		return w.Biblio.FirstPage
	}
	return w.Biblio.FirstPage + "-" + w.Biblio.LastPage
}

// toCandidate normalizes a work into the common candidate shape. Identifier
// fields pass through normalize so everything downstream is canonical.
func (w work) toCandidate() types.Candidate {
	return types.Candidate{
		Title:      strings.TrimSpace(w.title()),
		Year:       w.PublicationYear,
		Journal:    w.journal(),
		DOI:        normalize.DOI(firstNonEmpty(w.DOI, w.IDs.DOI)),
		PMID:       normalize.PMID(w.IDs.PMID),
		PMCID:      normalize.PMCID(w.IDs.PMCID),
		OpenAlexID: normalize.OpenAlexID(firstNonEmpty(w.ID, w.IDs.OpenAlex)),
		MagID:      normalize.MagID(w.IDs.MAG),
		Abstract:   reconstructAbstract(w.AbstractInvertedIndex),
	}
}

// toCitation normalizes a work into the aggregation output shape.
func (w work) toCitation() types.Citation {
	c := types.Citation{
		OpenAlexID:    normalize.OpenAlexID(firstNonEmpty(w.ID, w.IDs.OpenAlex)),
		MagID:         normalize.MagID(w.IDs.MAG),
		DOI:           normalize.DOI(firstNonEmpty(w.DOI, w.IDs.DOI)),
		PMID:          normalize.PMID(w.IDs.PMID),
		Title:         strings.TrimSpace(w.title()),
		Abstract:      reconstructAbstract(w.AbstractInvertedIndex),
		Year:          w.PublicationYear,
		Journal:       w.journal(),
		Pages:         w.pages(),
		Volume:        w.Biblio.Volume,
		Issue:         w.Biblio.Issue,
		Type:          w.Type,
		IsOpenAccess:  w.OpenAccess.IsOA,
		OpenAccessURL: w.OpenAccess.OAURL,
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			c.Authors = append(c.Authors, a.Author.DisplayName)
		}
	}
	return c
}

type openAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
