// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package s2

import (
	"strconv"
	"strings"

	"github.com/pdiddy/citation-engine/internal/normalize"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Semantic Scholar Graph API JSON structures.
type searchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Data   []paper `json:"data"`
}

type paper struct {
	PaperID          string      `json:"paperId"`
	Title            string      `json:"title"`
	Abstract         string      `json:"abstract"`
	Venue            string      `json:"venue"`
	Year             int         `json:"year"`
	ExternalIDs      externalIDs `json:"externalIds"`
	Journal          *journal    `json:"journal"`
	PublicationTypes []string    `json:"publicationTypes"`
	IsOpenAccess     bool        `json:"isOpenAccess"`
	OpenAccessPdf    *oaPdf      `json:"openAccessPdf"`
	Authors          []author    `json:"authors"`
	References       []paper     `json:"references"`
	Citations        []paper     `json:"citations"`
}

type externalIDs struct {
	DOI           string `json:"DOI"`
	ArXiv         string `json:"ArXiv"`
	MAG           string `json:"MAG"`
	PubMed        string `json:"PubMed"`
	PubMedCentral string `json:"PubMedCentral"`
	CorpusID      int64  `json:"CorpusId"`
}

type journal struct {
	Name   string `json:"name"`
	Pages  string `json:"pages"`
	Volume string `json:"volume"`
}

type oaPdf struct {
	URL string `json:"url"`
}

type author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

func (p paper) journalName() string {
	if p.Journal != nil && p.Journal.Name != "" {
		return p.Journal.Name
	}
	return p.Venue
}

// toCandidate normalizes a paper into the common candidate shape.
func (p paper) toCandidate() types.Candidate {
	return types.Candidate{
		Title:     strings.TrimSpace(p.Title),
		Year:      p.Year,
		Journal:   p.journalName(),
		DOI:       normalize.DOI(p.ExternalIDs.DOI),
		PMID:      normalize.PMID(p.ExternalIDs.PubMed),
		PMCID:     normalize.PMCID(p.ExternalIDs.PubMedCentral),
		MagID:     normalize.MagID(p.ExternalIDs.MAG),
		S2PaperID: p.PaperID,
		Abstract:  p.Abstract,
	}
}

// toCitation normalizes a paper into the aggregation output shape.
func (p paper) toCitation() types.Citation {
	c := types.Citation{
		MagID:        normalize.MagID(p.ExternalIDs.MAG),
		DOI:          normalize.DOI(p.ExternalIDs.DOI),
		PMID:         normalize.PMID(p.ExternalIDs.PubMed),
		Title:        strings.TrimSpace(p.Title),
		Abstract:     p.Abstract,
		Year:         p.Year,
		Journal:      p.journalName(),
		IsOpenAccess: p.IsOpenAccess,
	}
	if p.Journal != nil {
		c.Pages = p.Journal.Pages
		c.Volume = p.Journal.Volume
	}
	if len(p.PublicationTypes) > 0 {
		c.Type = strings.ToLower(p.PublicationTypes[0])
	}
	if p.OpenAccessPdf != nil {
		c.OpenAccessURL = p.OpenAccessPdf.URL
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			c.Authors = append(c.Authors, a.Name)
		}
	}
	return c
}

// PaperRecord is one batch-fetched work with its reference and citation
// lists, used by the aggregation engine.
type PaperRecord struct {
	Citation   types.Citation
	References []types.Citation
	Citations  []types.Citation
}

// IDRef builds a Semantic Scholar lookup id from an identifier kind and a
// normalized value ("MAG:2741809807", "DOI:10.1038/nature12373"). Returns ""
// for kinds the API cannot look up.
func IDRef(kind types.IDKind, value string) string {
	if value == "" {
		return ""
	}
	switch kind {
	case types.KindDOI:
		return "DOI:" + value
	case types.KindPMID:
		return "PMID:" + value
	case types.KindPMCID:
		return "PMCID:" + value
	case types.KindMag:
		return "MAG:" + value
	}
	return ""
}

// CorpusRef builds a lookup id from a CorpusId.
func CorpusRef(id int64) string {
	return "CorpusId:" + strconv.FormatInt(id, 10)
}
