// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes scholarly identifiers and titles so that
// values from different providers and user input compare equal.
// Implements: prd001-resolution (R2.1-R2.4); prd002-citation-search (identity key).
//
// Every function is idempotent and returns "" for empty input.
package normalize

import (
	"strings"
	"unicode"
)

// doiPrefixes are stripped case-insensitively, longest match first.
var doiPrefixes = []string{
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"https://doi.org/",
	"http://doi.org/",
	"dx.doi.org/",
	"doi.org/",
	"doi:",
}

// DOI returns the bare lowercase DOI: URL and "doi:" prefixes stripped,
// surrounding quotes removed.
func DOI(s string) string {
	s = clean(s)
	s = stripPrefixes(s, doiPrefixes)
	return strings.ToLower(s)
}

var pmidPrefixes = []string{
	"https://pubmed.ncbi.nlm.nih.gov/",
	"http://pubmed.ncbi.nlm.nih.gov/",
	"pubmed.ncbi.nlm.nih.gov/",
	"pmid:",
}

// PMID returns the digit-only PubMed identifier.
func PMID(s string) string {
	s = stripPrefixes(clean(s), pmidPrefixes)
	return digits(s)
}

var pmcidPrefixes = []string{
	"https://www.ncbi.nlm.nih.gov/pmc/articles/",
	"http://www.ncbi.nlm.nih.gov/pmc/articles/",
	"pmcid:",
	"pmc",
}

// PMCID returns the digit-only PubMed Central identifier ("PMC3531190" → "3531190").
func PMCID(s string) string {
	s = stripPrefixes(clean(s), pmcidPrefixes)
	return digits(s)
}

var openAlexPrefixes = []string{
	"https://openalex.org/works/",
	"https://openalex.org/",
	"http://openalex.org/",
	"openalex.org/",
	"openalex:",
}

// OpenAlexID returns the lowercase OpenAlex work ID ("https://openalex.org/W123" → "w123").
func OpenAlexID(s string) string {
	s = stripPrefixes(clean(s), openAlexPrefixes)
	return strings.ToLower(s)
}

var magPrefixes = []string{
	"https://academic.microsoft.com/paper/",
	"mag:",
}

// MagID returns the digit-only Microsoft Academic Graph identifier.
func MagID(s string) string {
	s = stripPrefixes(clean(s), magPrefixes)
	return digits(s)
}

// Title returns the title reduced to lowercase alphanumerics, for exact-match
// comparison. "A Study Of Things!" and "a study of things" normalize equal.
func Title(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ByKind normalizes value according to the named identifier kind
// ("doi", "pmid", "pmcid", "openalex", "mag"). Unknown kinds are trimmed only.
func ByKind(kind, value string) string {
	switch kind {
	case "doi":
		return DOI(value)
	case "pmid":
		return PMID(value)
	case "pmcid":
		return PMCID(value)
	case "openalex":
		return OpenAlexID(value)
	case "mag":
		return MagID(value)
	}
	return strings.TrimSpace(value)
}

// Key computes the hierarchical identity key used to deduplicate and join
// work records across providers: the first present value of DOI, OpenAlex ID,
// MAG ID, PMID, title wins and is prefixed with its kind. Returns "" when
// every field is empty.
func Key(doi, openAlexID, magID, pmid, title string) string {
	if v := DOI(doi); v != "" {
		return "doi:" + v
	}
	if v := OpenAlexID(openAlexID); v != "" {
		return "openalex:" + v
	}
	if v := MagID(magID); v != "" {
		return "mag:" + v
	}
	if v := PMID(pmid); v != "" {
		return "pmid:" + v
	}
	if v := Title(title); v != "" {
		return "title:" + v
	}
	return ""
}

// clean trims whitespace and strips one layer of surrounding quotes.
func clean(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// stripPrefixes removes the first matching prefix, case-insensitively.
func stripPrefixes(s string, prefixes []string) string {
	for _, p := range prefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

// digits keeps only digit characters.
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
