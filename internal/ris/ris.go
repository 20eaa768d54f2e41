// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ris exports aggregated citations to RIS format for citation
// managers.
package ris

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// risTypes maps provider work types to RIS reference types. Anything
// unmapped exports as a generic entry.
var risTypes = map[string]string{
	"article":         "JOUR",
	"journalarticle":  "JOUR",
	"book":            "BOOK",
	"book-chapter":    "CHAP",
	"conference":      "CONF",
	"conferencepaper": "CONF",
	"dataset":         "DATA",
	"dissertation":    "THES",
	"preprint":        "JOUR",
	"report":          "RPRT",
	"review":          "JOUR",
}

// Write exports the citations to w, one RIS record per citation, blank line
// separated.
func Write(w io.Writer, cits []types.Citation) error {
	bw := bufio.NewWriter(w)
	for i, c := range cits {
		writeTag(bw, "TY", refType(c.Type))
		writeTag(bw, "TI", c.Title)
		for _, au := range c.Authors {
			writeTag(bw, "AU", au)
		}
		if c.Year > 0 {
			writeTag(bw, "PY", fmt.Sprintf("%d", c.Year))
		}
		writeTag(bw, "JO", c.Journal)
		writeTag(bw, "VL", c.Volume)
		writeTag(bw, "IS", c.Issue)

		start, end := splitPages(c.Pages)
		writeTag(bw, "SP", start)
		writeTag(bw, "EP", end)

		writeTag(bw, "DO", c.DOI)
		writeTag(bw, "AB", c.Abstract)
		if c.PMID != "" {
			writeTag(bw, "ID", "PMID:"+c.PMID)
		}
		if c.OpenAlexID != "" {
			writeTag(bw, "UR", "https://openalex.org/"+strings.ToUpper(c.OpenAlexID))
		} else if c.OpenAccessURL != "" {
			writeTag(bw, "UR", c.OpenAccessURL)
		}
		writeTag(bw, "ER", "")

		if i < len(cits)-1 {
			bw.WriteString("\n")
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing RIS output: %w", err)
	}
	return nil
}

func refType(t string) string {
	key := strings.ToLower(strings.TrimSpace(t))
	key = strings.ReplaceAll(key, " ", "")
	if ris, ok := risTypes[key]; ok {
		return ris
	}
	return "GEN"
}

func writeTag(w *bufio.Writer, tag, value string) {
	if tag == "ER" {
		w.WriteString("ER  -\n")
		return
	}
	if strings.TrimSpace(value) == "" {
		return
	}
	w.WriteString(tag + "  - " + sanitize(value) + "\n")
}

func sanitize(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.TrimSpace(v)
}

func splitPages(pages string) (string, string) {
	pages = strings.TrimSpace(pages)
	if pages == "" {
		return "", ""
	}
	for _, sep := range []string{"-", "–", "—"} {
		if strings.Contains(pages, sep) {
			parts := strings.SplitN(pages, sep, 2)
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
	}
	return pages, ""
}
