// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ris

import (
	"strings"
	"testing"

	"github.com/pdiddy/citation-engine/pkg/types"
)

func TestWriteFullRecord(t *testing.T) {
	var sb strings.Builder
	err := Write(&sb, []types.Citation{{
		Title:      "Attention Is All You Need",
		Authors:    []string{"Ashish Vaswani", "Noam Shazeer"},
		Year:       2017,
		Journal:    "NeurIPS",
		Volume:     "30",
		Pages:      "5998-6008",
		DOI:        "10.5555/3295222.3295349",
		PMID:       "12345",
		OpenAlexID: "w2741809807",
		Abstract:   "We propose\na new architecture",
		Type:       "article",
	}})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := sb.String()
	for _, want := range []string{
		"TY  - JOUR\n",
		"TI  - Attention Is All You Need\n",
		"AU  - Ashish Vaswani\n",
		"AU  - Noam Shazeer\n",
		"PY  - 2017\n",
		"VL  - 30\n",
		"SP  - 5998\n",
		"EP  - 6008\n",
		"DO  - 10.5555/3295222.3295349\n",
		"AB  - We propose a new architecture\n",
		"ID  - PMID:12345\n",
		"UR  - https://openalex.org/W2741809807\n",
		"ER  -\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSkipsEmptyFields(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, []types.Citation{{Title: "Bare", Type: "unknown-thing"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "TY  - GEN\n") {
		t.Errorf("unmapped type should export GEN:\n%s", out)
	}
	for _, absent := range []string{"JO  -", "DO  -", "AB  -", "PY  -"} {
		if strings.Contains(out, absent) {
			t.Errorf("empty field %q must be omitted:\n%s", absent, out)
		}
	}
}

func TestWriteSeparatesRecords(t *testing.T) {
	var sb strings.Builder
	err := Write(&sb, []types.Citation{
		{Title: "First"},
		{Title: "Second"},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(sb.String(), "ER  -\n\nTY  - GEN\n") {
		t.Errorf("records not blank-line separated:\n%s", sb.String())
	}
}
