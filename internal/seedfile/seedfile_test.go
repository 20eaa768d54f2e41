// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seedfile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadReferencesJSONArray(t *testing.T) {
	path := writeFile(t, "refs.json", `[
		{"id": "r1", "doi": "10.1/a"},
		{"title": "Untagged Reference"}
	]`)

	refs, err := LoadReferences(path)
	if err != nil {
		t.Fatalf("LoadReferences: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len = %d", len(refs))
	}
	if refs[0].ID != "r1" || refs[0].DOI != "10.1/a" {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].ID != "ref2" {
		t.Errorf("missing id not filled: %+v", refs[1])
	}
}

func TestLoadReferencesYAMLDocument(t *testing.T) {
	path := writeFile(t, "refs.yaml", `references:
  - id: r1
    pmid: "12345"
  - id: r2
    title: Some Paper
`)

	refs, err := LoadReferences(path)
	if err != nil {
		t.Fatalf("LoadReferences: %v", err)
	}
	if len(refs) != 2 || refs[0].PMID != "12345" || refs[1].Title != "Some Paper" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestLoadReferencesDuplicateID(t *testing.T) {
	path := writeFile(t, "refs.json", `[{"id": "r1"}, {"id": "r1"}]`)
	if _, err := LoadReferences(path); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadReferencesEmpty(t *testing.T) {
	path := writeFile(t, "refs.json", `[]`)
	if _, err := LoadReferences(path); err == nil {
		t.Fatal("expected error for empty list")
	}
}

func TestLoadCitationSeeds(t *testing.T) {
	path := writeFile(t, "seeds.yaml", `seeds:
  - id: s1
    openalex_id: W123
  - doi: 10.1/b
`)

	seeds, err := LoadCitationSeeds(path)
	if err != nil {
		t.Fatalf("LoadCitationSeeds: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("len = %d", len(seeds))
	}
	if seeds[0].OpenAlexID != "W123" {
		t.Errorf("seeds[0] = %+v", seeds[0])
	}
	if seeds[1].ID != "seed2" || seeds[1].DOI != "10.1/b" {
		t.Errorf("seeds[1] = %+v", seeds[1])
	}
}
