// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seedfile loads reference lists from JSON or YAML files. Both a
// bare array and a document with a "references" (or "seeds") key are
// accepted, so resolution output can be fed back in as citation input.
package seedfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

type referenceDocument struct {
	References []types.SeedReference `json:"references" yaml:"references"`
}

type seedDocument struct {
	Seeds []types.CitationSeed `json:"seeds" yaml:"seeds"`
}

// LoadReferences reads seed references from path. Seeds without an ID get a
// positional one; duplicate IDs are an error.
func LoadReferences(path string) ([]types.SeedReference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var refs []types.SeedReference
	if err := decode(path, data, &refs); err != nil {
		var doc referenceDocument
		if docErr := decode(path, data, &doc); docErr != nil {
			return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
		}
		refs = doc.References
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("seed file %s contains no references", path)
	}

	seen := make(map[string]bool, len(refs))
	for i := range refs {
		if refs[i].ID == "" {
			refs[i].ID = fmt.Sprintf("ref%d", i+1)
		}
		if seen[refs[i].ID] {
			return nil, fmt.Errorf("duplicate reference id %q", refs[i].ID)
		}
		seen[refs[i].ID] = true
	}
	return refs, nil
}

// LoadCitationSeeds reads citation seeds from path, in the same formats as
// LoadReferences.
func LoadCitationSeeds(path string) ([]types.CitationSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seeds []types.CitationSeed
	if err := decode(path, data, &seeds); err != nil {
		var doc seedDocument
		if docErr := decode(path, data, &doc); docErr != nil {
			return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
		}
		seeds = doc.Seeds
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("seed file %s contains no seeds", path)
	}

	for i := range seeds {
		if seeds[i].ID == "" {
			seeds[i].ID = fmt.Sprintf("seed%d", i+1)
		}
	}
	return seeds, nil
}

// decode picks the codec from the file extension; anything that is not
// .json parses as YAML, which also accepts JSON-ish scalars.
func decode(path string, data []byte, v any) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}
