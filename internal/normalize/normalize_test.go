// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "testing"

func TestDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "10.1038/nature12373", "10.1038/nature12373"},
		{"uppercase", "10.1038/NATURE12373", "10.1038/nature12373"},
		{"trailing space", "10.1038/NATURE12373 ", "10.1038/nature12373"},
		{"https resolver", "https://doi.org/10.1038/nature12373", "10.1038/nature12373"},
		{"dx resolver", "http://dx.doi.org/10.1038/nature12373", "10.1038/nature12373"},
		{"label prefix", "DOI:10.1038/nature12373", "10.1038/nature12373"},
		{"quoted", `"10.1038/nature12373"`, "10.1038/nature12373"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DOI(tt.in); got != tt.want {
				t.Errorf("DOI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPMID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"12345", "12345"},
		{"PMID:12345", "12345"},
		{"pmid: 12345", "12345"},
		{"https://pubmed.ncbi.nlm.nih.gov/12345/", "12345"},
		{"'12345'", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PMID(tt.in); got != tt.want {
			t.Errorf("PMID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPMCID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PMC3531190", "3531190"},
		{"pmcid: PMC3531190", "3531190"},
		{"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC3531190/", "3531190"},
		{"3531190", "3531190"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PMCID(tt.in); got != tt.want {
			t.Errorf("PMCID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenAlexID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"W2741809807", "w2741809807"},
		{"https://openalex.org/W2741809807", "w2741809807"},
		{"openalex:W2741809807", "w2741809807"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := OpenAlexID(tt.in); got != tt.want {
			t.Errorf("OpenAlexID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMagID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2741809807", "2741809807"},
		{"MAG:2741809807", "2741809807"},
		{"https://academic.microsoft.com/paper/2741809807", "2741809807"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MagID(tt.in); got != tt.want {
			t.Errorf("MagID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A Study Of Things", "astudyofthings"},
		{"a study of things!", "astudyofthings"},
		{"  Attention Is All You Need  ", "attentionisallyouneed"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Title(tt.in); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Normalization must be a fixed point: applying it twice changes nothing.
func TestIdempotence(t *testing.T) {
	fns := map[string]func(string) string{
		"DOI":        DOI,
		"PMID":       PMID,
		"PMCID":      PMCID,
		"OpenAlexID": OpenAlexID,
		"MagID":      MagID,
		"Title":      Title,
	}
	inputs := []string{
		"",
		"https://doi.org/10.1038/NATURE12373",
		"PMID: 12345",
		"PMC3531190",
		"https://openalex.org/W2741809807",
		"MAG:2741809807",
		"A Study Of Things!",
		`"quoted value"`,
	}
	for name, fn := range fns {
		for _, in := range inputs {
			once := fn(in)
			if twice := fn(once); twice != once {
				t.Errorf("%s not idempotent on %q: %q != %q", name, in, twice, once)
			}
		}
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name                            string
		doi, openalex, mag, pmid, title string
		want                            string
	}{
		{"doi wins", "10.1/a", "W1", "2", "3", "T", "doi:10.1/a"},
		{"openalex next", "", "W1", "2", "3", "T", "openalex:w1"},
		{"mag next", "", "", "2", "3", "T", "mag:2"},
		{"pmid next", "", "", "", "3", "T", "pmid:3"},
		{"title last", "", "", "", "", "A Study", "title:astudy"},
		{"all empty", "", "", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.doi, tt.openalex, tt.mag, tt.pmid, tt.title); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Records whose raw DOIs differ only by casing or resolver prefix must share
// an identity key.
func TestKeyDOIVariants(t *testing.T) {
	a := Key("https://doi.org/10.1038/NATURE12373", "W1", "", "", "x")
	b := Key("10.1038/nature12373", "W2", "", "", "y")
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
}
