// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/pdiddy/citation-engine/internal/provider"
	"github.com/pdiddy/citation-engine/pkg/types"
)

const sampleWorksJSON = `{
  "meta": {"count": 2, "per_page": 50, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Attention Is All You Need",
      "doi": "https://doi.org/10.5555/3295222.3295349",
      "publication_year": 2017,
      "type": "article",
      "ids": {
        "openalex": "https://openalex.org/W2741809807",
        "mag": "2741809807",
        "pmid": "https://pubmed.ncbi.nlm.nih.gov/12345"
      },
      "primary_location": {"source": {"display_name": "NeurIPS"}},
      "biblio": {"volume": "30", "first_page": "5998", "last_page": "6008"},
      "authorships": [
        {"author": {"id": "A1", "display_name": "Ashish Vaswani"}},
        {"author": {"id": "A2", "display_name": "Noam Shazeer"}}
      ],
      "abstract_inverted_index": {"We": [0], "propose": [1]},
      "referenced_works": ["https://openalex.org/W1", "https://openalex.org/W2"],
      "open_access": {"is_oa": true, "oa_status": "green", "oa_url": "https://arxiv.org/pdf/1706.03762"}
    },
    {
      "id": "https://openalex.org/W999",
      "title": "",
      "display_name": "",
      "publication_year": 2020,
      "abstract_inverted_index": {}
    }
  ]
}`

// recordingServer captures the last request URL and serves fixed JSON.
func recordingServer(t *testing.T, body string) (*httptest.Server, *string) {
	t.Helper()
	var lastURL string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastURL = r.URL.String()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	return ts, &lastURL
}

func testClient(ts *httptest.Server) *Client {
	return NewClient(types.OpenAlexConfig{
		RequestsPerSecond: 1000, // no artificial delay in tests
		Burst:             100,
	}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
}

func TestLookupBatchBuildsORFilter(t *testing.T) {
	ts, lastURL := recordingServer(t, sampleWorksJSON)
	defer ts.Close()

	c := testClient(ts)
	cands, err := c.LookupBatch(context.Background(), types.KindDOI,
		[]string{"10.5555/3295222.3295349", "10.1038/nature12373"})
	if err != nil {
		t.Fatalf("LookupBatch: %v", err)
	}

	if !strings.Contains(*lastURL, "doi%3A10.5555%2F3295222.3295349%7C10.1038%2Fnature12373") {
		t.Errorf("request URL missing OR-joined doi filter: %s", *lastURL)
	}

	// The untitled second record must be dropped.
	if len(cands) != 1 {
		t.Fatalf("len(cands) = %d, want 1 (untitled record dropped)", len(cands))
	}

	got := cands[0]
	if got.DOI != "10.5555/3295222.3295349" {
		t.Errorf("DOI = %q, want resolver prefix stripped and lowercased", got.DOI)
	}
	if got.OpenAlexID != "w2741809807" {
		t.Errorf("OpenAlexID = %q, want normalized", got.OpenAlexID)
	}
	if got.MagID != "2741809807" {
		t.Errorf("MagID = %q", got.MagID)
	}
	if got.PMID != "12345" {
		t.Errorf("PMID = %q, want digits only", got.PMID)
	}
	if got.Journal != "NeurIPS" {
		t.Errorf("Journal = %q", got.Journal)
	}
	if got.Abstract != "We propose" {
		t.Errorf("Abstract = %q, want reconstructed from inverted index", got.Abstract)
	}
}

func TestLookupBatchUnsupportedKind(t *testing.T) {
	ts, _ := recordingServer(t, sampleWorksJSON)
	defer ts.Close()

	c := testClient(ts)
	_, err := c.LookupBatch(context.Background(), types.IDKind("isbn"), []string{"x"})
	if provider.KindOf(err) != provider.KindBadRequest {
		t.Errorf("kind = %v, want BAD_REQUEST", provider.KindOf(err))
	}
}

func TestLookupBatchEmptyValues(t *testing.T) {
	c := NewClient(types.OpenAlexConfig{})
	cands, err := c.LookupBatch(context.Background(), types.KindDOI, nil)
	if err != nil || cands != nil {
		t.Errorf("empty values should be a no-op, got %v, %v", cands, err)
	}
}

func TestSearchTitlesSanitizesFilterSyntax(t *testing.T) {
	ts, lastURL := recordingServer(t, sampleWorksJSON)
	defer ts.Close()

	c := testClient(ts)
	_, err := c.SearchTitles(context.Background(), []string{"attention: is|all, you need"})
	if err != nil {
		t.Fatalf("SearchTitles: %v", err)
	}
	if strings.Contains(*lastURL, "%7Call") {
		t.Errorf("pipe inside a title must not survive into the filter: %s", *lastURL)
	}
	if !strings.Contains(*lastURL, "title.search") {
		t.Errorf("request URL missing title.search filter: %s", *lastURL)
	}
}

func TestWorksByIDsUppercasesIDs(t *testing.T) {
	ts, lastURL := recordingServer(t, sampleWorksJSON)
	defer ts.Close()

	c := testClient(ts)
	cits, err := c.WorksByIDs(context.Background(), []string{"w2741809807", "https://openalex.org/W2"})
	if err != nil {
		t.Fatalf("WorksByIDs: %v", err)
	}
	if !strings.Contains(*lastURL, "openalex%3AW2741809807%7CW2") {
		t.Errorf("request URL missing uppercased id filter: %s", *lastURL)
	}
	if len(cits) != 1 {
		t.Fatalf("len(cits) = %d, want 1", len(cits))
	}
	if cits[0].Pages != "5998-6008" {
		t.Errorf("Pages = %q, want range", cits[0].Pages)
	}
	if len(cits[0].Authors) != 2 {
		t.Errorf("Authors = %v", cits[0].Authors)
	}
}

func TestWorkRecordsCollectsReferences(t *testing.T) {
	ts, lastURL := recordingServer(t, sampleWorksJSON)
	defer ts.Close()

	c := testClient(ts)
	recs, err := c.WorkRecords(context.Background(), []string{"w2741809807"})
	if err != nil {
		t.Fatalf("WorkRecords: %v", err)
	}
	if !strings.Contains(*lastURL, "openalex%3AW2741809807") {
		t.Errorf("request URL missing id filter: %s", *lastURL)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Citation.OpenAlexID != "w2741809807" {
		t.Errorf("OpenAlexID = %q", recs[0].Citation.OpenAlexID)
	}
	want := []string{"w1", "w2"}
	if len(recs[0].ReferencedWorks) != 2 ||
		recs[0].ReferencedWorks[0] != want[0] || recs[0].ReferencedWorks[1] != want[1] {
		t.Errorf("ReferencedWorks = %v, want %v", recs[0].ReferencedWorks, want)
	}
}

func TestCitingWorksPagination(t *testing.T) {
	pageCalls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageCalls++
		page := r.URL.Query().Get("page")

		n := citingPageSize // full first page
		if page == "2" {
			n = 3 // short second page ends pagination
		}
		results := make([]map[string]any, n)
		for i := range results {
			results[i] = map[string]any{
				"id":    fmt.Sprintf("https://openalex.org/W%s00%d", page, i),
				"title": fmt.Sprintf("Citing paper %s-%d", page, i),
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"meta":    map[string]any{"count": citingPageSize + 3},
			"results": results,
		})
	}))
	defer ts.Close()

	c := testClient(ts)
	cits, err := c.CitingWorks(context.Background(), "W123")
	if err != nil {
		t.Fatalf("CitingWorks: %v", err)
	}
	if pageCalls != 2 {
		t.Errorf("pageCalls = %d, want 2", pageCalls)
	}
	if len(cits) != citingPageSize+3 {
		t.Errorf("len(cits) = %d, want %d", len(cits), citingPageSize+3)
	}
}

func TestCitingWorksPageCeiling(t *testing.T) {
	pageCalls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageCalls++
		// Every page full: pagination must stop at the ceiling.
		results := make([]map[string]any, citingPageSize)
		for i := range results {
			results[i] = map[string]any{
				"id":    fmt.Sprintf("https://openalex.org/W%d", i),
				"title": "t",
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer ts.Close()

	c := NewClient(types.OpenAlexConfig{
		RequestsPerSecond: 1000,
		Burst:             100,
		MaxCitingPages:    2,
	}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	_, err := c.CitingWorks(context.Background(), "W123")
	if err != nil {
		t.Fatalf("CitingWorks: %v", err)
	}
	if pageCalls != 2 {
		t.Errorf("pageCalls = %d, want ceiling of 2", pageCalls)
	}
}

func TestErrorKinds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := testClient(ts)
	_, err := c.LookupBatch(context.Background(), types.KindDOI, []string{"10.1/x"})
	if !provider.IsRateLimited(err) {
		t.Errorf("want TOO_MANY_REQUESTS, got %v", err)
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	l := NewLimiter(types.OpenAlexConfig{})
	if l.Limit() != rate.Limit(types.DefaultOpenAlexRate) {
		t.Errorf("limit = %v, want default rate", l.Limit())
	}
	if l.Burst() != types.DefaultOpenAlexBurst {
		t.Errorf("burst = %d, want default burst", l.Burst())
	}

	l = NewLimiter(types.OpenAlexConfig{RequestsPerSecond: 2, Burst: 3})
	if l.Limit() != 2 || l.Burst() != 3 {
		t.Errorf("limiter = %v/%d, want configured values", l.Limit(), l.Burst())
	}
}
