// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pdiddy/pubwatch/internal/httputil"
	"github.com/pdiddy/pubwatch/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testClient() *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: 5 * time.Second},
		UserAgent: "pubwatch-test/0.1",
		now: func() time.Time {
			return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		},
	}
}

// --- Search ---

func TestSearchBuildsTerm(t *testing.T) {
	var got url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"esearchresult":{"count":"2","idlist":["111","222"]}}`))
	}))
	defer ts.Close()

	old := esearchBase
	esearchBase = ts.URL
	defer func() { esearchBase = old }()

	c := testClient()
	c.APIKey = "nk_test"
	ids, err := c.Search(context.Background(), types.QueryKey{Name: "Curie Marie", Affiliation: "Paris"}, 7)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}

	if len(ids) != 2 || ids[0] != "111" || ids[1] != "222" {
		t.Errorf("ids = %v, want [111 222]", ids)
	}
	if term := got.Get("term"); term != "(Curie Marie[Author]) AND Paris[Affiliation]" {
		t.Errorf("term = %q", term)
	}
	if got.Get("datetype") != "edat" {
		t.Errorf("datetype = %q, want edat", got.Get("datetype"))
	}
	if got.Get("mindate") != "2026/03/08" || got.Get("maxdate") != "2026/03/15" {
		t.Errorf("window = %q..%q, want 2026/03/08..2026/03/15", got.Get("mindate"), got.Get("maxdate"))
	}
	if got.Get("api_key") != "nk_test" {
		t.Errorf("api_key = %q", got.Get("api_key"))
	}
}

func TestSearchNoAffiliation(t *testing.T) {
	var term string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		term = r.URL.Query().Get("term")
		w.Write([]byte(`{"esearchresult":{"count":"0","idlist":[]}}`))
	}))
	defer ts.Close()

	old := esearchBase
	esearchBase = ts.URL
	defer func() { esearchBase = old }()

	ids, err := testClient().Search(context.Background(), types.QueryKey{Name: "Curie M"}, 7)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want empty", ids)
	}
	if term != "Curie M[Author]" {
		t.Errorf("term = %q, want Curie M[Author]", term)
	}
}

func TestSearchSourceUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := esearchBase
	esearchBase = ts.URL
	defer func() { esearchBase = old }()

	_, err := testClient().Search(context.Background(), types.QueryKey{Name: "Curie Marie"}, 7)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestSearchMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer ts.Close()

	old := esearchBase
	esearchBase = ts.URL
	defer func() { esearchBase = old }()

	_, err := testClient().Search(context.Background(), types.QueryKey{Name: "Curie Marie"}, 7)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

// --- FetchSummaries ---

const efetchBody = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>222</PMID>
      <Article>
        <Journal>
          <JournalIssue>
            <PubDate><Year>2026</Year><Month>Mar</Month></PubDate>
          </JournalIssue>
          <Title>Nature</Title>
        </Journal>
        <ArticleTitle>On Radium</ArticleTitle>
        <AuthorList>
          <Author><LastName>Curie</LastName><Initials>M</Initials></Author>
          <Author><LastName>Becquerel</LastName><Initials>H</Initials></Author>
          <Author><CollectiveName>Radium Consortium</CollectiveName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestFetchSummaries(t *testing.T) {
	var got url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(efetchBody))
	}))
	defer ts.Close()

	old := efetchBase
	efetchBase = ts.URL
	defer func() { efetchBase = old }()

	sums, err := testClient().FetchSummaries(context.Background(), []string{"222", "999"})
	if err != nil {
		t.Fatalf("FetchSummaries() = %v", err)
	}

	if got.Get("id") != "222,999" {
		t.Errorf("id param = %q, want 222,999", got.Get("id"))
	}

	s, ok := sums["222"]
	if !ok {
		t.Fatalf("missing summary for 222: %v", sums)
	}
	if s.Title != "On Radium" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Journal != "Nature" {
		t.Errorf("Journal = %q", s.Journal)
	}
	if s.PubDate != "Mar 2026" {
		t.Errorf("PubDate = %q", s.PubDate)
	}
	if len(s.Authors) != 2 || s.Authors[0] != "Curie M" || s.Authors[1] != "Becquerel H" {
		t.Errorf("Authors = %v", s.Authors)
	}

	// Unknown identifier 999 is simply absent.
	if _, ok := sums["999"]; ok {
		t.Error("999 should be absent from the result")
	}
}

func TestFetchSummariesEmpty(t *testing.T) {
	sums, err := testClient().FetchSummaries(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchSummaries() = %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("sums = %v, want empty", sums)
	}
}

func TestFetchSummariesBatching(t *testing.T) {
	var requests []int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("id")
		n := 1
		for _, ch := range ids {
			if ch == ',' {
				n++
			}
		}
		requests = append(requests, n)
		w.Write([]byte(`<PubmedArticleSet></PubmedArticleSet>`))
	}))
	defer ts.Close()

	old := efetchBase
	efetchBase = ts.URL
	defer func() { efetchBase = old }()

	ids := make([]string, 450)
	for i := range ids {
		ids[i] = "1"
	}
	if _, err := testClient().FetchSummaries(context.Background(), ids); err != nil {
		t.Fatalf("FetchSummaries() = %v", err)
	}

	if len(requests) != 3 || requests[0] != 200 || requests[1] != 200 || requests[2] != 50 {
		t.Errorf("batch sizes = %v, want [200 200 50]", requests)
	}
}

func TestFetchSummariesSourceUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	old := efetchBase
	efetchBase = ts.URL
	defer func() { efetchBase = old }()

	_, err := testClient().FetchSummaries(context.Background(), []string{"111"})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

// --- NewClient pacing tiers ---

func TestNewClientPacerTier(t *testing.T) {
	// Without a key the client must keep at least the 3 req/s spacing; with
	// a key it may go to 10 req/s. Exercised indirectly via config defaults.
	base := types.PubMedConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "t"},
	}

	c := NewClient(base)
	if c.Pacer == nil {
		t.Fatal("Pacer = nil")
	}

	withKey := base
	withKey.APIKey = "nk"
	if NewClient(withKey).Pacer == nil {
		t.Fatal("Pacer = nil with key")
	}
}
