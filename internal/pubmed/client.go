// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities: esearch for publication
// identifiers matching an author within a lookback window, efetch for
// publication metadata by identifier.
package pubmed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/pubwatch/internal/httputil"
	"github.com/pdiddy/pubwatch/internal/pacer"
	"github.com/pdiddy/pubwatch/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// ErrSourceUnavailable marks a request that failed after retries. Callers
// skip the affected query in default mode or abort in fail-fast mode.
var ErrSourceUnavailable = errors.New("pubmed unavailable")

const (
	// fetchBatchSize bounds identifiers per efetch request.
	fetchBatchSize = 200

	defaultMaxIDs = 100
)

// Client talks to the PubMed E-utilities. Every request waits on Pacer
// first, so the configured inter-request delay holds across both Search and
// FetchSummaries regardless of which author triggered the call.
type Client struct {
	HTTP      *http.Client
	Pacer     *pacer.Pacer
	UserAgent string

	// APIKey is the optional NCBI key sent with every request. Presence of
	// a key is what entitles the caller to the elevated rate tier.
	APIKey string

	// MaxIDsPerSearch caps esearch retmax (default 100).
	MaxIDsPerSearch int

	// now is the clock, overridable in tests for stable date windows.
	now func() time.Time
}

// NewClient builds a client from configuration. The pacer interval defaults
// to the documented NCBI cap for the credential tier: 3 requests per second
// without a key, 10 with one.
func NewClient(cfg types.PubMedConfig) *Client {
	delay := cfg.RequestDelay
	if delay <= 0 {
		if cfg.APIKey != "" {
			delay = 100 * time.Millisecond
		} else {
			delay = 334 * time.Millisecond
		}
	}
	return &Client{
		HTTP:            &http.Client{Timeout: cfg.Timeout},
		Pacer:           pacer.New(delay),
		UserAgent:       cfg.UserAgent,
		APIKey:          cfg.APIKey,
		MaxIDsPerSearch: cfg.MaxIDsPerSearch,
	}
}

// Search returns the PMIDs of publications matching the query key dated
// within the trailing window of days. Result order is whatever the source
// returns; callers must not read meaning into it.
func (c *Client) Search(ctx context.Context, key types.QueryKey, days int) ([]string, error) {
	term := fmt.Sprintf("%s[Author]", key.Name)
	if key.Affiliation != "" {
		term = fmt.Sprintf("(%s) AND %s[Affiliation]", term, key.Affiliation)
	}

	maxIDs := c.MaxIDsPerSearch
	if maxIDs <= 0 {
		maxIDs = defaultMaxIDs
	}

	to := c.clock()
	from := to.AddDate(0, 0, -days)

	params := url.Values{
		"db":       {"pubmed"},
		"term":     {term},
		"datetype": {"edat"},
		"mindate":  {from.Format("2006/01/02")},
		"maxdate":  {to.Format("2006/01/02")},
		"retmode":  {"json"},
		"retmax":   {fmt.Sprintf("%d", maxIDs)},
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}

	var esr esearchResponse
	if err := c.get(ctx, esearchBase, params, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&esr)
	}); err != nil {
		return nil, fmt.Errorf("esearch %q: %w", term, err)
	}

	return esr.Result.IDList, nil
}

// FetchSummaries retrieves metadata for the given PMIDs, batched to bound
// request size. Identifiers the source does not recognize are absent from
// the returned map; that is not an error.
func (c *Client) FetchSummaries(ctx context.Context, ids []string) (map[string]types.Summary, error) {
	summaries := make(map[string]types.Summary, len(ids))

	for start := 0; start < len(ids); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		params := url.Values{
			"db":      {"pubmed"},
			"id":      {strings.Join(batch, ",")},
			"retmode": {"xml"},
		}
		if c.APIKey != "" {
			params.Set("api_key", c.APIKey)
		}

		var set articleSet
		if err := c.get(ctx, efetchBase, params, func(resp *http.Response) error {
			return decodeArticleSet(resp.Body, &set)
		}); err != nil {
			return nil, fmt.Errorf("efetch %d id(s): %w", len(batch), err)
		}

		for _, a := range set.Articles {
			s := a.summary()
			if s.PMID != "" {
				summaries[s.PMID] = s
			}
		}
	}

	return summaries, nil
}

// get issues one paced, retried GET and hands the 200 response to decode.
// Any transport, status, or decode failure maps to ErrSourceUnavailable.
func (c *Client) get(ctx context.Context, base string, params url.Values, decode func(*http.Response) error) error {
	if err := c.Pacer.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrSourceUnavailable, resp.StatusCode)
	}

	if err := decode(resp); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrSourceUnavailable, err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// esearch JSON structures.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}
