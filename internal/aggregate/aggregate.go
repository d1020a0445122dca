// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate folds per-author search results into a single map from
// publication identifier to the roster entries credited with it.
package aggregate

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/pubwatch/internal/roster"
	"github.com/pdiddy/pubwatch/pkg/types"
)

// Searcher issues one bibliographic search for a query key over a lookback
// window of days. Implemented by the pubmed client; tests use fakes.
type Searcher interface {
	Search(ctx context.Context, key types.QueryKey, days int) ([]string, error)
}

// Candidates maps publication identifier to the roster entries whose
// searches matched it. Credit has union semantics: repeat matches across
// name variants or co-authored entries are idempotent.
type Candidates map[string][]types.RosterEntry

// add credits entry with id unless it is already credited. Entries are
// identified by canonical name; roster uniqueness by canonical name is
// assumed upstream.
func (c Candidates) add(id string, entry types.RosterEntry) {
	for _, e := range c[id] {
		if e.CanonicalName == entry.CanonicalName {
			return
		}
	}
	c[id] = append(c[id], entry)
}

// IDs returns the candidate identifiers in ascending order. Search result
// order carries no meaning, so downstream stages iterate sorted for
// deterministic runs.
func (c Candidates) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Options controls aggregation behavior.
type Options struct {
	// LookbackDays is the trailing search window.
	LookbackDays int

	// FailFast aborts on the first search failure instead of skipping the
	// failing query key.
	FailFast bool
}

// Stats counts search outcomes across one aggregation pass.
type Stats struct {
	Searched int
	Failed   int
}

// Collect runs every query key of every entry through the searcher and
// folds the results. In default mode a failing search is logged to w and
// skipped so one author's failure cannot abort the run; in fail-fast mode
// the first failure propagates.
func Collect(ctx context.Context, s Searcher, entries []types.RosterEntry, opts Options, w io.Writer) (Candidates, Stats, error) {
	cand := make(Candidates)
	var stats Stats

	for i, entry := range entries {
		keys := roster.QueryKeys(entry)
		if len(keys) == 0 {
			fmt.Fprintf(w, "warning: roster entry %q has no searchable names\n", entry.CanonicalName)
			continue
		}

		for _, key := range keys {
			ids, err := s.Search(ctx, key, opts.LookbackDays)
			if err != nil {
				stats.Failed++
				if opts.FailFast {
					return nil, stats, fmt.Errorf("search %q: %w", key.Name, err)
				}
				fmt.Fprintf(w, "warning: search %q failed, skipping: %v\n", key.Name, err)
				continue
			}
			stats.Searched++
			for _, id := range ids {
				cand.add(id, entry)
			}
		}

		if (i+1)%10 == 0 {
			fmt.Fprintf(w, "  searched %d/%d authors\n", i+1, len(entries))
		}
	}

	return cand, stats, nil
}
