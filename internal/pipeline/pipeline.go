// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires discovery, ledger filtering, metadata fetch, and
// announcement into one run: expand roster entries into queries, search,
// aggregate candidates, drop already-announced identifiers, fetch metadata
// for the survivors, dispatch, and mark the ledger.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pdiddy/pubwatch/internal/aggregate"
	"github.com/pdiddy/pubwatch/internal/announce"
	"github.com/pdiddy/pubwatch/internal/pacer"
	"github.com/pdiddy/pubwatch/pkg/types"
)

// Fetcher retrieves metadata for a set of publication identifiers.
type Fetcher interface {
	FetchSummaries(ctx context.Context, ids []string) (map[string]types.Summary, error)
}

// Ledger is the announced-publication set as the pipeline sees it: an
// explicit value passed through the run, so tests use an in-memory stand-in.
type Ledger interface {
	Contains(id string) bool
	Mark(ctx context.Context, id, title string) error
}

// Deps bundles the external collaborators of one run.
type Deps struct {
	Searcher aggregate.Searcher
	Fetcher  Fetcher
	Notifier announce.Notifier
	Ledger   Ledger

	// DispatchPacer spaces outgoing messages. Nil never waits.
	DispatchPacer *pacer.Pacer
}

// Result summarizes one run.
type Result struct {
	Authors          int
	SearchesFailed   int
	Candidates       int
	AlreadyAnnounced int
	New              int
	Announced        int
	DispatchFailed   int
}

// Run executes one discovery-and-announcement pass over the roster.
// Per-author search failures and per-message dispatch failures are isolated
// inside the stages; only fatal conditions (fail-fast search, metadata
// fetch failure, ledger write failure, dispatch failure threshold) return
// an error.
func Run(ctx context.Context, entries []types.RosterEntry, d Deps, cfg types.RunConfig, w io.Writer) (Result, error) {
	res := Result{Authors: len(entries)}

	fmt.Fprintf(w, "Searching PubMed for %d author(s), lookback %d day(s)...\n", len(entries), cfg.LookbackDays)

	cand, stats, err := aggregate.Collect(ctx, d.Searcher, entries, aggregate.Options{
		LookbackDays: cfg.LookbackDays,
		FailFast:     cfg.FailFast,
	}, w)
	if err != nil {
		return res, err
	}
	res.SearchesFailed = stats.Failed
	res.Candidates = len(cand)
	fmt.Fprintf(w, "Found %d candidate publication(s)\n", len(cand))

	var fresh []string
	for _, id := range cand.IDs() {
		if d.Ledger.Contains(id) {
			res.AlreadyAnnounced++
			continue
		}
		fresh = append(fresh, id)
	}
	res.New = len(fresh)
	fmt.Fprintf(w, "%d new, %d already announced\n", res.New, res.AlreadyAnnounced)

	if len(fresh) == 0 {
		return res, nil
	}

	summaries, err := d.Fetcher.FetchSummaries(ctx, fresh)
	if err != nil {
		return res, fmt.Errorf("fetching metadata: %w", err)
	}

	var pubs []types.Publication
	for _, id := range fresh {
		s, ok := summaries[id]
		if !ok {
			fmt.Fprintf(w, "warning: no metadata for PMID %s, skipping\n", id)
			continue
		}

		credited := cand[id]
		if len(credited) == 0 {
			// Recheck against the fetched author list before giving up.
			credited = aggregate.Credited(s.Authors, entries)
		}
		if len(credited) == 0 {
			fmt.Fprintf(w, "warning: no credited members for PMID %s, skipping\n", id)
			continue
		}

		pubs = append(pubs, types.Publication{Summary: s, Credited: credited})
	}

	ares, err := announce.Dispatch(ctx, pubs, d.Notifier, d.Ledger, d.DispatchPacer, announce.Options{
		DryRun:      cfg.DryRun,
		MaxFailures: cfg.MaxDispatchFailures,
		ArchiveDir:  archiveDir(cfg),
	}, w)
	res.Announced = ares.Announced
	res.DispatchFailed = ares.Failed
	if err != nil {
		return res, err
	}

	fmt.Fprintf(w, "Done: %d announced, %d failed\n", res.Announced, res.DispatchFailed)
	return res, nil
}

func archiveDir(cfg types.RunConfig) string {
	if cfg.DryRun || cfg.StateDir == "" {
		return ""
	}
	return filepath.Join(cfg.StateDir, "announced")
}
