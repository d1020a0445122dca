// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package announce formats publication announcements and dispatches them to
// the notification channel exactly once each.
package announce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/pubwatch/internal/pacer"
	"github.com/pdiddy/pubwatch/pkg/types"
)

// ErrTooManyFailures aborts a run whose dispatch failures crossed the
// configured threshold. Unsent publications stay unmarked for the next run.
var ErrTooManyFailures = errors.New("too many dispatch failures")

// Notifier sends one message to the notification channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Ledger records a delivered announcement. Marking happens only after the
// send succeeds; a failed send must never reach the ledger.
type Ledger interface {
	Mark(ctx context.Context, id, title string) error
}

const (
	deepLinkBase    = "https://pubmed.ncbi.nlm.nih.gov/"
	maxAuthorsShown = 10
)

// Build renders one publication as a Slack mrkdwn message. Deterministic:
// the same publication always yields byte-identical text. Credited members
// render as platform mentions when a mention ID is present and as the plain
// canonical name otherwise.
func Build(pub types.Publication) string {
	authors := strings.Join(pub.Authors[:min(len(pub.Authors), maxAuthorsShown)], ", ")
	if len(pub.Authors) > maxAuthorsShown {
		authors += fmt.Sprintf(", et al. (%d authors)", len(pub.Authors))
	}

	mentions := make([]string, 0, len(pub.Credited))
	for _, m := range pub.Credited {
		if m.MentionID != "" {
			mentions = append(mentions, "<@"+m.MentionID+">")
		} else {
			mentions = append(mentions, m.CanonicalName)
		}
	}

	var journal string
	if pub.Journal != "" {
		journal = "\n*Journal:* " + pub.Journal
		if pub.PubDate != "" {
			journal += " (" + pub.PubDate + ")"
		}
	}

	return fmt.Sprintf(
		"*New Publication*\n\n*Title:* %s\n\n*Authors:* %s%s\n\n*Group members:* %s\n\n%s%s/",
		pub.Title, authors, journal, strings.Join(mentions, " "), deepLinkBase, pub.PMID,
	)
}

// Options controls dispatch behavior.
type Options struct {
	// DryRun prints each message to the progress writer instead of sending
	// it; the ledger and archive are untouched.
	DryRun bool

	// MaxFailures aborts dispatch once this many sends have failed.
	// Zero disables the threshold.
	MaxFailures int

	// ArchiveDir, when set, receives one YAML record per announced
	// publication.
	ArchiveDir string
}

// Result summarizes one dispatch pass.
type Result struct {
	Announced int
	Failed    int
}

// Dispatch sends each publication, pacing messages through p. A failed send
// is logged and skipped without marking the ledger; once failures reach
// Options.MaxFailures the pass aborts with ErrTooManyFailures and the
// remaining publications are left for the next run. A successful send is
// marked in the ledger before the next message goes out.
func Dispatch(ctx context.Context, pubs []types.Publication, n Notifier, led Ledger, p *pacer.Pacer, opts Options, w io.Writer) (Result, error) {
	var res Result

	for _, pub := range pubs {
		msg := Build(pub)

		if opts.DryRun {
			fmt.Fprintf(w, "[dry run] would announce PMID %s:\n%s\n%s\n%s\n", pub.PMID, strings.Repeat("-", 50), msg, strings.Repeat("-", 50))
			res.Announced++
			continue
		}

		if err := p.Wait(ctx); err != nil {
			return res, err
		}

		if err := n.Send(ctx, msg); err != nil {
			res.Failed++
			fmt.Fprintf(w, "warning: dispatch failed for PMID %s, skipping: %v\n", pub.PMID, err)
			if opts.MaxFailures > 0 && res.Failed >= opts.MaxFailures {
				return res, fmt.Errorf("%w: %d message(s) failed", ErrTooManyFailures, res.Failed)
			}
			continue
		}

		// Marking must follow the send: a failed send never reaches the
		// ledger.
		if err := led.Mark(ctx, pub.PMID, pub.Title); err != nil {
			return res, fmt.Errorf("announced PMID %s but could not mark ledger: %w", pub.PMID, err)
		}
		res.Announced++
		fmt.Fprintf(w, "announced PMID %s\n", pub.PMID)

		if opts.ArchiveDir != "" {
			if err := writeArchive(opts.ArchiveDir, pub, msg); err != nil {
				fmt.Fprintf(w, "warning: archive write failed for PMID %s: %v\n", pub.PMID, err)
			}
		}
	}

	return res, nil
}
