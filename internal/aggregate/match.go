// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pdiddy/pubwatch/internal/roster"
	"github.com/pdiddy/pubwatch/pkg/types"
)

// Credited reports which roster entries appear in a fetched author list.
// Used as a recheck when a publication surfaces without recorded candidates
// (e.g. the ledger filter ran against a stale candidate map). Exact
// normalized matches win; a fuzzy subsequence match catches initials-only
// spellings like "Curie M" against "Curie Marie".
func Credited(paperAuthors []string, entries []types.RosterEntry) []types.RosterEntry {
	normalized := make([]string, 0, len(paperAuthors))
	for _, a := range paperAuthors {
		if n := roster.Normalize(a); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return nil
	}

	var credited []types.RosterEntry
	for _, entry := range entries {
		if matchesAny(entry, normalized) {
			credited = append(credited, entry)
		}
	}
	return credited
}

func matchesAny(entry types.RosterEntry, paperAuthors []string) bool {
	names := append([]string{entry.CanonicalName}, entry.NameVariants...)
	for _, name := range names {
		n := roster.Normalize(name)
		if n == "" {
			continue
		}
		for _, pa := range paperAuthors {
			if n == pa || fuzzy.Match(n, pa) {
				return true
			}
		}
	}
	return false
}
