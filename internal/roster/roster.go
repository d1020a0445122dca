// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package roster loads tracked-author entries from the tabular roster source
// and expands each entry into the query keys searched against PubMed.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/pubwatch/pkg/types"
)

// Roster column names. Only pubmed_name is required.
const (
	colName        = "pubmed_name"
	colMentionID   = "slack_user_id"
	colVariants    = "name_variants"
	colAffiliation = "affiliation"
)

// LoadFile reads the roster CSV at path. Warnings about skipped rows go to w.
func LoadFile(path string, w io.Writer) ([]types.RosterEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster %s: %w", path, err)
	}
	defer f.Close()

	entries, err := LoadCSV(f, w)
	if err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	return entries, nil
}

// LoadCSV parses roster rows from r. The first record must be a header
// containing at least the pubmed_name column. Rows with an empty name are
// skipped with a warning rather than failing the load; the boundary rejects
// malformed rows so the pipeline never sees them.
func LoadCSV(r io.Reader, w io.Writer) ([]types.RosterEntry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("roster is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading roster header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols[colName]; !ok {
		return nil, fmt.Errorf("roster header missing required column %q", colName)
	}

	var entries []types.RosterEntry
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading roster row %d: %w", row, err)
		}

		field := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		name := field(colName)
		if name == "" {
			fmt.Fprintf(w, "warning: skipping roster row %d: empty %s\n", row, colName)
			continue
		}

		entries = append(entries, types.RosterEntry{
			CanonicalName: name,
			MentionID:     field(colMentionID),
			NameVariants:  splitVariants(field(colVariants)),
			Affiliation:   field(colAffiliation),
		})
	}

	return entries, nil
}

// splitVariants parses the comma-separated name_variants column, dropping
// empty and whitespace-only items.
func splitVariants(s string) []string {
	if s == "" {
		return nil
	}
	var variants []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			variants = append(variants, v)
		}
	}
	return variants
}

// AdHoc builds a bypass roster from plain name strings sharing one
// affiliation. Entries have no mention ID, so announcements render the
// plain name instead of a Slack mention.
func AdHoc(names []string, affiliation string) []types.RosterEntry {
	var entries []types.RosterEntry
	for _, n := range names {
		if n = strings.TrimSpace(n); n == "" {
			continue
		}
		entries = append(entries, types.RosterEntry{
			CanonicalName: n,
			Affiliation:   affiliation,
		})
	}
	return entries
}
