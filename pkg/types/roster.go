// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pubwatch pipeline.
package types

// RosterEntry describes one tracked person: the primary PubMed author name,
// an optional Slack member ID for mentions, alternative name spellings, and
// an optional institutional affiliation used to narrow searches.
type RosterEntry struct {
	// CanonicalName is the primary author name as indexed by PubMed
	// (e.g. "Curie Marie").
	CanonicalName string `json:"canonical_name" yaml:"canonical_name"`

	// MentionID is the Slack member ID (e.g. "U01ABC123"). Empty when the
	// person has no Slack account; announcements fall back to the plain name.
	MentionID string `json:"mention_id,omitempty" yaml:"mention_id,omitempty"`

	// NameVariants lists alternative spellings searched in addition to the
	// canonical name (e.g. initials-only forms).
	NameVariants []string `json:"name_variants,omitempty" yaml:"name_variants,omitempty"`

	// Affiliation is an optional institutional filter (e.g. "UCSF") applied
	// to every search for this entry.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// QueryKey is one concrete search request: a single name spelling paired
// with the entry's affiliation. Derived from a RosterEntry, never stored.
type QueryKey struct {
	// Name is the author name exactly as it will appear in the search term.
	Name string

	// Affiliation is the optional affiliation filter, empty when unused.
	Affiliation string
}
