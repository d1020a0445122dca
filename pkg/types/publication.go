// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Summary holds the metadata returned by the bibliographic source for one
// publication identifier.
type Summary struct {
	// PMID is the PubMed identifier as a decimal string (e.g. "38412345").
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the full author list in source order, formatted
	// "LastName Initials".
	Authors []string `json:"authors" yaml:"authors"`

	// Journal is the journal title, empty when the source omits it.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// PubDate is a human-readable publication date (e.g. "Mar 2026"),
	// empty when the source omits it.
	PubDate string `json:"pub_date,omitempty" yaml:"pub_date,omitempty"`
}

// Publication is a publication that survived ledger filtering, together
// with the roster members whose searches matched it. Immutable once built.
type Publication struct {
	Summary `yaml:",inline"`

	// Credited lists the roster entries whose name or variant matched this
	// publication, in roster order, each at most once.
	Credited []RosterEntry `json:"credited" yaml:"credited"`
}
