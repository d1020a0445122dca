// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pdiddy/pubwatch/pkg/types"
)

// efetch XML structures (PubmedArticleSet subset).
type articleSet struct {
	Articles []article `xml:"PubmedArticle"`
}

type article struct {
	PMID     string   `xml:"MedlineCitation>PMID"`
	Title    string   `xml:"MedlineCitation>Article>ArticleTitle"`
	Journal  string   `xml:"MedlineCitation>Article>Journal>Title"`
	PubYear  string   `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
	PubMonth string   `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Month"`
	Authors  []author `xml:"MedlineCitation>Article>AuthorList>Author"`
}

type author struct {
	LastName string `xml:"LastName"`
	Initials string `xml:"Initials"`
}

func decodeArticleSet(r io.Reader, set *articleSet) error {
	return xml.NewDecoder(r).Decode(set)
}

// summary flattens one article element into the pipeline's metadata shape.
// Authors render "LastName Initials"; collective authors without a LastName
// are dropped, matching how PubMed indexes personal names.
func (a article) summary() types.Summary {
	s := types.Summary{
		PMID:    strings.TrimSpace(a.PMID),
		Title:   strings.TrimSpace(a.Title),
		Journal: strings.TrimSpace(a.Journal),
		PubDate: strings.TrimSpace(strings.TrimSpace(a.PubMonth) + " " + strings.TrimSpace(a.PubYear)),
	}
	if s.Title == "" {
		s.Title = "No title"
	}
	for _, au := range a.Authors {
		last := strings.TrimSpace(au.LastName)
		if last == "" {
			continue
		}
		s.Authors = append(s.Authors, strings.TrimSpace(last+" "+strings.TrimSpace(au.Initials)))
	}
	return s
}
