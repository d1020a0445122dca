// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package announce

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubwatch/pkg/types"
)

// archiveRecord is the YAML document written for each announced publication.
type archiveRecord struct {
	PMID        string   `yaml:"pmid"`
	Title       string   `yaml:"title"`
	Journal     string   `yaml:"journal,omitempty"`
	PubDate     string   `yaml:"pub_date,omitempty"`
	Authors     []string `yaml:"authors"`
	Members     []string `yaml:"members"`
	Message     string   `yaml:"message"`
	AnnouncedAt string   `yaml:"announced_at"`
}

// writeArchive records one announcement as dir/[pmid].yaml. The archive is
// an audit trail; failures are logged by the caller, never fatal.
func writeArchive(dir string, pub types.Publication, msg string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	members := make([]string, 0, len(pub.Credited))
	for _, m := range pub.Credited {
		members = append(members, m.CanonicalName)
	}

	rec := archiveRecord{
		PMID:        pub.PMID,
		Title:       pub.Title,
		Journal:     pub.Journal,
		PubDate:     pub.PubDate,
		Authors:     pub.Authors,
		Members:     members,
		Message:     msg,
		AnnouncedAt: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("marshaling archive record: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, pub.PMID+".yaml"), data, 0o644)
}
